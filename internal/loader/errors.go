package loader

import (
	"errors"
	"fmt"

	"github.com/vk/flowpack/internal/descriptor"
	"github.com/vk/flowpack/internal/linker"
)

// Kind categorizes a load failure.
type Kind int

const (
	// KindExtractionFailed covers archive I/O, decoding, and
	// traversal-safety violations.
	KindExtractionFailed Kind = iota + 1
	// KindInvalidPackage covers a missing descriptor or unexpected layout.
	KindInvalidPackage
	// KindInvalidDescriptor covers schema violations in the descriptor.
	KindInvalidDescriptor
	// KindInvalidBlob covers missing, unreadable, or wrongly sized blobs.
	KindInvalidBlob
	// KindUnknownUnitType is a registry miss.
	KindUnknownUnitType
	// KindUnitRejectedProperty is a unit refusing a property or array.
	KindUnitRejectedProperty
	// KindLinkArityMismatch is a disagreement between declared links and
	// unit input arity.
	KindLinkArityMismatch
	// KindInvalidWorkflow covers cycles, bad links, and other graph-level
	// violations.
	KindInvalidWorkflow
)

// String returns the kind's name as it appears in error messages.
func (k Kind) String() string {
	switch k {
	case KindExtractionFailed:
		return "ExtractionFailed"
	case KindInvalidPackage:
		return "InvalidPackage"
	case KindInvalidDescriptor:
		return "InvalidDescriptor"
	case KindInvalidBlob:
		return "InvalidBlob"
	case KindUnknownUnitType:
		return "UnknownUnitType"
	case KindUnitRejectedProperty:
		return "UnitRejectedProperty"
	case KindLinkArityMismatch:
		return "LinkArityMismatch"
	case KindInvalidWorkflow:
		return "InvalidWorkflow"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the single failure type Load returns: the failure kind, the
// archive it happened on, and the underlying reason.
type Error struct {
	Kind    Kind
	Archive string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("workflow package %q: %s: %v", e.Archive, e.Kind, e.Err)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// fail wraps err in an Error of the given kind.
func fail(kind Kind, archive string, err error) *Error {
	return &Error{Kind: kind, Archive: archive, Err: err}
}

// descriptorKind distinguishes an absent descriptor (a package-layout
// problem) from a malformed one (a schema problem).
func descriptorKind(err error) Kind {
	if errors.Is(err, descriptor.ErrMissing) {
		return KindInvalidPackage
	}
	return KindInvalidDescriptor
}

// linkerKind maps the linker's sentinel errors onto the taxonomy; anything
// unclassified is a graph-level violation.
func linkerKind(err error) Kind {
	switch {
	case errors.Is(err, linker.ErrUnknownUnitType):
		return KindUnknownUnitType
	case errors.Is(err, linker.ErrRejectedProperty):
		return KindUnitRejectedProperty
	case errors.Is(err, linker.ErrArityMismatch):
		return KindLinkArityMismatch
	default:
		return KindInvalidWorkflow
	}
}
