// Package loader is the factory that turns a workflow package archive into
// a linked, ready-to-initialize workflow.
//
// A load is a linear pipeline over a scratch directory: extract the archive,
// parse the descriptor, resolve blob references, link the unit graph. The
// scratch directory is released on every exit path, and release can never
// fail a load. A Loader instance must not be used for concurrent Load
// calls, but distinct instances (or sequential calls) are independent: each
// load owns a uniquely named scratch root.
package loader

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/vk/flowpack/internal/archive"
	"github.com/vk/flowpack/internal/blob"
	"github.com/vk/flowpack/internal/ctxlog"
	"github.com/vk/flowpack/internal/descriptor"
	"github.com/vk/flowpack/internal/linker"
	"github.com/vk/flowpack/internal/registry"
	"github.com/vk/flowpack/internal/scratch"
	"github.com/vk/flowpack/internal/workflow"
)

// Loader produces Workflow values from package archives on disk.
type Loader struct {
	reg      *registry.Registry
	tempBase string
	clock    clockwork.Clock
}

// Option configures a Loader during construction.
type Option func(*Loader)

// WithTempBase overrides the directory scratch areas are created under.
// The default is the OS temporary directory.
func WithTempBase(base string) Option {
	return func(l *Loader) {
		l.tempBase = base
	}
}

// WithClock overrides the clock that feeds scratch-directory naming.
func WithClock(clock clockwork.Clock) Option {
	return func(l *Loader) {
		l.clock = clock
	}
}

// New creates a Loader backed by the given unit registry.
func New(reg *registry.Registry, opts ...Option) *Loader {
	l := &Loader{
		reg:   reg,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the package archive at archivePath and returns the linked
// workflow. On failure it returns a *Error carrying the failure kind and
// the archive path; the caller's state is untouched and the scratch area is
// removed either way. The context carries the logger; the pipeline itself
// is synchronous.
func (l *Loader) Load(ctx context.Context, archivePath string) (*workflow.Workflow, error) {
	logger := ctxlog.FromContext(ctx).With("archive", archivePath)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Loading workflow package.")

	dir, err := scratch.Acquire(ctx, l.tempBase, l.clock)
	if err != nil {
		return nil, fail(KindExtractionFailed, archivePath, err)
	}
	defer dir.Release(ctx)

	if err := archive.ExtractFile(ctx, archivePath, dir); err != nil {
		return nil, fail(KindExtractionFailed, archivePath, err)
	}

	desc, err := descriptor.Parse(ctx, dir)
	if err != nil {
		return nil, fail(descriptorKind(err), archivePath, err)
	}

	arrays, err := blob.Resolve(ctx, desc, dir)
	if err != nil {
		return nil, fail(KindInvalidBlob, archivePath, err)
	}

	wf, err := linker.Link(ctx, desc, arrays, l.reg)
	if err != nil {
		return nil, fail(linkerKind(err), archivePath, err)
	}

	logger.Info("Workflow package loaded.",
		"name", wf.Name(), "units", wf.Len(), "edges", len(wf.Edges()))
	return wf, nil
}
