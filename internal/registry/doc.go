// Package registry provides the injected mapping from descriptor type
// names to unit constructors.
//
// The Registry is the loader's only knowledge of concrete unit types. It is
// populated at startup by Module implementations (one per unit package),
// and the linker performs nothing but reads against it during a load, so a
// single Registry may safely back concurrent loads. Registration conflicts
// are programmer errors and panic; lookup misses are input errors and are
// reported by the linker.
package registry
