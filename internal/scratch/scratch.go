// Package scratch manages the per-load temporary directory a workflow
// package is extracted into.
//
// A scratch directory is acquired at the start of a load and released at the
// end on every path, success or failure. Release is best effort: residual
// files are reported as a warning, never as a load error. The directory name
// is unique across concurrent loads in the same process, which is what makes
// the loader reentrant across instances.
package scratch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/vk/flowpack/internal/ctxlog"
)

// Dir is an acquired scratch directory. All extracted files and all blob
// reads are confined to its subtree via Resolve.
type Dir struct {
	path     string
	released bool
}

// Acquire creates a uniquely named scratch directory under base. An empty
// base falls back to the OS temporary directory. The clock only feeds the
// directory name, so tests can pin it.
func Acquire(ctx context.Context, base string, clock clockwork.Clock) (*Dir, error) {
	if base == "" {
		base = os.TempDir()
	}
	name := fmt.Sprintf("flowpack-%d-%s", clock.Now().UnixNano(), uuid.NewString())
	path := filepath.Join(base, name)
	if err := os.Mkdir(path, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Scratch directory acquired.", "path", path)
	return &Dir{path: path}, nil
}

// Path returns the scratch root.
func (d *Dir) Path() string {
	return d.path
}

// Resolve maps a package-relative name to an absolute path inside the
// scratch root. Absolute names, names with a ".." segment, and names whose
// lexical resolution escapes the root are rejected.
func (d *Dir) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty path")
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("absolute path %q is not allowed", name)
	}
	for _, seg := range strings.Split(clean, string(filepath.Separator)) {
		if seg == ".." {
			return "", fmt.Errorf("path %q escapes the package root", name)
		}
	}
	full := filepath.Join(d.path, clean)
	if full != d.path && !strings.HasPrefix(full, d.path+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the package root", name)
	}
	return full, nil
}

// Release removes the scratch subtree. Failures are logged as warnings and
// swallowed; a load must never fail because cleanup did. Release is
// idempotent.
func (d *Dir) Release(ctx context.Context) {
	if d.released {
		return
	}
	d.released = true
	if err := os.RemoveAll(d.path); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to remove scratch directory; residual files remain.",
			"path", d.path, "error", err)
		return
	}
	ctxlog.FromContext(ctx).Debug("Scratch directory released.", "path", d.path)
}
