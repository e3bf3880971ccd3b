package blob

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/flowpack/internal/ctxlog"
	"github.com/vk/flowpack/internal/model"
	"github.com/vk/flowpack/internal/scratch"
)

// Resolve materializes every blob reference of the descriptor as an Array,
// keyed by the referenced file name. References are deduplicated by path:
// one file yields exactly one Array, shared by all referencing units, so
// all of them must agree on the declared element type and shape.
func Resolve(ctx context.Context, desc *model.Descriptor, dir *scratch.Dir) (map[string]*Array, error) {
	logger := ctxlog.FromContext(ctx)

	refs := make(map[string]model.BlobRef)
	for _, unit := range desc.Units {
		for prop, ref := range unit.Blobs {
			prev, seen := refs[ref.Path]
			if !seen {
				refs[ref.Path] = ref
				continue
			}
			if !sameRef(prev, ref) {
				return nil, fmt.Errorf(
					"unit %q property %q: blob %q already referenced with different dtype or shape",
					unit.ID, prop, ref.Path)
			}
		}
	}

	arrays := make(map[string]*Array, len(refs))
	for path, ref := range refs {
		arr, err := load(ref, dir)
		if err != nil {
			return nil, err
		}
		arrays[path] = arr
	}

	logger.Debug("Blob references resolved.", "files", len(arrays))
	return arrays, nil
}

func sameRef(a, b model.BlobRef) bool {
	if a.DType != b.DType || len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return true
}

// load reads one blob file and checks it against its declared metadata.
func load(ref model.BlobRef, dir *scratch.Dir) (*Array, error) {
	for _, dim := range ref.Shape {
		if dim <= 0 {
			return nil, fmt.Errorf("blob %q: shape dimension %d is not positive", ref.Path, dim)
		}
	}
	want, ok := ref.ByteSize()
	if !ok {
		return nil, fmt.Errorf("blob %q: shape %v with dtype %s describes more bytes than are addressable",
			ref.Path, ref.Shape, ref.DType)
	}

	path, err := dir.Resolve(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("blob %q: %w", ref.Path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %q: file not found in package", ref.Path)
		}
		return nil, fmt.Errorf("blob %q: %w", ref.Path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("blob %q: not a regular file", ref.Path)
	}

	if info.Size() != want {
		return nil, fmt.Errorf("blob %q: size mismatch: file has %d bytes, %s%v declares %d",
			ref.Path, info.Size(), ref.DType, ref.Shape, want)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("blob %q: %w", ref.Path, err)
	}

	return &Array{dt: ref.DType, shape: ref.Shape, raw: raw}, nil
}
