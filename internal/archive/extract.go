package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vk/flowpack/internal/ctxlog"
	"github.com/vk/flowpack/internal/scratch"
)

// maxPackageBytes is the upper bound on the total extracted size of one
// package (4 GiB). Entry bodies come out of untrusted, possibly compressed
// streams, so every copy is capped to prevent decompression bombs.
const maxPackageBytes = 4 << 30

// ExtractFile opens the archive at path and extracts it into dest.
func ExtractFile(ctx context.Context, path string, dest *scratch.Dir) error {
	r, err := Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	return Extract(ctx, r, dest)
}

// Extract streams every entry of r into dest. Entry names are validated
// against the scratch root before anything touches disk, and files are
// written to a temporary sibling and renamed into place so a later consumer
// never observes a half-written file. The first failure aborts extraction;
// cleanup of whatever was already written is the scratch release's job.
func Extract(ctx context.Context, r Reader, dest *scratch.Dir) error {
	return extract(ctx, r, dest, maxPackageBytes)
}

func extract(ctx context.Context, r Reader, dest *scratch.Dir, budget int64) error {
	logger := ctxlog.FromContext(ctx)
	files, dirs := 0, 0
	var written int64

	for {
		entry, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read archive entry: %w", err)
		}

		if entry.Kind == KindOther {
			return fmt.Errorf("unsupported archive entry %q (%s)", entry.Name, entry.Detail)
		}

		target, err := dest.Resolve(entry.Name)
		if err != nil {
			return fmt.Errorf("unsafe archive entry name: %w", err)
		}

		switch entry.Kind {
		case KindDir:
			if err := os.MkdirAll(target, 0o700); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", entry.Name, err)
			}
			dirs++
		case KindFile:
			if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
				return fmt.Errorf("failed to create parent of %q: %w", entry.Name, err)
			}
			// Read one byte past the remaining budget so an oversized
			// stream is detected rather than silently truncated.
			n, err := writeAtomic(target, io.LimitReader(entry.Body, budget-written+1))
			if err != nil {
				return fmt.Errorf("failed to extract %q: %w", entry.Name, err)
			}
			written += n
			if written > budget {
				return fmt.Errorf("entry %q: package exceeds the %d byte extraction limit", entry.Name, budget)
			}
			files++
		}
	}

	logger.Debug("Archive extracted.", "files", files, "dirs", dirs, "bytes", written, "root", dest.Path())
	return nil
}

// writeAtomic copies src into a temporary sibling of target and renames it
// into place, reporting the number of bytes written.
func writeAtomic(target string, src io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".extract-*")
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tmp, src)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return n, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return n, err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return n, err
	}
	return n, nil
}
