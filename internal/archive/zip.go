package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"strings"
)

// zipReader adapts a zip central directory to the sequential Reader
// interface. Zip requires random access, so it works from the path rather
// than a stream.
type zipReader struct {
	rc   *zip.ReadCloser
	next int
	open io.ReadCloser // body of the previously returned entry
}

func newZipReader(path string) (*zipReader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}
	return &zipReader{rc: rc}, nil
}

func (r *zipReader) Next() (*Entry, error) {
	if r.open != nil {
		r.open.Close()
		r.open = nil
	}
	if r.next >= len(r.rc.File) {
		return nil, io.EOF
	}
	f := r.rc.File[r.next]
	r.next++

	mode := f.Mode()
	switch {
	case f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/"):
		return &Entry{Name: f.Name, Kind: KindDir}, nil
	case mode&os.ModeSymlink != 0:
		return &Entry{Name: f.Name, Kind: KindOther, Detail: "symbolic link"}, nil
	case !mode.IsRegular():
		return &Entry{Name: f.Name, Kind: KindOther,
			Detail: fmt.Sprintf("mode %s", mode)}, nil
	}

	body, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open zip entry %q: %w", f.Name, err)
	}
	r.open = body
	return &Entry{Name: f.Name, Kind: KindFile, Body: body}, nil
}

func (r *zipReader) Close() error {
	if r.open != nil {
		r.open.Close()
		r.open = nil
	}
	return r.rc.Close()
}
