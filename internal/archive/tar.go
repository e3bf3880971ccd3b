package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// tarReader adapts a (possibly gzip-compressed) tar stream to the Reader
// interface.
type tarReader struct {
	f  *os.File
	gz *gzip.Reader
	tr *tar.Reader
}

func newTarReader(f *os.File, compressed bool) (*tarReader, error) {
	r := &tarReader{f: f}
	var src io.Reader = f
	if compressed {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		r.gz = gz
		src = gz
	}
	r.tr = tar.NewReader(src)
	return r, nil
}

func (r *tarReader) Next() (*Entry, error) {
	for {
		hdr, err := r.tr.Next()
		if err != nil {
			return nil, err // io.EOF passes through unchanged
		}

		switch hdr.Typeflag {
		case tar.TypeReg:
			return &Entry{Name: hdr.Name, Kind: KindFile, Body: r.tr}, nil
		case tar.TypeDir:
			return &Entry{Name: hdr.Name, Kind: KindDir}, nil
		case tar.TypeXGlobalHeader, tar.TypeXHeader:
			continue // pax metadata, nothing to extract
		case tar.TypeSymlink:
			return &Entry{Name: hdr.Name, Kind: KindOther, Detail: "symbolic link"}, nil
		case tar.TypeLink:
			return &Entry{Name: hdr.Name, Kind: KindOther, Detail: "hard link"}, nil
		case tar.TypeChar, tar.TypeBlock:
			return &Entry{Name: hdr.Name, Kind: KindOther, Detail: "device node"}, nil
		case tar.TypeFifo:
			return &Entry{Name: hdr.Name, Kind: KindOther, Detail: "fifo"}, nil
		default:
			return &Entry{Name: hdr.Name, Kind: KindOther,
				Detail: fmt.Sprintf("tar type %q", hdr.Typeflag)}, nil
		}
	}
}

func (r *tarReader) Close() error {
	if r.gz != nil {
		if err := r.gz.Close(); err != nil {
			r.f.Close()
			return err
		}
	}
	return r.f.Close()
}
