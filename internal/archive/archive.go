package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Kind classifies an archive entry.
type Kind int

const (
	// KindFile is a regular file entry.
	KindFile Kind = iota
	// KindDir is a directory entry.
	KindDir
	// KindOther is anything else: symlinks, hard links, devices, fifos.
	// The extractor rejects these.
	KindOther
)

// Entry is one element of an archive. Body is non-nil only for KindFile and
// is valid until the next call to Reader.Next.
type Entry struct {
	Name   string
	Kind   Kind
	Detail string // human-readable description for KindOther entries
	Body   io.Reader
}

// Reader is the archive-reader capability: a lazy sequence of entries.
// Next returns io.EOF once the archive is exhausted.
type Reader interface {
	Next() (*Entry, error)
	Close() error
}

var (
	zipMagic  = []byte{'P', 'K', 0x03, 0x04}
	gzipMagic = []byte{0x1f, 0x8b}
)

// Open builds a Reader for the archive at path. The container format is
// detected from the leading bytes: zip and gzip have magic numbers, and
// anything else is treated as a plain tar stream.
func Open(path string) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	head := make([]byte, 4)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		f.Close()
		return nil, fmt.Errorf("failed to read archive header: %w", err)
	}
	head = head[:n]

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rewind archive: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, zipMagic):
		f.Close()
		return newZipReader(path)
	case bytes.HasPrefix(head, gzipMagic):
		return newTarReader(f, true)
	default:
		return newTarReader(f, false)
	}
}
