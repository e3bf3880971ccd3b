package testutil

import (
	"archive/tar"
	"archive/zip"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// BuildTarGz writes a tar+gzip package archive containing the given files
// into a fresh temp directory and returns its path. Map iteration order is
// not stable, so entries are written sorted by name.
func BuildTarGz(t *testing.T, files map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "package.tar.gz")

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	writeTar(t, gz, files)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

// BuildTar writes an uncompressed tar package archive.
func BuildTar(t *testing.T, files map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "package.tar")

	f, err := os.Create(path)
	require.NoError(t, err)
	writeTar(t, f, files)
	require.NoError(t, f.Close())
	return path
}

// BuildZip writes a zip package archive.
func BuildZip(t *testing.T, files map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "package.zip")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, name := range sortedNames(files) {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func writeTar(t *testing.T, dst io.Writer, files map[string][]byte) {
	t.Helper()
	tw := tar.NewWriter(dst)
	for _, name := range sortedNames(files) {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(files[name])),
		}))
		_, err := tw.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
}

func sortedNames(files map[string][]byte) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Float32LE encodes the given values as the raw little-endian f32 blob
// format packages carry on disk.
func Float32LE(values ...float32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}
