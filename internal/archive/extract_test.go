package archive_test

import (
	"archive/tar"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowpack/internal/archive"
	"github.com/vk/flowpack/internal/scratch"
	"github.com/vk/flowpack/internal/testutil"
)

func acquire(t *testing.T) *scratch.Dir {
	t.Helper()
	ctx, _ := testutil.Context()
	d, err := scratch.Acquire(ctx, t.TempDir(), clockwork.NewRealClock())
	require.NoError(t, err)
	t.Cleanup(func() { d.Release(ctx) })
	return d
}

func TestExtractFile(t *testing.T) {
	files := map[string][]byte{
		"workflow.json":      []byte(`{"units": []}`),
		"weights/layer0.bin": {1, 2, 3, 4},
	}

	builders := map[string]func(*testing.T, map[string][]byte) string{
		"tar.gz": testutil.BuildTarGz,
		"tar":    testutil.BuildTar,
		"zip":    testutil.BuildZip,
	}

	for format, build := range builders {
		t.Run(format, func(t *testing.T) {
			ctx, _ := testutil.Context()
			dest := acquire(t)

			require.NoError(t, archive.ExtractFile(ctx, build(t, files), dest))

			got, err := os.ReadFile(filepath.Join(dest.Path(), "workflow.json"))
			require.NoError(t, err)
			assert.Equal(t, files["workflow.json"], got)

			got, err = os.ReadFile(filepath.Join(dest.Path(), "weights", "layer0.bin"))
			require.NoError(t, err)
			assert.Equal(t, files["weights/layer0.bin"], got)
		})
	}
}

func TestExtractFileDetectsFormatWithoutExtension(t *testing.T) {
	ctx, _ := testutil.Context()
	dest := acquire(t)

	src := testutil.BuildTarGz(t, map[string][]byte{"workflow.json": []byte(`{}`)})
	bare := filepath.Join(t.TempDir(), "package-no-extension")
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(bare, data, 0o644))

	require.NoError(t, archive.ExtractFile(ctx, bare, dest))
	_, err = os.Stat(filepath.Join(dest.Path(), "workflow.json"))
	assert.NoError(t, err)
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	ctx, _ := testutil.Context()
	dest := acquire(t)

	path := testutil.BuildTar(t, map[string][]byte{
		"../escape": []byte("pwned"),
	})

	err := archive.ExtractFile(ctx, path, dest)
	require.ErrorContains(t, err, "unsafe archive entry name")

	// Nothing may have landed outside the scratch root.
	_, statErr := os.Stat(filepath.Join(filepath.Dir(dest.Path()), "escape"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractRejectsAbsoluteEntry(t *testing.T) {
	ctx, _ := testutil.Context()
	dest := acquire(t)

	path := testutil.BuildTar(t, map[string][]byte{
		"/etc/flowpack-test": []byte("pwned"),
	})

	err := archive.ExtractFile(ctx, path, dest)
	assert.ErrorContains(t, err, "unsafe archive entry name")
}

func TestExtractRejectsSymlinks(t *testing.T) {
	ctx, _ := testutil.Context()
	dest := acquire(t)

	path := filepath.Join(t.TempDir(), "package.tar")
	f, err := os.Create(path)
	require.NoError(t, err)
	tw := tar.NewWriter(f)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "link",
		Typeflag: tar.TypeSymlink,
		Linkname: "/etc/passwd",
		Mode:     0o777,
	}))
	require.NoError(t, tw.Close())
	require.NoError(t, f.Close())

	err = archive.ExtractFile(ctx, path, dest)
	assert.ErrorContains(t, err, "unsupported archive entry")
	assert.ErrorContains(t, err, "symbolic link")
}

func TestExtractFailsOnMissingArchive(t *testing.T) {
	ctx, _ := testutil.Context()
	dest := acquire(t)

	err := archive.ExtractFile(ctx, filepath.Join(t.TempDir(), "nope.tar.gz"), dest)
	assert.ErrorContains(t, err, "failed to open archive")
}

func TestExtractFailsOnCorruptStream(t *testing.T) {
	ctx, _ := testutil.Context()
	dest := acquire(t)

	// A gzip magic number followed by garbage.
	path := filepath.Join(t.TempDir(), "corrupt.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte{0x1f, 0x8b, 0xff, 0xee, 0xdd}, 0o644))

	err := archive.ExtractFile(ctx, path, dest)
	assert.Error(t, err)
}
