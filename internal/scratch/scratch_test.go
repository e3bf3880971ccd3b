package scratch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()

	t.Run("creates a directory under base", func(t *testing.T) {
		base := t.TempDir()
		d, err := Acquire(ctx, base, clock)
		require.NoError(t, err)

		info, err := os.Stat(d.Path())
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, base, filepath.Dir(d.Path()))
	})

	t.Run("two acquisitions never collide", func(t *testing.T) {
		base := t.TempDir()
		a, err := Acquire(ctx, base, clock)
		require.NoError(t, err)
		b, err := Acquire(ctx, base, clock)
		require.NoError(t, err)
		assert.NotEqual(t, a.Path(), b.Path())
	})

	t.Run("missing base propagates the error", func(t *testing.T) {
		_, err := Acquire(ctx, filepath.Join(t.TempDir(), "does", "not", "exist"), clock)
		assert.ErrorContains(t, err, "failed to create scratch directory")
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	d, err := Acquire(ctx, t.TempDir(), clockwork.NewRealClock())
	require.NoError(t, err)
	t.Cleanup(func() { d.Release(ctx) })

	t.Run("plain names resolve inside the root", func(t *testing.T) {
		got, err := d.Resolve("w.bin")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(d.Path(), "w.bin"), got)
	})

	t.Run("nested names resolve inside the root", func(t *testing.T) {
		got, err := d.Resolve("weights/layer0.bin")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(d.Path(), "weights", "layer0.bin"), got)
	})

	t.Run("rejections", func(t *testing.T) {
		for _, name := range []string{
			"",
			"../escape",
			"a/../../escape",
			"../../etc/passwd",
		} {
			_, err := d.Resolve(name)
			assert.Error(t, err, "name %q", name)
		}

		abs := filepath.Join(string(filepath.Separator), "etc", "passwd")
		_, err := d.Resolve(abs)
		assert.ErrorContains(t, err, "absolute path")
	})

	t.Run("dot-dot that cleans away is accepted", func(t *testing.T) {
		// "a/../b" cleans to "b"; only surviving ".." segments are fatal.
		got, err := d.Resolve("a/../b")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(d.Path(), "b"), got)
	})
}

func TestRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the subtree", func(t *testing.T) {
		d, err := Acquire(ctx, t.TempDir(), clockwork.NewRealClock())
		require.NoError(t, err)

		path, err := d.Resolve("leftover.bin")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o600))

		d.Release(ctx)
		_, err = os.Stat(d.Path())
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("is idempotent", func(t *testing.T) {
		d, err := Acquire(ctx, t.TempDir(), clockwork.NewRealClock())
		require.NoError(t, err)
		d.Release(ctx)
		d.Release(ctx)
	})
}
