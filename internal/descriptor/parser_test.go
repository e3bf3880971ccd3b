package descriptor_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowpack/internal/descriptor"
	"github.com/vk/flowpack/internal/dtype"
	"github.com/vk/flowpack/internal/model"
	"github.com/vk/flowpack/internal/scratch"
	"github.com/vk/flowpack/internal/testutil"
)

// write places a descriptor document into a fresh scratch dir and returns it.
func write(t *testing.T, doc string) *scratch.Dir {
	t.Helper()
	ctx, _ := testutil.Context()
	dir, err := scratch.Acquire(ctx, t.TempDir(), clockwork.NewRealClock())
	require.NoError(t, err)
	t.Cleanup(func() { dir.Release(ctx) })
	require.NoError(t, os.WriteFile(filepath.Join(dir.Path(), descriptor.MainFile), []byte(doc), 0o644))
	return dir
}

func parse(t *testing.T, doc string) (*model.Descriptor, error) {
	t.Helper()
	ctx, _ := testutil.Context()
	return descriptor.Parse(ctx, write(t, doc))
}

func TestParseFullDescriptor(t *testing.T) {
	desc, err := parse(t, `{
		"name": "mnist",
		"workflow_version": "2.1",
		"units": [
			{
				"id": "a",
				"type": "source",
				"properties": {
					"data": {"path": "w.bin", "dtype": "f32", "shape": [2, 2]},
					"label": "weights",
					"scaled": true,
					"offsets": [1, 2, 3]
				}
			},
			{"id": "b", "type": "sink", "links": ["a"]}
		]
	}`)
	require.NoError(t, err)

	assert.Equal(t, "mnist", desc.Name)
	assert.Equal(t, "2.1", desc.Version)
	require.Len(t, desc.Units, 2)

	a := desc.Units[0]
	assert.Equal(t, "a", a.ID)
	assert.Equal(t, "source", a.TypeName)
	assert.Empty(t, a.Links)

	require.Contains(t, a.Blobs, "data")
	ref := a.Blobs["data"]
	assert.Equal(t, "w.bin", ref.Path)
	assert.Equal(t, dtype.F32, ref.DType)
	assert.Equal(t, []int{2, 2}, ref.Shape)
	size, ok := ref.ByteSize()
	require.True(t, ok)
	assert.Equal(t, int64(16), size)

	assert.True(t, a.Properties["label"].RawEquals(cty.StringVal("weights")))
	assert.True(t, a.Properties["scaled"].RawEquals(cty.True))
	require.Contains(t, a.Properties, "offsets")
	assert.Equal(t, 3, a.Properties["offsets"].LengthInt())

	b := desc.Units[1]
	assert.Equal(t, "sink", b.TypeName)
	assert.Equal(t, []string{"a"}, b.Links)
}

func TestParsePreservesDeclaredUnitOrder(t *testing.T) {
	desc, err := parse(t, `{"units": [
		{"id": "z", "type": "t"},
		{"id": "m", "type": "t"},
		{"id": "a", "type": "t"}
	]}`)
	require.NoError(t, err)

	var ids []string
	for _, u := range desc.Units {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []string{"z", "m", "a"}, ids)
}

func TestParseEmptyUnits(t *testing.T) {
	desc, err := parse(t, `{"units": []}`)
	require.NoError(t, err)
	assert.Empty(t, desc.Units)
}

func TestParseUnknownKeys(t *testing.T) {
	t.Run("root-level keys are ignored with a warning", func(t *testing.T) {
		ctx, buf := testutil.Context()
		desc, err := descriptor.Parse(ctx, write(t, `{"units": [], "vendor": "acme"}`))
		require.NoError(t, err)
		assert.Empty(t, desc.Units)
		assert.Contains(t, buf.String(), "unknown top-level descriptor key")
	})

	t.Run("escaped interpolation yields a literal dollar-brace", func(t *testing.T) {
		desc, err := parse(t, `{"units": [{"id": "u", "type": "echo", "properties": {"msg": "cost: $${amount}"}}]}`)
		require.NoError(t, err)
		require.Len(t, desc.Units, 1)
		assert.True(t, desc.Units[0].Properties["msg"].RawEquals(cty.StringVal("cost: ${amount}")))
	})

	t.Run("unit-level keys become properties", func(t *testing.T) {
		desc, err := parse(t, `{"units": [{"id": "u", "type": "echo", "note": "hi"}]}`)
		require.NoError(t, err)
		require.Len(t, desc.Units, 1)
		assert.True(t, desc.Units[0].Properties["note"].RawEquals(cty.StringVal("hi")))
	})
}

func TestParseMissingDescriptor(t *testing.T) {
	ctx, _ := testutil.Context()
	dir, err := scratch.Acquire(ctx, t.TempDir(), clockwork.NewRealClock())
	require.NoError(t, err)
	t.Cleanup(func() { dir.Release(ctx) })

	_, err = descriptor.Parse(ctx, dir)
	assert.ErrorIs(t, err, descriptor.ErrMissing)
}

func TestParseSchemaViolations(t *testing.T) {
	cases := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"not json", `units = []`, "failed to parse"},
		{"unescaped interpolation", `{"units": [{"id": "u", "type": "echo", "properties": {"msg": "${name}"}}]}`, "failed to evaluate"},
		{"no units key", `{"name": "x"}`, `no "units" sequence`},
		{"units not a sequence", `{"units": "nope"}`, "must be a sequence"},
		{"unit not an object", `{"units": ["nope"]}`, "must be an object"},
		{"unit missing id", `{"units": [{"type": "echo"}]}`, `missing required key "id"`},
		{"unit missing type", `{"units": [{"id": "u"}]}`, `missing required key "type"`},
		{"empty id", `{"units": [{"id": "", "type": "echo"}]}`, "non-empty string"},
		{"duplicate id", `{"units": [{"id": "u", "type": "a"}, {"id": "u", "type": "b"}]}`, "duplicate unit id"},
		{"links not strings", `{"units": [{"id": "u", "type": "t", "links": [1]}]}`, "sequence of strings"},
		{"mixed sequence", `{"units": [{"id": "u", "type": "t", "properties": {"xs": [1, "two"]}}]}`, "not homogeneous"},
		{"nested sequence", `{"units": [{"id": "u", "type": "t", "properties": {"xs": [[1]]}}]}`, "must be primitive"},
		{"partial blob triple", `{"units": [{"id": "u", "type": "t", "properties": {"w": {"path": "w.bin", "dtype": "f32"}}}]}`, "not a complete blob reference"},
		{"blob ref extra key", `{"units": [{"id": "u", "type": "t", "properties": {"w": {"path": "w.bin", "dtype": "f32", "shape": [1], "x": 1}}}]}`, "unexpected blob reference key"},
		{"blob bad dtype", `{"units": [{"id": "u", "type": "t", "properties": {"w": {"path": "w.bin", "dtype": "f128", "shape": [1]}}}]}`, "unknown element type"},
		{"blob empty shape", `{"units": [{"id": "u", "type": "t", "properties": {"w": {"path": "w.bin", "dtype": "f32", "shape": []}}}]}`, "must not be empty"},
		{"blob fractional shape", `{"units": [{"id": "u", "type": "t", "properties": {"w": {"path": "w.bin", "dtype": "f32", "shape": [1.5]}}}]}`, "must be integers"},
		{"blob path with separator", `{"units": [{"id": "u", "type": "t", "properties": {"w": {"path": "a/b.bin", "dtype": "f32", "shape": [1]}}}]}`, "directory separators"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parse(t, tc.doc)
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
			assert.NotErrorIs(t, err, descriptor.ErrMissing)
		})
	}
}
