package cli_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowpack/internal/cli"
)

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	config, exit, err := cli.Parse([]string{"pkg.tar.gz"}, out)

	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "pkg.tar.gz", config.ArchivePath)
	assert.Equal(t, "", config.TempDir)
	assert.Equal(t, "text", config.LogFormat)
	assert.Equal(t, "info", config.LogLevel)
}

func TestParse_AllFlags(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	args := []string{"-temp-dir", "/var/scratch", "-log-format", "JSON", "-log-level", "Debug", "pkg.zip"}
	config, exit, err := cli.Parse(args, out)

	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "pkg.zip", config.ArchivePath)
	assert.Equal(t, "/var/scratch", config.TempDir)
	assert.Equal(t, "json", config.LogFormat)
	assert.Equal(t, "debug", config.LogLevel)
}

func TestParse_NoArchivePrintsUsage(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	config, exit, err := cli.Parse(nil, out)

	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, config)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	config, exit, err := cli.Parse([]string{"-h"}, out)

	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, config)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{
			name:    "unknown flag",
			args:    []string{"--no-such-flag", "pkg.tar"},
			wantMsg: "flag provided but not defined",
		},
		{
			name:    "two positional arguments",
			args:    []string{"a.tar", "b.tar"},
			wantMsg: "exactly one ARCHIVE",
		},
		{
			name:    "bad log format",
			args:    []string{"-log-format", "xml", "pkg.tar"},
			wantMsg: "invalid log-format",
		},
		{
			name:    "bad log level",
			args:    []string{"-log-level", "loud", "pkg.tar"},
			wantMsg: "invalid log-level",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := &bytes.Buffer{}
			config, exit, err := cli.Parse(tc.args, out)

			require.Error(t, err)
			assert.Nil(t, config)
			assert.False(t, exit)

			var exitErr *cli.ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}
