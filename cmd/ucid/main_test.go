package main

import (
	"bytes"
	"testing"

	"github.com/0xalexb/hjarta-uci/daemon"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_PassesFlags(t *testing.T) {
	t.Parallel()

	var got daemon.Options

	cmd := newRootCmd(func(opts ...daemon.Option) error {
		for _, apply := range opts {
			apply(&got)
		}

		return nil
	})
	cmd.SetArgs([]string{"--settings", "/etc/ucid.toml", "--section", "ucid", "--listen", "127.0.0.1:9000", "--log-level", "debug"})

	require.NoError(t, cmd.Execute())

	assert.Equal(t, "/etc/ucid.toml", got.SettingsFile)
	assert.Equal(t, "ucid", got.SettingsPath)
	assert.Equal(t, "127.0.0.1:9000", got.Listen)
	assert.Equal(t, "debug", got.LogLevel)
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd(func(...daemon.Option) error { return nil })
	cmd.SetArgs([]string{"extra"})
	cmd.SetErr(&bytes.Buffer{})

	require.Error(t, cmd.Execute())
}

func TestRootCmd_Version(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	cmd := newRootCmd(func(...daemon.Option) error {
		t.Fatal("daemon must not start for --version")

		return nil
	})
	cmd.SetArgs([]string{"--version"})
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "ucid version dev")
}
