package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	uci "github.com/0xalexb/hjarta-uci"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	conf string
	save string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	env := &testEnv{conf: filepath.Join(root, "config"), save: filepath.Join(root, "save")}

	require.NoError(t, os.MkdirAll(env.conf, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.conf, "network"), []byte(`
config interface 'lan'
	option proto 'dhcp'
	list dns '1.1.1.1'

config interface 'wan'
	option proto 'pppoe'
`), 0o600))

	return env
}

// run executes one uci invocation against env and returns its stdout.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	root := newRootCmd(strings.NewReader(stdin), &stdout, &stderr)
	root.SetArgs(append([]string{"-c", e.conf, "-P", e.save}, args...))

	err := root.Execute()

	return stdout.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()

	out, err := e.run(t, "", args...)
	require.NoError(t, err)

	return out
}

func (e *testEnv) file(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(e.conf, name))
	require.NoError(t, err)

	return string(data)
}

func TestGet(t *testing.T) {
	t.Parallel()

	env := setupTestEnv(t)

	assert.Equal(t, "dhcp\n", env.mustRun(t, "get", "network.lan.proto"))
	assert.Equal(t, "interface\n", env.mustRun(t, "get", "network.@interface[1]"))
	assert.Equal(t, "1.1.1.1\n", env.mustRun(t, "get", "network.lan.dns"))

	_, err := env.run(t, "", "get", "network.lan.mtu")
	require.ErrorIs(t, err, uci.ErrNotFound)
	assert.Equal(t, exitFailure, exitCode(err))

	_, err = env.run(t, "", "get", "network")
	require.ErrorIs(t, err, errUsage)
}

func TestSetChangesCommit(t *testing.T) {
	t.Parallel()

	env := setupTestEnv(t)

	env.mustRun(t, "set", "network.lan.proto=static")
	env.mustRun(t, "set", "network.lan.ipaddr=192.168.1.1")
	env.mustRun(t, "set", "network.guest=interface")

	assert.Equal(t, "static\n", env.mustRun(t, "get", "network.lan.proto"), "staged changes are visible to later invocations")
	assert.Contains(t, env.file(t, "network"), "option proto 'dhcp'", "config untouched before commit")

	assert.Equal(t,
		"network.lan.proto='static'\nnetwork.lan.ipaddr='192.168.1.1'\nnetwork.guest='interface'\n",
		env.mustRun(t, "changes"))

	env.mustRun(t, "commit")

	assert.Empty(t, env.mustRun(t, "changes"))
	assert.Equal(t,
		"\nconfig interface 'lan'\n\toption proto 'static'\n\tlist dns '1.1.1.1'\n\toption ipaddr '192.168.1.1'\n"+
			"\nconfig interface 'wan'\n\toption proto 'pppoe'\n"+
			"\nconfig interface 'guest'\n\n",
		env.file(t, "network"))
}

func TestSet_NewConfigAndCommitByName(t *testing.T) {
	t.Parallel()

	env := setupTestEnv(t)

	env.mustRun(t, "set", "system.main=system")
	env.mustRun(t, "set", "system.main.hostname=router")

	env.mustRun(t, "commit", "system")

	assert.Equal(t, "\nconfig system 'main'\n\toption hostname 'router'\n\n", env.file(t, "system"))
	assert.Equal(t, "network\nsystem\n", env.mustRun(t, "configs"))
}

func TestListOps(t *testing.T) {
	t.Parallel()

	env := setupTestEnv(t)

	env.mustRun(t, "add_list", "network.lan.dns=8.8.8.8")
	env.mustRun(t, "add_list", "network.lan.dns=9.9.9.9")
	env.mustRun(t, "del_list", "network.lan.dns=1.1.1.1")
	assert.Equal(t, "8.8.8.8 9.9.9.9\n", env.mustRun(t, "get", "network.lan.dns"))

	env.mustRun(t, "delete", "network.lan.dns=8.8.8.8")
	assert.Equal(t, "network.lan.dns='9.9.9.9'\n", env.mustRun(t, "show", "network.lan.dns"))
}

func TestDeleteRenameReorder(t *testing.T) {
	t.Parallel()

	env := setupTestEnv(t)

	env.mustRun(t, "delete", "network.wan.proto")
	env.mustRun(t, "rename", "network.wan=uplink")
	env.mustRun(t, "reorder", "network.uplink=0")

	assert.Equal(t, "network.uplink=interface\nnetwork.lan=interface\nnetwork.lan.proto='dhcp'\nnetwork.lan.dns='1.1.1.1'\n",
		env.mustRun(t, "show", "network"))

	_, err := env.run(t, "", "reorder", "network.lan=first")
	require.ErrorIs(t, err, errUsage)
	assert.Equal(t, exitUsage, exitCode(err))

	_, err = env.run(t, "", "rename", "network.lan")
	require.ErrorIs(t, err, errUsage)
}

func TestAdd(t *testing.T) {
	t.Parallel()

	env := setupTestEnv(t)

	id := strings.TrimSpace(env.mustRun(t, "add", "network", "route"))
	assert.True(t, strings.HasPrefix(id, "cfg"), id)

	env.mustRun(t, "set", "network.@route[0].target=10.0.0.0/8")
	assert.Equal(t, "network.@route[0]=route\nnetwork.@route[0].target='10.0.0.0/8'\n", env.mustRun(t, "show", "network.@route[0]"))

	_, err := env.run(t, "", "add", "network", "bad type")
	require.ErrorIs(t, err, uci.ErrInvalidArgument)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestRevert(t *testing.T) {
	t.Parallel()

	env := setupTestEnv(t)

	env.mustRun(t, "set", "network.lan.proto=static")
	env.mustRun(t, "set", "network.wan.mtu=1492")

	env.mustRun(t, "revert", "network.wan")
	assert.Equal(t, "network.lan.proto='static'\n", env.mustRun(t, "changes", "network"))

	env.mustRun(t, "revert", "network")
	assert.Empty(t, env.mustRun(t, "changes"))
	assert.Equal(t, "dhcp\n", env.mustRun(t, "get", "network.lan.proto"))
}

func TestShowAll(t *testing.T) {
	t.Parallel()

	env := setupTestEnv(t)

	env.mustRun(t, "set", "extra.x=thing")

	out := env.mustRun(t, "show")
	assert.True(t, strings.HasPrefix(out, "extra.x=thing\nnetwork.lan=interface\n"), out)
}

func TestExport(t *testing.T) {
	t.Parallel()

	env := setupTestEnv(t)

	out := env.mustRun(t, "export", "network")
	assert.True(t, strings.HasPrefix(out, "package network\n\nconfig interface 'lan'\n"), out)

	out = env.mustRun(t, "export", "--format", "yaml", "network")
	assert.Contains(t, out, "network:")
	assert.Contains(t, out, "name: lan")
	assert.Contains(t, out, "proto: dhcp")
	assert.Less(t, strings.Index(out, "name: lan"), strings.Index(out, "name: wan"))

	out = env.mustRun(t, "export", "-f", "json")

	var doc map[string][]struct {
		Name    string         `json:"name"`
		Type    string         `json:"type"`
		Options map[string]any `json:"options"`
	}

	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc["network"], 2)
	assert.Equal(t, "lan", doc["network"][0].Name)
	assert.Equal(t, []any{"1.1.1.1"}, doc["network"][0].Options["dns"])

	_, err := env.run(t, "", "export", "--format", "xml")
	require.ErrorIs(t, err, errUsage)
}

func TestBatch(t *testing.T) {
	t.Parallel()

	env := setupTestEnv(t)

	script := `
# provision
set network.lan.proto=static
set network.lan.description='LAN port, "inside"'
add_list network.lan.dns=8.8.8.8
commit network
`

	_, err := env.run(t, script, "batch")
	require.NoError(t, err)

	assert.Equal(t, `LAN port, "inside"`+"\n", env.mustRun(t, "get", "network.lan.description"))
	assert.Contains(t, env.file(t, "network"), "\tlist dns '8.8.8.8'\n")
	assert.Empty(t, env.mustRun(t, "changes"))
}

func TestBatch_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		script string
		line   string
		usage  bool
	}{
		{name: "unknown command", script: "set network.lan.proto=x\nfrobnicate\n", line: "line 2", usage: true},
		{name: "wrong arg count", script: "get\n", line: "line 1", usage: true},
		{name: "unbalanced quote", script: "\nset network.lan.proto='x\n", line: "line 2", usage: true},
		{name: "missing entry", script: "get network.nothere.proto\n", line: "line 1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env := setupTestEnv(t)

			_, err := env.run(t, tc.script, "batch")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.line)
			assert.Equal(t, tc.usage, errors.Is(err, errUsage))
		})
	}
}

func TestSettingsFile(t *testing.T) {
	t.Parallel()

	env := setupTestEnv(t)

	settings := filepath.Join(t.TempDir(), "uci.toml")
	require.NoError(t, os.WriteFile(settings, []byte(`confdir = "`+env.conf+`"
savedir = "`+env.save+`"

[log]
level = "error"
format = "text"
`), 0o600))

	var stdout, stderr bytes.Buffer

	root := newRootCmd(strings.NewReader(""), &stdout, &stderr)
	root.SetArgs([]string{"--settings", settings, "get", "network.wan.proto"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "pppoe\n", stdout.String())
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitUsage, exitCode(errUsage))
	assert.Equal(t, exitUsage, exitCode(&uci.Error{Kind: uci.KindUnsupportedType}))
	assert.Equal(t, exitFailure, exitCode(&uci.Error{Kind: uci.KindStorage}))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
}
