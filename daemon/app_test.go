package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/0xalexb/hjarta-uci/api"
	"github.com/0xalexb/hjarta-uci/config"
	"github.com/0xalexb/hjarta-uci/daemon"
	"github.com/0xalexb/hjarta-uci/listener/middleware"
	"github.com/0xalexb/hjarta-uci/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

// syncBuffer guards a bytes.Buffer shared with server goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p) //nolint:wrapcheck
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

type env struct {
	conf   string
	save   string
	socket string
}

func newEnv(t *testing.T) env {
	t.Helper()

	root := t.TempDir()

	dir, err := os.MkdirTemp("", "ucid")
	require.NoError(t, err)

	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	e := env{conf: filepath.Join(root, "config"), save: filepath.Join(root, "save"), socket: filepath.Join(dir, "ucid.sock")}
	require.NoError(t, os.MkdirAll(e.conf, 0o755))

	return e
}

func (e env) settings() config.Settings {
	return config.Settings{ConfDir: e.conf, SaveDir: e.save, Listen: "unix:" + e.socket}
}

func (e env) client() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var dialer net.Dialer

				return dialer.DialContext(ctx, "unix", e.socket)
			},
		},
	}
}

func (e env) call(t *testing.T, op, body string) (int, string) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, "http://ucid/uci/"+op, strings.NewReader(body))
	require.NoError(t, err)

	resp, err := e.client().Do(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(data)
}

func TestApp_ServesAndCommitsOnStop(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(e.conf, "system"), []byte("\nconfig system 'main'\n\toption hostname 'old'\n"), 0o600))

	var logs syncBuffer

	app := daemon.NewApp(daemon.WithSettings(e.settings()), daemon.WithLogOutput(&logs), daemon.WithLogLevel("DEBUG"))
	require.NoError(t, app.Start())

	status, body := e.call(t, "get", `{"path":"system.main.hostname"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `{"result":"old"}`, body)

	status, body = e.call(t, "set", `{"path":"system.main.hostname","value":"router"}`)
	require.Equal(t, http.StatusOK, status, body)

	status, body = e.call(t, "get", `{"path":"system.main.missing"}`)
	require.Equal(t, http.StatusNotFound, status)

	var failure middleware.ErrorBody

	require.NoError(t, json.Unmarshal([]byte(body), &failure))
	assert.Equal(t, "not_found", failure.Error.Kind)

	require.NoError(t, app.Stop())

	content, err := os.ReadFile(filepath.Join(e.conf, "system"))
	require.NoError(t, err)
	assert.Equal(t, "\nconfig system 'main'\n\toption hostname 'router'\n\n", string(content))

	assert.Contains(t, logs.String(), `"msg":"api request"`)
	assert.Contains(t, logs.String(), "committing pending changes before close")
}

func TestApp_SettingsFile(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	file := filepath.Join(t.TempDir(), "ucid.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
[ucid]
confdir = "`+e.conf+`"
savedir = "`+e.save+`"
listen = "unix:`+e.socket+`"

[ucid.log]
level = "error"
`), 0o600))

	var captured *config.Settings

	app := daemon.NewApp(
		daemon.WithSettingsFile(file, "ucid"),
		daemon.WithLogOutput(io.Discard),
		daemon.WithModules(fx.Invoke(func(s *config.Settings, cfg logging.LoggerConfig) {
			captured = s
			assert.Equal(t, "error", cfg.Level)
		})),
	)
	require.NoError(t, app.Start())
	t.Cleanup(func() { _ = app.Stop() })

	require.NotNil(t, captured)
	assert.Equal(t, e.conf, captured.ConfDir)
	assert.Equal(t, config.DefaultRequestTimeout, captured.RequestTimeout)

	status, body := e.call(t, "configs", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `{"result":[]}`, body)
}

func TestApp_ListenOverride(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	settings := e.settings()
	settings.Listen = "unix:" + filepath.Join(t.TempDir(), "unused.sock")

	var store *api.Store

	app := daemon.NewApp(
		daemon.WithSettings(settings),
		daemon.WithListen("unix:"+e.socket),
		daemon.WithLogOutput(io.Discard),
		daemon.WithModules(fx.Populate(&store)),
	)
	require.NoError(t, app.Start())
	t.Cleanup(func() { _ = app.Stop() })

	assert.NotNil(t, store)

	status, _ := e.call(t, "confdir", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestApp_InvalidSettings(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	app := daemon.NewApp(daemon.WithSettings(e.settings()), daemon.WithListen("nowhere"), daemon.WithLogOutput(io.Discard))

	require.Error(t, app.Err())
	require.Error(t, app.Start())
}

func TestApp_NilApp(t *testing.T) {
	t.Parallel()

	var app *daemon.App

	require.Error(t, app.Start())
	require.Error(t, app.Stop())
	require.Error(t, app.Err())
	require.NotPanics(t, app.Run)
}

func TestApp_Run(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	app := daemon.NewApp(
		daemon.WithSettings(e.settings()),
		daemon.WithLogOutput(io.Discard),
		daemon.WithModules(fx.Invoke(func(shutdowner fx.Shutdowner) {
			go func() {
				_ = shutdowner.Shutdown()
			}()
		})),
	)

	require.NotPanics(t, app.Run)
}
