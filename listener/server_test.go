package listener

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) string {
	t.Helper()

	listenCfg := net.ListenConfig{}

	ln, err := listenCfg.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	defer func() { _ = ln.Close() }()

	return ln.Addr().String()
}

// socketPath returns a short socket path; t.TempDir can exceed the sun_path limit.
func socketPath(t *testing.T) string {
	t.Helper()

	dir, err := os.MkdirTemp("", "ucid")
	require.NoError(t, err)

	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	return filepath.Join(dir, "ucid.sock")
}

func unixClient(path string) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var dialer net.Dialer

				return dialer.DialContext(ctx, "unix", path)
			},
		},
		Timeout: 5 * time.Second,
	}
}

func get(t *testing.T, client *http.Client, url string) (int, string) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)

	resp, err := client.Do(req) //nolint:gosec // test code, URL from test server
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

var helloHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)

	_, _ = fmt.Fprint(w, "hello")
})

func TestNewServer_SetsDefaults(t *testing.T) {
	t.Parallel()

	srv, err := NewServer("ucid", helloHandler, Config{}, nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultAddress, srv.config.Address)
	assert.Equal(t, "unix", srv.network)
	assert.Equal(t, "/var/run/ucid.sock", srv.address)
	assert.Nil(t, srv.Addr())
}

func TestNewServer_Errors(t *testing.T) {
	t.Parallel()

	srv, err := NewServer("ucid", nil, Config{}, nil)
	require.ErrorIs(t, err, ErrNilHandler)
	assert.Nil(t, srv)

	srv, err = NewServer("", helloHandler, Config{}, nil)
	require.ErrorIs(t, err, ErrEmptyName)
	assert.Nil(t, srv)

	srv, err = NewServer("ucid", helloHandler, Config{Address: "unix:"}, nil)
	require.ErrorIs(t, err, ErrEmptyAddress)
	assert.Nil(t, srv)
}

func TestServer_StartStopTCP(t *testing.T) {
	t.Parallel()

	addr := freePort(t)

	srv, err := NewServer("ucid", helloHandler, Config{Address: addr}, nil)
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	assert.Equal(t, addr, srv.Addr().String())

	status, body := get(t, http.DefaultClient, "http://"+addr)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "hello", body)

	require.NoError(t, srv.Stop(context.Background()))

	dialer := net.Dialer{Timeout: 100 * time.Millisecond}

	conn, dialErr := dialer.DialContext(context.Background(), "tcp", addr)
	if dialErr == nil {
		_ = conn.Close()
	}

	assert.Error(t, dialErr, "should not be able to connect after stop")
}

func TestServer_StartStopUnix(t *testing.T) {
	t.Parallel()

	path := socketPath(t)

	srv, err := NewServer("ucid", helloHandler, Config{Address: "unix:" + path, SocketMode: 0o600}, nil)
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	status, body := get(t, unixClient(path), "http://ucid/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "hello", body)

	require.NoError(t, srv.Stop(context.Background()))
	assert.NoFileExists(t, path, "the socket is unlinked on shutdown")
}

func TestServer_StartRemovesStaleSocket(t *testing.T) {
	t.Parallel()

	path := socketPath(t)

	stale, err := net.Listen("unix", path)
	require.NoError(t, err)

	// Keep the file behind, as a crashed daemon would.
	stale.(*net.UnixListener).SetUnlinkOnClose(false) //nolint:forcetypeassert
	require.NoError(t, stale.Close())
	require.FileExists(t, path)

	srv, err := NewServer("ucid", helloHandler, Config{Address: "unix:" + path}, nil)
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))

	status, _ := get(t, unixClient(path), "http://ucid/")
	assert.Equal(t, http.StatusOK, status)

	require.NoError(t, srv.Stop(context.Background()))
}

func TestServer_StartRefusesRegularFile(t *testing.T) {
	t.Parallel()

	path := socketPath(t)
	require.NoError(t, os.WriteFile(path, []byte("not a socket"), 0o600))

	srv, err := NewServer("ucid", helloHandler, Config{Address: "unix:" + path}, nil)
	require.NoError(t, err)

	err = srv.Start(context.Background())
	require.ErrorIs(t, err, ErrListenFailed)
	assert.FileExists(t, path)
}

func TestServer_StartFailure(t *testing.T) {
	t.Parallel()

	listenCfg := net.ListenConfig{}

	ln, err := listenCfg.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	defer func() { _ = ln.Close() }()

	srv, err := NewServer("ucid", helloHandler, Config{Address: ln.Addr().String()}, nil)
	require.NoError(t, err)

	err = srv.Start(context.Background())
	require.ErrorIs(t, err, ErrListenFailed, "should fail when port is already in use")
}

func TestServer_ServeErrorCallsOnServeErr(t *testing.T) {
	t.Parallel()

	var called atomic.Bool

	srv, err := NewServer("ucid", helloHandler, Config{Address: freePort(t)}, func() {
		called.Store(true)
	})
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))

	// Closing the listener behind http.Server's back makes Serve fail with
	// something other than ErrServerClosed.
	_ = srv.listener.Close()

	assert.Eventually(t, called.Load, time.Second, 10*time.Millisecond)
}

func TestServer_StopWithCancelledContext(t *testing.T) {
	t.Parallel()

	addr := freePort(t)
	received := make(chan struct{})

	handler := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		close(received)
		<-r.Context().Done()
	})

	srv, err := NewServer("ucid", handler, Config{Address: addr}, nil)
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer reqCancel()

	go func() {
		req, reqErr := http.NewRequestWithContext(reqCtx, http.MethodGet, "http://"+addr, nil)
		if reqErr != nil {
			return
		}

		resp, doErr := http.DefaultClient.Do(req) //nolint:gosec // test code, URL from test server
		if doErr == nil {
			_ = resp.Body.Close()
		}
	}()

	<-received

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = srv.Stop(ctx)
	require.ErrorIs(t, err, ErrShutdownFailed)
}
