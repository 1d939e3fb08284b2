package listener

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"
)

// ReadHeaderTimeout is the default timeout for reading request headers.
const ReadHeaderTimeout = 10 * time.Second

// Server manages an HTTP server lifecycle.
type Server struct {
	name       string
	config     Config
	network    string
	address    string
	server     *http.Server
	listener   net.Listener
	onServeErr func()
}

// NewServer creates a Server for handler. It applies config defaults and
// validates the config. onServeErr, if non-nil, is called when the background
// Serve goroutine fails.
func NewServer(name string, handler http.Handler, cfg Config, onServeErr func()) (*Server, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	if handler == nil {
		return nil, ErrNilHandler
	}

	cfg.SetDefaults()

	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	network, address := cfg.Endpoint()

	return &Server{
		name:    name,
		config:  cfg,
		network: network,
		address: address,
		server: &http.Server{ //nolint:exhaustruct // only relevant fields needed
			Handler:           handler,
			ReadHeaderTimeout: ReadHeaderTimeout,
		},
		listener:   nil,
		onServeErr: onServeErr,
	}, nil
}

// Start listens and serves requests in a background goroutine. A stale unix
// socket left by a previous run is removed first.
func (s *Server) Start(ctx context.Context) error {
	if s.network == "unix" {
		if err := removeStaleSocket(s.address); err != nil {
			return fmt.Errorf("%w: %w", ErrListenFailed, err)
		}
	}

	listenCfg := net.ListenConfig{} //nolint:exhaustruct // zero-value defaults are fine

	listener, err := listenCfg.Listen(ctx, s.network, s.address)
	if err != nil {
		slog.Error("failed to listen",
			slog.String("name", s.name), slog.String("address", s.config.Address), slog.Any("error", err))

		return fmt.Errorf("%w: %w", ErrListenFailed, err)
	}

	if s.network == "unix" {
		if err := os.Chmod(s.address, s.config.SocketMode); err != nil {
			_ = listener.Close()

			return fmt.Errorf("%w: %w", ErrListenFailed, err)
		}
	}

	s.listener = listener

	slog.Info("starting listener", slog.String("name", s.name), slog.String("address", s.config.Address))

	go func() {
		serveErr := s.server.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("listener error", slog.String("name", s.name), slog.Any("error", serveErr))

			if s.onServeErr != nil {
				s.onServeErr()
			}
		}
	}()

	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	slog.Info("stopping listener", slog.String("name", s.name))

	err := s.server.Shutdown(ctx)
	if err != nil {
		slog.Error("shutdown failed", slog.String("name", s.name), slog.Any("error", err))

		return fmt.Errorf("%w: %w", ErrShutdownFailed, err)
	}

	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

func removeStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("stat socket %q: %w", path, err)
	}

	if info.Mode().Type() != fs.ModeSocket {
		return fmt.Errorf("%q exists and is not a socket", path)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing stale socket %q: %w", path, err)
	}

	slog.Debug("removed stale socket", slog.String("path", path))

	return nil
}
