package listener

import "io/fs"

// Option defines a function type for configuring a listener.
type Option func(*Config)

// WithAddress sets the listen address: "host:port" or "unix:<path>".
func WithAddress(addr string) Option {
	return func(cfg *Config) {
		cfg.Address = addr
	}
}

// WithSocketMode sets the permission bits of a unix socket.
func WithSocketMode(mode fs.FileMode) Option {
	return func(cfg *Config) {
		cfg.SocketMode = mode
	}
}
