// Package listener serves an http.Handler on a TCP address or a unix socket
// as an fx module.
package listener

import (
	"errors"
	"io/fs"
	"strings"
)

// DefaultAddress is the address used when none is configured.
const DefaultAddress = "unix:/var/run/ucid.sock"

// DefaultSocketMode is the permission applied to a unix socket after it is created.
const DefaultSocketMode fs.FileMode = 0o660

const unixPrefix = "unix:"

var (
	// ErrEmptyAddress is returned when the address is empty.
	ErrEmptyAddress = errors.New("address must not be empty")
	// ErrListenFailed is returned when the server fails to listen on the configured address.
	ErrListenFailed = errors.New("failed to listen")
	// ErrShutdownFailed is returned when the server fails to shut down gracefully.
	ErrShutdownFailed = errors.New("shutdown failed")
	// ErrEmptyName is returned when the listener name is empty.
	ErrEmptyName = errors.New("listener name must not be empty")
	// ErrNilHandler is returned when a nil http.Handler is provided.
	ErrNilHandler = errors.New("handler must not be nil")
)

// Config holds the configuration for a listener.
type Config struct {
	// Address is "host:port" for TCP or "unix:<path>" for a unix socket.
	Address    string
	SocketMode fs.FileMode
}

// SetDefaults sets default values for the Config.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = DefaultAddress
	}

	if c.SocketMode == 0 {
		c.SocketMode = DefaultSocketMode
	}
}

// Validate validates the Config.
func (c *Config) Validate() error {
	if _, addr := c.Endpoint(); addr == "" {
		return ErrEmptyAddress
	}

	return nil
}

// Endpoint splits Address into the network and address for net.Listen.
func (c *Config) Endpoint() (network, address string) {
	if path, ok := strings.CutPrefix(c.Address, unixPrefix); ok {
		return "unix", path
	}

	return "tcp", c.Address
}
