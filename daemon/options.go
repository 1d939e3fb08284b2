package daemon

import (
	"io"

	"github.com/0xalexb/hjarta-uci/config"

	"go.uber.org/fx"
)

// Options holds configuration settings for the daemon.
type Options struct {
	Modules []fx.Option
	// SettingsFile is read for the settings unless Settings is set. A missing
	// file leaves everything at its default.
	SettingsFile string
	// SettingsPath selects a nested section of the settings file, "a:b" style.
	SettingsPath string
	Settings     *config.Settings
	LogLevel     string
	LogOutput    io.Writer
	Listen       string
}

// Option defines a function type for applying configuration options.
type Option func(*Options)

// WithModules adds Fx modules to the application.
func WithModules(modules ...fx.Option) Option {
	return func(opts *Options) {
		opts.Modules = append(opts.Modules, modules...)
	}
}

// WithSettingsFile reads settings from file, optionally from the section at path.
func WithSettingsFile(file, path string) Option {
	return func(opts *Options) {
		opts.SettingsFile = file
		opts.SettingsPath = path
	}
}

// WithSettings uses settings instead of reading a file. Empty fields get defaults.
func WithSettings(settings config.Settings) Option {
	return func(opts *Options) {
		opts.Settings = &settings
	}
}

// WithLogLevel overrides the log level from the settings.
func WithLogLevel(level string) Option {
	return func(opts *Options) {
		opts.LogLevel = level
	}
}

// WithLogOutput sends logs to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(opts *Options) {
		opts.LogOutput = w
	}
}

// WithListen overrides the listen address from the settings.
func WithListen(address string) Option {
	return func(opts *Options) {
		opts.Listen = address
	}
}
