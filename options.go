package uci

import "log/slog"

const (
	// DefaultConfDir is where config files live unless overridden.
	DefaultConfDir = "/etc/config"
	// DefaultSaveDir is where saved deltas live unless overridden.
	DefaultSaveDir = "/tmp/.uci"
)

// ContextOptions holds construction settings for a Context.
type ContextOptions struct {
	ConfDir string
	SaveDir string
	Logger  *slog.Logger
}

// ContextOption applies one construction setting.
type ContextOption func(*ContextOptions)

// WithConfDir overrides the config directory. The directory is created if missing.
func WithConfDir(dir string) ContextOption {
	return func(opts *ContextOptions) {
		opts.ConfDir = dir
	}
}

// WithSaveDir overrides the save directory. The directory is created if missing.
func WithSaveDir(dir string) ContextOption {
	return func(opts *ContextOptions) {
		opts.SaveDir = dir
	}
}

// WithLogger sets the logger used for load, commit and revert events.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(opts *ContextOptions) {
		opts.Logger = logger
	}
}
