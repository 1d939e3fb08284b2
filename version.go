package uci

//nolint:gochecknoglobals // set via ldflags at build time.
var (
	// Version is the release of the engine and its tools, set via ldflags.
	Version = "dev"
	// Commit is the source revision the binaries were built from, set via ldflags.
	Commit = "none"
	// CompiledAt is the build timestamp, set via ldflags.
	CompiledAt = "unknown"
)
