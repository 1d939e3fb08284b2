// Package logging builds the slog.Logger shared by the uci command line tool
// and the ucid daemon. Output is JSON (one object per line) or logfmt-style
// text, at a level given by name.
package logging
