// Package middleware holds the http.Handler wrappers the ucid API runs
// behind: request ids, access logging, panic recovery, body size limits and
// request deadlines. Failures they produce are written in the same JSON error
// envelope the API uses.
package middleware
