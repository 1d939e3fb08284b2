// Package api exposes a uci.Context over HTTP.
//
// Every operation is a POST to /uci/{op} carrying a JSON request:
//
//	{"path": "network.lan.proto", "value": "static"}
//	{"path": ["network", "@interface[0]"], "name": "lan"}
//
// Successful calls answer {"result": ...}. Failures answer
// {"error": {"kind": ..., "message": ...}} with the kind of the underlying
// uci.Error and a matching HTTP status. Requests are served one at a time
// against a single Context held by a Store.
package api
