// Package toml provides a TOML config.Parser built on BurntSushi/toml.
//
// Path navigation decodes the document into toml.Primitive values and walks
// the colon-separated path one table at a time, so "services:ucid" decodes
// only the [services.ucid] table into the target.
package toml
