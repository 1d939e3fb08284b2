// Package config loads the settings shared by the uci tool and the ucid daemon.
//
// Loading goes through four small interfaces:
//   - DataFetcher returns raw bytes (see config/fetcher/file)
//   - Parser decodes them into a struct (see config/parser/yaml and config/parser/toml)
//   - Defaulter fills in what the document left out
//   - Validator rejects the result if it is unusable
//
// Provider chains them and is shaped to be handed to fx.Provide directly.
//
// # Path Navigation
//
// Parsers accept a colon-separated path selecting a nested table:
//
//	"ucid"            -> document["ucid"]
//	"services:ucid"   -> document["services"]["ucid"]
//	""                -> entire document
//
// # Settings
//
// Settings is the struct both binaries read. LoadSettings picks the parser
// from the file extension (.toml or YAML otherwise), tolerates a missing
// file, and the UCI_CONFDIR and UCI_SAVEDIR environment variables override
// the directories through ApplyEnv.
package config
