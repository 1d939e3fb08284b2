package config

import (
	"fmt"
	"log/slog"
)

// Parser decodes configuration data into target.
//
// The path selects a nested table using colon (:) as the separator, for
// example "services:ucid". An empty path decodes the entire document.
type Parser interface {
	Parse(data []byte, target any, path string) error
}

// DataFetcher reads raw configuration data.
type DataFetcher interface {
	Fetch() ([]byte, error)
}

// Validator is implemented by configuration structures that can check themselves.
type Validator interface {
	Validate() error
}

// Defaulter is implemented by configuration structures with default values.
type Defaulter interface {
	SetDefaults() (changed bool)
}

// Provider returns a function that fetches, parses, defaults and validates
// configuration data into target. Empty data skips parsing, so a fetcher for
// an optional file yields a target built from defaults alone.
func Provider[T any](target *T, path string) func(Parser, DataFetcher) (*T, error) {
	return func(parser Parser, fetcher DataFetcher) (*T, error) {
		data, err := fetcher.Fetch()
		if err != nil {
			return nil, fmt.Errorf("reading data error: %w", err)
		}

		if len(data) > 0 {
			err = parser.Parse(data, target, path)
			if err != nil {
				return nil, fmt.Errorf("parsing error: %w", err)
			}
		} else {
			slog.Debug("no configuration data, using defaults", slog.String("path", path))
		}

		targetDefaulter, isDefaulter := any(target).(Defaulter)
		if isDefaulter {
			changed := targetDefaulter.SetDefaults()
			if changed {
				slog.Debug("defaults applied", slog.String("path", path))
			}
		}

		targetValidatable, isValidatable := any(target).(Validator)
		if isValidatable {
			err := targetValidatable.Validate()
			if err != nil {
				return nil, fmt.Errorf("validating error: %w", err)
			}
		}

		return target, nil
	}
}
