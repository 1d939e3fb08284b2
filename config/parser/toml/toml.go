package toml

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	// ErrEmptyData is returned when the input data is empty.
	ErrEmptyData = errors.New("empty data")
	// ErrPathNotFound is returned when a path component names no key.
	ErrPathNotFound = errors.New("path not found")
	// ErrUnknownKeys is returned in strict mode for keys the target does not declare.
	ErrUnknownKeys = errors.New("unknown keys")
)

// Parser implements config.Parser for TOML data.
type Parser struct {
	strict bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithStrict makes Parse fail on keys the target does not declare.
func WithStrict() Option {
	return func(p *Parser) {
		p.strict = true
	}
}

// NewParser creates a new TOML parser instance.
func NewParser(opts ...Option) *Parser {
	parser := &Parser{}

	for _, apply := range opts {
		apply(parser)
	}

	return parser
}

// Parse decodes TOML data into target. An empty path decodes the entire document.
func (p *Parser) Parse(data []byte, target any, path string) error {
	if len(data) == 0 {
		return ErrEmptyData
	}

	if path == "" {
		meta, err := toml.Decode(string(data), target)
		if err != nil {
			return fmt.Errorf("unmarshal error: %w", err)
		}

		return p.checkUndecoded(meta, nil)
	}

	var table map[string]toml.Primitive

	meta, err := toml.Decode(string(data), &table)
	if err != nil {
		return fmt.Errorf("unmarshal error: %w", err)
	}

	keys := strings.Split(path, ":")

	for i, key := range keys {
		primitive, ok := table[key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}

		if i == len(keys)-1 {
			if err := meta.PrimitiveDecode(primitive, target); err != nil {
				return fmt.Errorf("decoding path %q: %w", path, err)
			}

			break
		}

		table = nil
		if err := meta.PrimitiveDecode(primitive, &table); err != nil {
			return fmt.Errorf("reading path %q: %w", path, err)
		}
	}

	return p.checkUndecoded(meta, keys)
}

// checkUndecoded reports, in strict mode, keys below prefix that were not decoded.
func (p *Parser) checkUndecoded(meta toml.MetaData, prefix []string) error {
	if !p.strict {
		return nil
	}

	var unknown []string

	for _, key := range meta.Undecoded() {
		if len(key) > len(prefix) && slices.Equal([]string(key[:len(prefix)]), prefix) {
			unknown = append(unknown, key.String())
		}
	}

	if len(unknown) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownKeys, strings.Join(unknown, ", "))
	}

	return nil
}
