package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockParser struct {
	calls     int
	parseFunc func(data []byte, target any, path string) error
}

func (m *mockParser) Parse(data []byte, target any, path string) error {
	m.calls++

	return m.parseFunc(data, target, path)
}

type staticFetcher struct {
	data []byte
	err  error
}

func (f staticFetcher) Fetch() ([]byte, error) {
	return f.data, f.err
}

type configWithBoth struct {
	Name     string
	defaults int
	err      error
}

func (c *configWithBoth) SetDefaults() bool {
	c.defaults++

	if c.Name == "" {
		c.Name = "default"

		return true
	}

	return false
}

func (c *configWithBoth) Validate() error {
	return c.err
}

func nameParser(name string) *mockParser {
	return &mockParser{parseFunc: func(_ []byte, target any, _ string) error {
		cfg, ok := target.(*configWithBoth)
		if !ok {
			return errors.New("invalid target type")
		}

		cfg.Name = name

		return nil
	}}
}

func TestProvider_Success(t *testing.T) {
	t.Parallel()

	target := &configWithBoth{}
	parser := nameParser("parsed")

	result, err := Provider(target, "services:ucid")(parser, staticFetcher{data: []byte("data")})

	require.NoError(t, err)
	assert.Same(t, target, result)
	assert.Equal(t, "parsed", result.Name)
	assert.Equal(t, 1, result.defaults)
	assert.Equal(t, 1, parser.calls)
}

func TestProvider_EmptyDataUsesDefaults(t *testing.T) {
	t.Parallel()

	target := &configWithBoth{}
	parser := nameParser("parsed")

	result, err := Provider(target, "")(parser, staticFetcher{})

	require.NoError(t, err)
	assert.Equal(t, "default", result.Name)
	assert.Zero(t, parser.calls, "empty data is not handed to the parser")
}

func TestProvider_Errors(t *testing.T) {
	t.Parallel()

	fetchErr := errors.New("fetch failed")
	parseErr := errors.New("parse failed")
	validationErr := errors.New("validation failed")

	tests := []struct {
		name      string
		fetcher   staticFetcher
		parseErr  error
		targetErr error
		wantErr   error
		wantText  string
	}{
		{
			name:     "fetch error",
			fetcher:  staticFetcher{err: fetchErr},
			wantErr:  fetchErr,
			wantText: "reading data error",
		},
		{
			name:     "parse error",
			fetcher:  staticFetcher{data: []byte("data")},
			parseErr: parseErr,
			wantErr:  parseErr,
			wantText: "parsing error",
		},
		{
			name:      "validation error",
			fetcher:   staticFetcher{data: []byte("data")},
			targetErr: validationErr,
			wantErr:   validationErr,
			wantText:  "validating error",
		},
	}

	for _, testInfo := range tests {
		t.Run(testInfo.name, func(t *testing.T) {
			t.Parallel()

			target := &configWithBoth{err: testInfo.targetErr}
			parser := &mockParser{parseFunc: func([]byte, any, string) error { return testInfo.parseErr }}

			result, err := Provider(target, "")(parser, testInfo.fetcher)

			assert.Nil(t, result)
			require.ErrorIs(t, err, testInfo.wantErr)
			assert.Contains(t, err.Error(), testInfo.wantText)
		})
	}
}

func TestProvider_PlainStruct(t *testing.T) {
	t.Parallel()

	type plain struct{ Name string }

	parser := &mockParser{parseFunc: func(_ []byte, target any, _ string) error {
		target.(*plain).Name = "x" //nolint:forcetypeassert

		return nil
	}}

	result, err := Provider(&plain{}, "")(parser, staticFetcher{data: []byte("data")})

	require.NoError(t, err)
	assert.Equal(t, "x", result.Name)
}
