package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrPathIsDirectory is returned when the path provided to the Fetcher points to a directory instead of a file.
var ErrPathIsDirectory = errors.New("path is a directory, not a file")

// Fetcher implements config.DataFetcher for a file read at construction time.
type Fetcher struct {
	filepath string
	data     []byte
	missing  bool
}

// NewFetcher returns a constructor for a Fetcher over fpath. The constructor
// form lets fx decide when the file is read. It fails if the file cannot be
// read or is a directory.
func NewFetcher(fpath string) func() (*Fetcher, error) {
	return func() (*Fetcher, error) {
		return read(fpath, false)
	}
}

// NewOptionalFetcher is NewFetcher for a file that may be absent: an empty
// path or a missing file produce a Fetcher returning no data.
func NewOptionalFetcher(fpath string) func() (*Fetcher, error) {
	return func() (*Fetcher, error) {
		if fpath == "" {
			return &Fetcher{missing: true}, nil
		}

		return read(fpath, true)
	}
}

func read(fpath string, optional bool) (*Fetcher, error) {
	cleanPath := filepath.Clean(fpath)

	stat, err := os.Stat(cleanPath)
	if optional && errors.Is(err, fs.ErrNotExist) {
		return &Fetcher{filepath: cleanPath, missing: true}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("stat file %q: %w", cleanPath, err)
	}

	if stat.IsDir() {
		return nil, fmt.Errorf("path %q: %w", cleanPath, ErrPathIsDirectory)
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 -- path is cleaned and validated
	if err != nil {
		return nil, fmt.Errorf("reading file %q: %w", cleanPath, err)
	}

	return &Fetcher{
		filepath: cleanPath,
		data:     data,
	}, nil
}

// Fetch returns a copy of the cached data.
func (f *Fetcher) Fetch() ([]byte, error) {
	result := make([]byte, len(f.data))
	copy(result, f.data)

	return result, nil
}

// Path returns the cleaned file path, empty for an optional fetcher built without one.
func (f *Fetcher) Path() string {
	return f.filepath
}

// Missing reports whether an optional file was absent.
func (f *Fetcher) Missing() bool {
	return f.missing
}
