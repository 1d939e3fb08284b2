// Package file provides a file-based config.DataFetcher.
//
// The file is read once, at construction, and Fetch hands out copies of the
// cached bytes. NewFetcher requires the file to exist; NewOptionalFetcher
// treats an empty path or a missing file as empty data, which config.Provider
// turns into a defaults-only result.
//
// Usage:
//
//	fetcher, err := file.NewOptionalFetcher("/etc/ucid.yaml")()
//	if err != nil {
//	    // permission denied, path is a directory, ...
//	}
//	data, err := fetcher.Fetch()
//
// Use errors.Is(err, file.ErrPathIsDirectory) to detect a directory path.
package file
