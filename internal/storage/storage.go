// Package storage keeps uploaded cover files and turns stored paths into
// public URLs.
package storage

import (
	"context"
	"errors"
)

var ErrOutsideRoot = errors.New("path escapes storage root")

// FileStore persists files under slash-separated relative paths.
type FileStore interface {
	// Put stores data under dir with a fresh unique name and returns the
	// relative path.
	Put(ctx context.Context, dir, ext string, data []byte) (string, error)
	// Delete removes the file. Deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error
	// URL is the public address of a stored path.
	URL(path string) string
}
