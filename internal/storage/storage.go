package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound reports a missing blob.
var ErrNotFound = errors.New("object not found")

// Storage is a blob sink for captured photos. Writes are invoked
// fire-and-forget off the capture path; failures are logged by the caller
// and never propagated.
type Storage interface {
	// Write stores content under key. size may be -1 when unknown.
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Read returns the content for key. The caller closes the reader.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
