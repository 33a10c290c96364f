package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by a Backend when no object is stored under a key.
var ErrNotExist = errors.New("storage: object does not exist")

// Backend stores the bytes of media blobs under opaque keys.
type Backend interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}
