package storage

import (
	"context"
	"io"
)

// Storage is the write-once object store used to archive accepted
// batch payloads. Archived batches are never deleted by this service.
type Storage interface {
	Upload(ctx context.Context, key string, data io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
}
