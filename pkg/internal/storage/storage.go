package storage

import (
	"context"
	"io"
)

// BlobStore is the object storage collaborator holding raw media bytes. Refs
// are plain object keys within a single configured bucket.
type BlobStore interface {
	Put(ctx context.Context, ref string, src io.Reader, size int64, contentType string) error
	PutFile(ctx context.Context, ref string, localPath string, contentType string) error
	GetFile(ctx context.Context, ref string, localPath string) error
	Get(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}
