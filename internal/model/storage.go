package model

import (
	"context"
	"io"
)

// BlobStorage stores serialized envelopes too large for an inline column.
type BlobStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
