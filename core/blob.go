package core

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

var ErrBlobNotFound = errors.New("blob not found")

// BlobStore keeps uploaded files out of the record store.
// Put returns the reference to persist; Get resolves it back to the content.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
}
