// Package blobstore keeps uploaded documents on the local disk or in an S3 bucket.
package blobstore

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/fmlibermann/website/core"
)

var errInvalidKey = errors.New("invalid blob key")

type localStore struct {
	dir string
}

var _ core.BlobStore = (*localStore)(nil) // interface compliance check

// NewLocalStore stores blobs as files under dir. References are the keys themselves.
func NewLocalStore(dir string) (core.BlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating blob directory")
	}
	return &localStore{dir: dir}, nil
}

// cleanKey rejects keys escaping the store.
func cleanKey(key string) (string, error) {
	key = path.Clean("/" + strings.ReplaceAll(key, `\`, "/"))[1:]
	if key == "" || key == "." {
		return "", errInvalidKey
	}
	return key, nil
}

func (s *localStore) path(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}

func (s *localStore) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	p := s.path(key)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", errors.Wrap(err, "creating blob directory")
	}
	f, err := os.Create(p)
	if err != nil {
		return "", errors.Wrap(err, "creating blob")
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", errors.Wrap(err, "writing blob")
	}
	if err = f.Close(); err != nil {
		return "", errors.Wrap(err, "closing blob")
	}
	return key, nil
}

func (s *localStore) Get(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := cleanKey(ref)
	if err != nil {
		return nil, core.ErrBlobNotFound
	}
	content, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrBlobNotFound
		}
		return nil, errors.Wrap(err, "reading blob")
	}
	return content, nil
}
