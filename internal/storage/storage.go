// Package storage keeps uploaded images.  Objects are addressed by a
// storage-relative key such as "articles/<uuid>.jpg"; the public URL of a
// key is the key behind the fixed /storage/ route.
package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
)

// Route is the URL prefix under which stored objects are served.
const Route = "/storage/"

// ErrNoObject is returned when a key does not exist.
var ErrNoObject = errors.New("storage: no object")

// ErrInvalidKey is returned for keys escaping the store.
var ErrInvalidKey = errors.New("storage: invalid key")

// Store holds uploaded objects.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, http.Header, error)
	Delete(ctx context.Context, key string) error
}

// URL returns the public URL of key, or "" for an empty key.
func URL(key string) string {
	if key == "" {
		return ""
	}
	return Route + strings.TrimPrefix(key, "/")
}

// CleanKey normalises key and rejects keys that leave the store root.
func CleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	c := path.Clean("/" + key)
	if c == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return strings.TrimPrefix(c, "/"), nil
}
