package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
)

const metaSuffix = ".meta"

// Local stores objects on the local filesystem.  The content type lives in
// a JSON sidecar file next to each object.
type Local struct {
	root string
}

// NewLocal initializes a filesystem store rooted at dir, creating it if
// necessary.
func NewLocal(dir string) (*Local, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: make %q absolute: %w", dir, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %q: %w", root, err)
	}
	return &Local{root: root}, nil
}

func (s *Local) pathFor(key string) (string, error) {
	k, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(k)), nil
}

func (s *Local) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	defer f.Close()
	n, err := io.Copy(f, r)
	if err == nil {
		err = f.Sync()
	}
	if err != nil {
		os.Remove(p)
		return err
	}
	meta := map[string]string{
		"Content-Type":   contentType,
		"Content-Length": strconv.FormatInt(n, 10),
	}
	b, err := json.Marshal(meta)
	if err != nil {
		os.Remove(p)
		return err
	}
	if err := os.WriteFile(p+metaSuffix, b, 0o644); err != nil {
		os.Remove(p)
		return err
	}
	return nil
}

func (s *Local) Get(ctx context.Context, key string) (io.ReadCloser, http.Header, error) {
	p, err := s.pathFor(key)
	if err != nil {
		return nil, nil, err
	}
	b, err := os.ReadFile(p + metaSuffix)
	if os.IsNotExist(err) {
		return nil, nil, ErrNoObject
	} else if err != nil {
		return nil, nil, err
	}
	var meta map[string]string
	if err := json.Unmarshal(b, &meta); err != nil {
		return nil, nil, err
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, nil, ErrNoObject
	} else if err != nil {
		return nil, nil, err
	}
	h := http.Header{}
	for k, v := range meta {
		h.Set(k, v)
	}
	return f, h, nil
}

func (s *Local) Delete(ctx context.Context, key string) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	os.Remove(p + metaSuffix)
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return ErrNoObject
		}
		return err
	}
	return nil
}
