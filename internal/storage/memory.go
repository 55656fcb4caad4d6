package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"
)

type memObject struct {
	data        []byte
	contentType string
}

// Memory keeps objects in process memory.  It is meant for tests and
// throwaway development runs.
type Memory struct {
	mu      sync.Mutex
	objects map[string]memObject
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memObject)}
}

func (s *Memory) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	k, err := CleanKey(key)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[k] = memObject{data: data, contentType: contentType}
	s.mu.Unlock()
	return nil
}

func (s *Memory) Get(ctx context.Context, key string) (io.ReadCloser, http.Header, error) {
	k, err := CleanKey(key)
	if err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	obj, ok := s.objects[k]
	s.mu.Unlock()
	if !ok {
		return nil, nil, ErrNoObject
	}
	h := http.Header{}
	h.Set("Content-Type", obj.contentType)
	h.Set("Content-Length", strconv.Itoa(len(obj.data)))
	return io.NopCloser(bytes.NewReader(obj.data)), h, nil
}

func (s *Memory) Delete(ctx context.Context, key string) error {
	k, err := CleanKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[k]; !ok {
		return ErrNoObject
	}
	delete(s.objects, k)
	return nil
}

// Keys lists the stored keys in order.
func (s *Memory) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
