package assets_test

import (
	"context"
	"errors"
	"sync"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	puts    int
	failPut error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memoryStore) Exists(_ context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok, nil
}

func (s *memoryStore) Put(_ context.Context, path string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut != nil {
		return s.failPut
	}
	s.puts++
	s.objects[path] = data
	s.types[path] = contentType
	return nil
}

func (s *memoryStore) URL(path string) string {
	return "https://assets.local/" + path
}

type fakeDownloader struct {
	mu     sync.Mutex
	bodies map[string][]byte
	calls  map[string]int
}

var errNotServed = errors.New("not served")

func newFakeDownloader(bodies map[string][]byte) *fakeDownloader {
	return &fakeDownloader{bodies: bodies, calls: map[string]int{}}
}

func (d *fakeDownloader) Download(_ context.Context, url string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls[url]++
	body, ok := d.bodies[url]
	if !ok {
		return nil, errNotServed
	}
	return body, nil
}
