package server

import (
	"context"

	"github.com/filewire/filewire/pkg/store"
)

// fakeStore is a minimal in-memory store.FileStore for exercising the
// connection state machine without touching a real filesystem.
type fakeStore struct {
	files map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: map[string][]byte{}}
}

func (f *fakeStore) List(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(f.files))
	for name := range f.files {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeStore) Size(ctx context.Context, name string) (uint64, error) {
	data, ok := f.files[name]
	if !ok {
		return 0, store.ErrNotFound
	}
	return uint64(len(data)), nil
}

func (f *fakeStore) Read(ctx context.Context, name string, offset, length uint64) ([]byte, error) {
	data, ok := f.files[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	if offset+length > uint64(len(data)) {
		return nil, store.ErrIsDirectory
	}
	return data[offset : offset+length], nil
}
