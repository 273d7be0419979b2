package commands

import (
	"context"
	"errors"

	"github.com/filewire/filewire/pkg/store"
)

// fakeStore is an in-memory store.FileStore used to test handlers without
// touching a real filesystem, mirroring the teacher's practice of testing
// content operations against an in-memory fixture.
type fakeStore struct {
	files map[string][]byte
	dirs  map[string]bool
	// listErr, when set, is returned by List.
	listErr error
	// sizeErr/readErr, when set, override the name-based lookup for every
	// call, for exercising INTERNAL_ERROR paths.
	sizeErr error
	readErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: map[string][]byte{}, dirs: map[string]bool{}}
}

func (f *fakeStore) List(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	names := make([]string, 0, len(f.files))
	for name := range f.files {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeStore) Size(ctx context.Context, name string) (uint64, error) {
	if f.sizeErr != nil {
		return 0, f.sizeErr
	}
	if f.dirs[name] {
		return 0, store.ErrIsDirectory
	}
	data, ok := f.files[name]
	if !ok {
		return 0, store.ErrNotFound
	}
	return uint64(len(data)), nil
}

func (f *fakeStore) Read(ctx context.Context, name string, offset, length uint64) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if f.dirs[name] {
		return nil, store.ErrIsDirectory
	}
	data, ok := f.files[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	if offset+length > uint64(len(data)) {
		return nil, errors.New("out of range")
	}
	return data[offset : offset+length], nil
}
