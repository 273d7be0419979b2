// Package localfs implements store.FileStore against a real directory on
// the local filesystem, grounded on the teacher's filesystem content store
// layout but narrowed to the three read-only operations this protocol needs.
package localfs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"

	"github.com/filewire/filewire/internal/telemetry"
	"github.com/filewire/filewire/pkg/store"
)

const storeType = "localfs"

// MaxNameLength bounds the filename argument, independent of the wire
// charset check; it exists so a pathologically long but charset-valid
// argument still fails fast with FILE_NOT_FOUND rather than hitting the
// filesystem.
const MaxNameLength = 255

// Store serves files out of a single shared root directory. Subdirectories
// are not traversed: get_file_listing enumerates only the immediate
// entries, and name arguments may not contain a path separator.
type Store struct {
	root string
}

// New returns a Store rooted at dir.
func New(dir string) *Store {
	return &Store{root: filepath.Clean(dir)}
}

func (s *Store) List(ctx context.Context) (names []string, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanStoreList, trace.WithAttributes(telemetry.StoreType(storeType)))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
			return
		}
		telemetry.SetAttributes(ctx, telemetry.Entries(len(names)))
	}()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}

	names = make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !utf8.ValidString(name) || !isASCII(name) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (s *Store) Size(ctx context.Context, name string) (size uint64, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanStoreSize,
		trace.WithAttributes(telemetry.StoreType(storeType), telemetry.Filename(name)))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
			return
		}
		telemetry.SetAttributes(ctx, telemetry.Size(size))
	}()

	path, err := s.resolve(name)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, store.ErrNotFound
		}
		return 0, err
	}
	if info.IsDir() {
		return 0, store.ErrIsDirectory
	}
	return uint64(info.Size()), nil
}

func (s *Store) Read(ctx context.Context, name string, offset, length uint64) (data []byte, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanStoreRead,
		trace.WithAttributes(telemetry.StoreType(storeType), telemetry.Filename(name),
			telemetry.Offset(offset), telemetry.Count(length)))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, store.ErrIsDirectory
	}

	buf := make([]byte, length)
	if length == 0 {
		return buf, nil
	}

	n, rerr := f.ReadAt(buf, int64(offset))
	if rerr != nil && !errors.Is(rerr, io.EOF) {
		err = rerr
		return nil, err
	}
	if uint64(n) != length {
		err = store.ErrNotFound
		return nil, err
	}
	return buf, nil
}

// resolve maps a wire-validated name to an absolute path within root,
// rejecting path separators defensively even though the wire charset
// already excludes '/' on every platform this server targets.
func (s *Store) resolve(name string) (string, error) {
	if len(name) > MaxNameLength {
		return "", store.ErrNameTooLong
	}
	if strings.ContainsAny(name, `/\`) {
		return "", store.ErrNotFound
	}
	return filepath.Join(s.root, name), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}
