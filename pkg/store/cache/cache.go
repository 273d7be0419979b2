// Package cache decorates a store.FileStore with a badger-backed cache of
// List and Size results, invalidated eagerly when fsnotify observes changes
// under the watched root. Read is always forwarded to the underlying store
// uncached, since slices are requested with arbitrary offset/length and
// rarely repeat.
package cache

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/fsnotify/fsnotify"
	"go.opentelemetry.io/otel/trace"

	"github.com/filewire/filewire/internal/logger"
	"github.com/filewire/filewire/internal/telemetry"
	"github.com/filewire/filewire/pkg/metrics"
	"github.com/filewire/filewire/pkg/store"
)

const (
	keyListing      = "listing"
	sizeKeyPrefix   = "size:"
	defaultCacheTTL = 30 * time.Second
)

// Store wraps a store.FileStore with a badger-backed cache. The zero value
// is not usable; construct with New.
type Store struct {
	inner   store.FileStore
	db      *badger.DB
	ttl     time.Duration
	metrics metrics.ServerMetrics
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New opens (or creates) a badger cache at dbPath wrapping inner. If
// watchRoot is non-empty, an fsnotify watcher invalidates the cache whenever
// the directory tree changes.
func New(inner store.FileStore, dbPath string, ttl time.Duration, watchRoot string, m metrics.ServerMetrics) (*Store, error) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	opts := badger.DefaultOptions(dbPath).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	s := &Store{inner: inner, db: db, ttl: ttl, metrics: m, done: make(chan struct{})}

	if watchRoot != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("create fsnotify watcher: %w", err)
		}
		if err := watcher.Add(watchRoot); err != nil {
			watcher.Close()
			db.Close()
			return nil, fmt.Errorf("watch %s: %w", watchRoot, err)
		}
		s.watcher = watcher
		go s.watchLoop()
	}

	return s, nil
}

// Close releases the badger database and stops the fsnotify watcher, if any.
func (s *Store) Close() error {
	close(s.done)
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	return s.db.Close()
}

func (s *Store) watchLoop() {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			logger.Debug("cache invalidated by fsnotify", "event", ev.String())
			if err := s.invalidateAll(); err != nil {
				logger.Warn("cache invalidation failed", logger.Err(err))
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("fsnotify watcher error", logger.Err(err))
		}
	}
}

func (s *Store) invalidateAll() (err error) {
	ctx, span := telemetry.StartSpan(context.Background(), telemetry.SpanCacheInvalid)
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()
	return s.db.DropAll()
}

type cachedListing struct {
	Names     []string  `json:"names"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// List returns the cached directory listing if fresh, otherwise refreshes
// it from the underlying store.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanCacheLookup, trace.WithAttributes(telemetry.Command("list")))
	defer span.End()

	if cached, ok := s.getListing(); ok {
		telemetry.SetAttributes(ctx, telemetry.CacheHit(true))
		metrics.CacheLookup(s.metrics, true)
		return cached, nil
	}
	telemetry.SetAttributes(ctx, telemetry.CacheHit(false))
	metrics.CacheLookup(s.metrics, false)

	names, err := s.inner.List(ctx)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	s.putListing(names)
	return names, nil
}

func (s *Store) getListing() ([]string, bool) {
	var entry cachedListing

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyListing))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Names, true
}

func (s *Store) putListing(names []string) {
	entry := cachedListing{Names: names, CachedAt: time.Now(), ExpiresAt: time.Now().Add(s.ttl)}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_ = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(keyListing), data).WithTTL(s.ttl))
	})
}

// Size returns the cached size for name if fresh, otherwise refreshes it
// from the underlying store.
func (s *Store) Size(ctx context.Context, name string) (uint64, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanCacheLookup,
		trace.WithAttributes(telemetry.Command("size"), telemetry.Filename(name)))
	defer span.End()

	key := []byte(sizeKeyPrefix + name)

	if size, ok := s.getSize(key); ok {
		telemetry.SetAttributes(ctx, telemetry.CacheHit(true))
		metrics.CacheLookup(s.metrics, true)
		return size, nil
	}
	telemetry.SetAttributes(ctx, telemetry.CacheHit(false))
	metrics.CacheLookup(s.metrics, false)

	size, err := s.inner.Size(ctx, name)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return 0, err
	}

	_ = s.db.Update(func(txn *badger.Txn) error {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, size)
		return txn.SetEntry(badger.NewEntry(key, buf).WithTTL(s.ttl))
	})

	return size, nil
}

func (s *Store) getSize(key []byte) (uint64, bool) {
	var size uint64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt cached size entry")
			}
			size = binary.BigEndian.Uint64(val)
			return nil
		})
	})
	if err != nil {
		return 0, false
	}
	return size, true
}

// Read is never cached; it is forwarded directly to the underlying store.
func (s *Store) Read(ctx context.Context, name string, offset, length uint64) ([]byte, error) {
	return s.inner.Read(ctx, name, offset, length)
}
