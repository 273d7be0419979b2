package audit

import (
	"context"

	"github.com/filewire/filewire/internal/logger"
)

// recorderBufferSize bounds how many pending records a Recorder holds
// before it starts dropping, so a slow or stalled SQLite write never backs
// up into the connection dispatcher's non-blocking reactor loop.
const recorderBufferSize = 1024

// Recorder decouples ledger writes from the request path: TryRecord never
// blocks, enqueueing onto a buffered channel drained by a single background
// goroutine that calls Store.Append. A nil *Recorder (returned by
// NewRecorder when the store itself is nil) makes TryRecord a no-op, so
// callers can wire it unconditionally.
type Recorder struct {
	store   *Store
	records chan Record
	done    chan struct{}
}

// NewRecorder starts a Recorder backed by store. If store is nil (audit
// disabled), NewRecorder returns nil and starts no goroutine.
func NewRecorder(store *Store) *Recorder {
	if store == nil {
		return nil
	}
	r := &Recorder{
		store:   store,
		records: make(chan Record, recorderBufferSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// TryRecord enqueues rec for asynchronous persistence. If the buffer is
// full the record is dropped and a warning is logged; TryRecord never
// blocks the caller. TryRecord is a no-op on a nil *Recorder.
func (r *Recorder) TryRecord(rec Record) {
	if r == nil {
		return
	}
	select {
	case r.records <- rec:
	default:
		logger.Warn("audit recorder buffer full, dropping record",
			logger.Command(rec.Command), logger.ConnectionID(rec.ConnectionID))
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	ctx := context.Background()
	for rec := range r.records {
		if err := r.store.Append(ctx, rec); err != nil {
			logger.Warn("audit record append failed", logger.Err(err))
		}
	}
}

// Close stops accepting new records, waits for the buffered ones to drain,
// and closes the underlying store. Close is a no-op on a nil *Recorder.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	close(r.records)
	<-r.done
	return r.store.Close()
}
