// Package server implements the connection state machine (C3) and the
// readiness dispatcher (C4): the non-blocking, single-threaded reactor that
// drives many concurrent clients through the wire codec and command
// handlers without ever blocking on recv or send.
package server

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/filewire/filewire/internal/logger"
	"github.com/filewire/filewire/internal/telemetry"
	"github.com/filewire/filewire/pkg/audit"
	"github.com/filewire/filewire/pkg/commands"
	"github.com/filewire/filewire/pkg/metrics"
	"github.com/filewire/filewire/pkg/store"
	"github.com/filewire/filewire/pkg/wire"
)

// DefaultRecvCap is the §5 resource bound on a connection's receive
// accumulator: 64 KiB of unconsumed bytes before the connection is judged
// to be misbehaving and closed.
const DefaultRecvCap = 64 * 1024

// CloseReason reports what a connection's caller should do once a state
// transition (AppendRecv or Step) returns control.
type CloseReason int

const (
	// NoClose: the connection stays open; no action needed.
	NoClose CloseReason = iota
	// ClosePeerClosed: the peer's read side reported EOF (0-byte recv).
	ClosePeerClosed
	// CloseTransportError: a recv or send syscall failed fatally.
	CloseTransportError
	// CloseAfterDrain: a response has been queued (quit, a protocol
	// error, or a recovered handler panic) and the connection should
	// close only once send_buf has fully drained.
	CloseAfterDrain
)

// Connection owns one client's receive accumulator and send buffer. It is
// mutated only by the goroutine running the dispatcher's event loop; there
// is no locking because there is no concurrent access.
type Connection struct {
	ID    string
	Peer  string
	store store.FileStore

	// metrics is nil unless the dispatcher was given a ServerMetrics;
	// every use goes through the nil-safe pkg/metrics helpers.
	metrics metrics.ServerMetrics

	// audit is nil unless the dispatcher was given an audit.Recorder;
	// TryRecord is non-blocking so it never stalls the reactor loop.
	audit *audit.Recorder

	recvAcc []byte
	sendBuf []byte
	recvCap int

	quitRequested bool
}

// NewConnection returns a Connection with empty accumulator and send
// buffer, as required at accept time.
func NewConnection(id, peer string, st store.FileStore, recvCap int) *Connection {
	if recvCap <= 0 {
		recvCap = DefaultRecvCap
	}
	return &Connection{ID: id, Peer: peer, store: st, recvCap: recvCap}
}

// SetMetrics installs the ServerMetrics sink the connection reports
// dispatched requests against. Called once by the dispatcher right after
// accept; a Connection with no metrics installed reports nothing.
func (c *Connection) SetMetrics(m metrics.ServerMetrics) {
	c.metrics = m
}

// SetAudit installs the Recorder the connection logs dispatched requests
// to. Called once by the dispatcher right after accept.
func (c *Connection) SetAudit(r *audit.Recorder) {
	c.audit = r
}

// WantsWrite reports whether send_buf is non-empty.
func (c *Connection) WantsWrite() bool {
	return len(c.sendBuf) > 0
}

// HasPendingLine reports whether recv_acc already holds a complete line
// (bare-LF or CRLF terminated) that Step has not yet consumed.
func (c *Connection) HasPendingLine() bool {
	return bytes.IndexByte(c.recvAcc, '\n') >= 0
}

// AppendRecv admits a chunk of bytes read from the socket into recv_acc.
// A non-ASCII chunk, or one that would grow recv_acc past its cap, is
// fatal: the appropriate error response is queued and CloseAfterDrain is
// returned without the chunk being admitted.
func (c *Connection) AppendRecv(chunk []byte) CloseReason {
	if !isASCII(chunk) {
		c.queueFrame(wire.Result{Code: wire.StatusBadRequest, Desc: "Message contains non-ascii"})
		return CloseAfterDrain
	}
	if len(c.recvAcc)+len(chunk) > c.recvCap {
		c.queueFrame(wire.Result{Code: wire.StatusBadRequest, Desc: "Request too large"})
		return CloseAfterDrain
	}
	c.recvAcc = append(c.recvAcc, chunk...)
	return NoClose
}

// Step consumes at most one complete line from recv_acc, dispatches it
// through the wire codec and command handlers, and frames the result into
// send_buf. If recv_acc has no complete line, Step is a no-op. The
// returned CloseReason is CloseAfterDrain once a quit (or a recovered
// handler panic) has been processed; the caller is responsible for
// draining send_buf before actually closing the socket.
func (c *Connection) Step(ctx context.Context) CloseReason {
	idx := bytes.IndexByte(c.recvAcc, '\n')
	if idx < 0 {
		return NoClose
	}

	line := c.recvAcc[:idx+1]
	c.recvAcc = c.recvAcc[idx+1:]

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanRequest,
		trace.WithAttributes(telemetry.ConnectionID(c.ID), telemetry.Peer(c.Peer)))
	result := c.dispatchLine(ctx, line)
	span.End()
	c.queueFrame(result)

	if c.quitRequested {
		return CloseAfterDrain
	}
	return NoClose
}

func (c *Connection) dispatchLine(ctx context.Context, line []byte) (result wire.Result) {
	req, errResult, ok := wire.ParseRequest(line)
	if !ok {
		return errResult
	}

	ctx, span := telemetry.StartCommandSpan(ctx, req.Name, c.ID, c.Peer)
	defer span.End()
	annotateRequestSpan(ctx, req)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%v", r)
			logger.ErrorCtx(ctx, "command handler panicked",
				logger.Command(req.Name), logger.Err(err))
			telemetry.RecordError(ctx, err)
			telemetry.SetStatus(ctx, codes.Error, "command handler panicked")
			result = wire.Result{Code: wire.StatusInternalError, Desc: "Internal server error"}
			c.quitRequested = true
		}
	}()

	start := time.Now()
	res, shouldClose := commands.Dispatch(ctx, c.store, req)
	elapsed := time.Since(start)

	annotateResultSpan(ctx, res)
	metrics.RequestObserved(c.metrics, req.Name, res.Code, elapsed)
	if res.Kind == wire.BlobBody {
		metrics.BytesServed(c.metrics, req.Name, len(res.Blob))
	}
	c.recordAudit(req, res, elapsed)

	if shouldClose {
		c.quitRequested = true
	}
	return res
}

// annotateRequestSpan tags the active command span with the request's
// filename/offset/count arguments, when the command carries them.
func annotateRequestSpan(ctx context.Context, req wire.Request) {
	if len(req.Args) > 0 {
		telemetry.SetAttributes(ctx, telemetry.Filename(req.Args[0]))
	}
	if len(req.Args) > 1 {
		if offset, err := strconv.ParseUint(req.Args[1], 10, 64); err == nil {
			telemetry.SetAttributes(ctx, telemetry.Offset(offset))
		}
	}
	if len(req.Args) > 2 {
		if count, err := strconv.ParseUint(req.Args[2], 10, 64); err == nil {
			telemetry.SetAttributes(ctx, telemetry.Count(count))
		}
	}
}

// annotateResultSpan tags the active command span with the dispatched
// result's status and, depending on its body kind, entry count or size.
func annotateResultSpan(ctx context.Context, res wire.Result) {
	telemetry.SetAttributes(ctx, telemetry.Status(res.Code), telemetry.StatusMsg(res.Desc))
	switch res.Kind {
	case wire.ListBody:
		telemetry.SetAttributes(ctx, telemetry.Entries(len(res.List)))
	case wire.BlobBody:
		telemetry.SetAttributes(ctx, telemetry.Size(uint64(len(res.Blob))))
	}

	if res.Code == wire.StatusOK {
		telemetry.SetStatus(ctx, codes.Ok, "")
	} else {
		telemetry.SetStatus(ctx, codes.Error, res.Desc)
	}
}

// recordAudit enqueues an audit.Record for the dispatched request. It is a
// no-op when no Recorder was installed.
func (c *Connection) recordAudit(req wire.Request, res wire.Result, elapsed time.Duration) {
	if c.audit == nil {
		return
	}

	var filename string
	var offset, size uint64
	if len(req.Args) > 0 {
		filename = req.Args[0]
	}
	if len(req.Args) > 1 {
		offset, _ = strconv.ParseUint(req.Args[1], 10, 64)
	}
	if len(req.Args) > 2 {
		size, _ = strconv.ParseUint(req.Args[2], 10, 64)
	}

	c.audit.TryRecord(audit.Record{
		ConnectionID: c.ID,
		Peer:         c.Peer,
		Command:      req.Name,
		Status:       res.Code,
		Filename:     filename,
		Offset:       offset,
		Size:         size,
		DurationMs:   elapsed.Milliseconds(),
	})
}

func (c *Connection) queueFrame(result wire.Result) {
	c.sendBuf = append(c.sendBuf, wire.FrameResponse(result)...)
}

// PeekSend returns the unsent bytes of send_buf, for a caller to hand to a
// non-blocking send(2). The returned slice must not be retained past the
// next call to Sent.
func (c *Connection) PeekSend() []byte {
	return c.sendBuf
}

// Sent removes the first n bytes of send_buf, reflecting what the kernel
// accepted on the last send(2) call.
func (c *Connection) Sent(n int) {
	c.sendBuf = c.sendBuf[n:]
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c > 127 {
			return false
		}
	}
	return true
}
