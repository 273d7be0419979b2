package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for the connection/command protocol.
const (
	AttrConnectionID = "filewire.connection_id"
	AttrPeer         = "net.peer.address"
	AttrCommand      = "filewire.command"
	AttrFilename     = "filewire.filename"
	AttrOffset       = "filewire.offset"
	AttrCount        = "filewire.count"
	AttrSize         = "filewire.size"
	AttrStatus       = "filewire.status"
	AttrStatusMsg    = "filewire.status_msg"
	AttrEntries      = "filewire.entries"
	AttrCacheHit     = "filewire.cache_hit"
	AttrStoreType    = "filewire.store_type"
)

// Span names, one per dispatched command plus the request root.
const (
	SpanRequest      = "filewire.request"
	SpanGetListing   = "filewire.get_file_listing"
	SpanGetMetadata  = "filewire.get_metadata"
	SpanGetSlice     = "filewire.get_slice"
	SpanQuit         = "filewire.quit"
	SpanStoreRead    = "store.read"
	SpanStoreSize    = "store.size"
	SpanStoreList    = "store.list"
	SpanCacheLookup  = "cache.lookup"
	SpanCacheInvalid = "cache.invalidate"
)

func ConnectionID(id string) attribute.KeyValue { return attribute.String(AttrConnectionID, id) }
func Peer(addr string) attribute.KeyValue       { return attribute.String(AttrPeer, addr) }
func Command(name string) attribute.KeyValue    { return attribute.String(AttrCommand, name) }
func Filename(name string) attribute.KeyValue   { return attribute.String(AttrFilename, name) }
func Offset(off uint64) attribute.KeyValue      { return attribute.Int64(AttrOffset, int64(off)) }
func Count(n uint64) attribute.KeyValue         { return attribute.Int64(AttrCount, int64(n)) }
func Size(n uint64) attribute.KeyValue          { return attribute.Int64(AttrSize, int64(n)) }
func Status(code int) attribute.KeyValue        { return attribute.Int(AttrStatus, code) }
func StatusMsg(msg string) attribute.KeyValue   { return attribute.String(AttrStatusMsg, msg) }
func Entries(n int) attribute.KeyValue          { return attribute.Int(AttrEntries, n) }
func CacheHit(hit bool) attribute.KeyValue      { return attribute.Bool(AttrCacheHit, hit) }
func StoreType(t string) attribute.KeyValue     { return attribute.String(AttrStoreType, t) }

// commandSpanNames maps a dispatched command's wire name to its span name,
// keeping the two in sync with the commandTable in pkg/wire.
var commandSpanNames = map[string]string{
	"get_file_listing": SpanGetListing,
	"get_metadata":     SpanGetMetadata,
	"get_slice":        SpanGetSlice,
	"quit":             SpanQuit,
}

// StartCommandSpan starts a span for a dispatched command, named by the
// command itself, tagged with the connection's identity.
func StartCommandSpan(ctx context.Context, command, connectionID, peer string) (context.Context, trace.Span) {
	name, ok := commandSpanNames[command]
	if !ok {
		name = "filewire." + command
	}
	return StartSpan(ctx, name, trace.WithAttributes(
		Command(command),
		ConnectionID(connectionID),
		Peer(peer),
	))
}
