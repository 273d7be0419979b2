package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these keys consistently
// across log statements so the fields line up for log aggregation and
// querying regardless of which package emitted the record.
const (
	// Connection & request identity
	KeyConnectionID = "connection_id" // opaque id assigned at accept time
	KeyClientIP     = "client_ip"     // remote IP address
	KeyClientPort   = "client_port"   // remote source port
	KeyCommand      = "command"       // protocol command name
	KeyArgs         = "args"          // parsed command arguments, logged at debug only

	// Wire protocol outcome
	KeyStatus    = "status"     // numeric response code
	KeyStatusMsg = "status_msg" // human-readable response description

	// File operations
	KeyFilename = "filename" // filename argument
	KeySize     = "size"     // file size in bytes
	KeyOffset   = "offset"   // slice offset
	KeyCount    = "count"    // slice length requested
	KeyEntries  = "entries"  // number of directory entries returned

	// I/O accounting
	KeyBytesRead    = "bytes_read"
	KeyBytesWritten = "bytes_written"

	// Storage backend
	KeyStoreType = "store_type" // filesystem, s3
	KeyBucket    = "bucket"     // S3 bucket name
	KeyRegion    = "region"     // S3 region
	KeyKey       = "key"        // object key in cloud storage

	// Cache layer
	KeyCacheHit   = "cache_hit"
	KeyEvicted    = "evicted"
	KeyCacheState = "cache_state"

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"
)

// ConnectionID returns a slog.Attr for the connection identifier
func ConnectionID(id string) slog.Attr {
	return slog.String(KeyConnectionID, id)
}

// ClientIP returns a slog.Attr for the remote IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// ClientPort returns a slog.Attr for the remote source port
func ClientPort(port int) slog.Attr {
	return slog.Int(KeyClientPort, port)
}

// Command returns a slog.Attr for the protocol command name
func Command(name string) slog.Attr {
	return slog.String(KeyCommand, name)
}

// Status returns a slog.Attr for the numeric response code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// StatusMsg returns a slog.Attr for the human-readable response description
func StatusMsg(msg string) slog.Attr {
	return slog.String(KeyStatusMsg, msg)
}

// Filename returns a slog.Attr for a filename argument
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// Size returns a slog.Attr for a file size
func Size(s uint64) slog.Attr {
	return slog.Uint64(KeySize, s)
}

// Offset returns a slog.Attr for a slice offset
func Offset(off uint64) slog.Attr {
	return slog.Uint64(KeyOffset, off)
}

// Count returns a slog.Attr for a slice length
func Count(c uint64) slog.Attr {
	return slog.Uint64(KeyCount, c)
}

// Entries returns a slog.Attr for the number of directory entries returned
func Entries(n int) slog.Attr {
	return slog.Int(KeyEntries, n)
}

// BytesRead returns a slog.Attr for bytes read from the FileStore
func BytesRead(n int) slog.Attr {
	return slog.Int(KeyBytesRead, n)
}

// BytesWritten returns a slog.Attr for bytes written to a connection's send buffer
func BytesWritten(n int) slog.Attr {
	return slog.Int(KeyBytesWritten, n)
}

// StoreType returns a slog.Attr for the FileStore backend type
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Bucket returns a slog.Attr for an S3 bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Region returns a slog.Attr for a cloud region
func Region(r string) slog.Attr {
	return slog.String(KeyRegion, r)
}

// Key returns a slog.Attr for an object key in cloud storage
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

// CacheHit returns a slog.Attr for a cache hit/miss indicator
func CacheHit(hit bool) slog.Attr {
	return slog.Bool(KeyCacheHit, hit)
}

// Evicted returns a slog.Attr for the number of cache entries evicted
func Evicted(n int) slog.Attr {
	return slog.Int(KeyEvicted, n)
}

// CacheState returns a slog.Attr for a cache invalidation state
func CacheState(state string) slog.Attr {
	return slog.String(KeyCacheState, state)
}

// DurationMs returns a slog.Attr for an operation duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}
