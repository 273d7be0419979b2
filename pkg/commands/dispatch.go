package commands

import (
	"context"

	"github.com/filewire/filewire/pkg/store"
	"github.com/filewire/filewire/pkg/wire"
)

// Dispatch executes an already-parsed Request against st and reports
// whether the connection should close once the framed response has
// drained. It is a static switch over the CommandKind variant, not a
// name-keyed map of closures.
func Dispatch(ctx context.Context, st store.FileStore, req wire.Request) (wire.Result, bool) {
	switch req.Kind {
	case wire.CmdGetFileListing:
		return GetFileListing(ctx, st), false
	case wire.CmdGetMetadata:
		return GetMetadata(ctx, st, req.Args[0]), false
	case wire.CmdGetSlice:
		return GetSlice(ctx, st, req.Args[0], req.Args[1], req.Args[2]), false
	case wire.CmdQuit:
		return Quit(), true
	default:
		// Unreachable: wire.ParseRequest only ever returns a Request for a
		// command present in its own registry.
		return wire.Result{Code: wire.StatusInternalError, Desc: "Internal error"}, false
	}
}
