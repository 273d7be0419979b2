package commands

import (
	"context"

	"github.com/filewire/filewire/pkg/store"
	"github.com/filewire/filewire/pkg/wire"
)

// GetFileListing lists the shared directory. Entries whose bytes are not
// representable in ASCII are silently dropped by the store itself; this
// handler only frames whatever the store returns.
func GetFileListing(ctx context.Context, st store.FileStore) wire.Result {
	names, err := st.List(ctx)
	if err != nil {
		return wire.Result{Code: wire.StatusInternalError, Desc: "Internal error"}
	}

	list := make([][]byte, len(names))
	for i, name := range names {
		list[i] = []byte(name)
	}

	return wire.Result{Code: wire.StatusOK, Desc: "OK", Kind: wire.ListBody, List: list}
}
