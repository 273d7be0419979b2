package commands

import (
	"context"
	"errors"
	"strconv"

	"github.com/filewire/filewire/pkg/store"
	"github.com/filewire/filewire/pkg/wire"
)

// GetMetadata returns the decimal size of the named file as an ASCII blob.
func GetMetadata(ctx context.Context, st store.FileStore, name string) wire.Result {
	size, err := st.Size(ctx, name)
	switch {
	case err == nil:
		return wire.Result{
			Code: wire.StatusOK, Desc: "OK",
			Kind: wire.BlobBody, Blob: []byte(strconv.FormatUint(size, 10)),
		}
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrNameTooLong), errors.Is(err, store.ErrIsDirectory):
		return wire.Result{Code: wire.StatusFileNotFound, Desc: "File not found"}
	default:
		return wire.Result{Code: wire.StatusInternalError, Desc: "Internal error"}
	}
}
