package commands

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"

	"github.com/filewire/filewire/pkg/store"
	"github.com/filewire/filewire/pkg/wire"
)

// GetSlice returns base64(file[offset:offset+size]). The wire codec has
// already validated that offsetStr and sizeStr are non-empty digit runs;
// parsing can still fail here on overflow of a digit run too large for
// uint64, which is treated the same as a codec-level argument error.
func GetSlice(ctx context.Context, st store.FileStore, name, offsetStr, sizeStr string) wire.Result {
	offset, errOffset := strconv.ParseUint(offsetStr, 10, 64)
	size, errSize := strconv.ParseUint(sizeStr, 10, 64)
	if errOffset != nil || errSize != nil {
		return wire.Result{Code: wire.StatusInvalidArguments, Desc: "Invalid arguments"}
	}

	fileSize, err := st.Size(ctx, name)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrNameTooLong), errors.Is(err, store.ErrIsDirectory):
		return wire.Result{Code: wire.StatusFileNotFound, Desc: "File not found"}
	default:
		return wire.Result{Code: wire.StatusInternalError, Desc: "Internal error"}
	}

	end := offset + size
	if end < offset || end > fileSize {
		return wire.Result{Code: wire.StatusBadOffset, Desc: "Invalid file slice"}
	}

	data, err := st.Read(ctx, name, offset, size)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrIsDirectory):
			return wire.Result{Code: wire.StatusFileNotFound, Desc: "File not found"}
		default:
			return wire.Result{Code: wire.StatusInternalError, Desc: "Internal error"}
		}
	}

	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
	base64.StdEncoding.Encode(encoded, data)

	return wire.Result{Code: wire.StatusOK, Desc: "OK", Kind: wire.BlobBody, Blob: encoded}
}
