package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filewire/filewire/pkg/wire"
)

func TestGetFileListing(t *testing.T) {
	fs := newFakeStore()
	fs.files["a.txt"] = []byte("hello")
	fs.files["b.txt"] = []byte("world!")

	res := GetFileListing(context.Background(), fs)
	require.Equal(t, wire.StatusOK, res.Code)
	require.Equal(t, wire.ListBody, res.Kind)
	assert.ElementsMatch(t, [][]byte{[]byte("a.txt"), []byte("b.txt")}, res.List)
}

func TestGetFileListing_Empty(t *testing.T) {
	fs := newFakeStore()
	res := GetFileListing(context.Background(), fs)
	assert.Equal(t, wire.StatusOK, res.Code)
	assert.Equal(t, wire.ListBody, res.Kind)
	assert.Empty(t, res.List)
	assert.Equal(t, "0 OK\r\n\r\n", string(wire.FrameResponse(res)))
}

func TestGetFileListing_StoreError(t *testing.T) {
	fs := newFakeStore()
	fs.listErr = errors.New("disk fault")
	res := GetFileListing(context.Background(), fs)
	assert.Equal(t, wire.StatusInternalError, res.Code)
}

func TestGetMetadata_OK(t *testing.T) {
	fs := newFakeStore()
	fs.files["a.txt"] = []byte("hello")
	res := GetMetadata(context.Background(), fs, "a.txt")
	require.Equal(t, wire.StatusOK, res.Code)
	assert.Equal(t, "0 OK\r\n5\r\n", string(wire.FrameResponse(res)))
}

func TestGetMetadata_NotFound(t *testing.T) {
	fs := newFakeStore()
	res := GetMetadata(context.Background(), fs, "nope")
	assert.Equal(t, wire.StatusFileNotFound, res.Code)
	assert.Equal(t, "202 File not found\r\n", string(wire.FrameResponse(res)))
}

func TestGetMetadata_InternalError(t *testing.T) {
	fs := newFakeStore()
	fs.sizeErr = errors.New("disk fault")
	res := GetMetadata(context.Background(), fs, "a.txt")
	assert.Equal(t, wire.StatusInternalError, res.Code)
}

func TestGetSlice_OK(t *testing.T) {
	fs := newFakeStore()
	fs.files["a.txt"] = []byte("hello")
	res := GetSlice(context.Background(), fs, "a.txt", "1", "3")
	require.Equal(t, wire.StatusOK, res.Code)
	assert.Equal(t, "0 OK\r\nZWxs\r\n", string(wire.FrameResponse(res)))
}

func TestGetSlice_OutOfRange(t *testing.T) {
	fs := newFakeStore()
	fs.files["a.txt"] = []byte("hello")
	res := GetSlice(context.Background(), fs, "a.txt", "3", "10")
	assert.Equal(t, wire.StatusBadOffset, res.Code)
	assert.Equal(t, "203 Invalid file slice\r\n", string(wire.FrameResponse(res)))
}

func TestGetSlice_OverflowArgs(t *testing.T) {
	fs := newFakeStore()
	fs.files["a.txt"] = []byte("hello")
	res := GetSlice(context.Background(), fs, "a.txt", "18446744073709551615", "1")
	assert.Equal(t, wire.StatusBadOffset, res.Code)
}

func TestGetSlice_OverflowParse(t *testing.T) {
	fs := newFakeStore()
	fs.files["a.txt"] = []byte("hello")
	// Larger than uint64 max: ParseUint itself fails.
	res := GetSlice(context.Background(), fs, "a.txt", "99999999999999999999999", "1")
	assert.Equal(t, wire.StatusInvalidArguments, res.Code)
}

func TestGetSlice_NotFound(t *testing.T) {
	fs := newFakeStore()
	res := GetSlice(context.Background(), fs, "nope", "0", "1")
	assert.Equal(t, wire.StatusFileNotFound, res.Code)
}

func TestQuit(t *testing.T) {
	res := Quit()
	assert.Equal(t, wire.StatusOK, res.Code)
	assert.Equal(t, "0 OK\r\n", string(wire.FrameResponse(res)))
}

func TestDispatch_QuitRequestsClose(t *testing.T) {
	fs := newFakeStore()
	req := wire.Request{Kind: wire.CmdQuit}
	res, shouldClose := Dispatch(context.Background(), fs, req)
	assert.True(t, shouldClose)
	assert.Equal(t, wire.StatusOK, res.Code)
}

func TestDispatch_OtherCommandsDoNotRequestClose(t *testing.T) {
	fs := newFakeStore()
	fs.files["a.txt"] = []byte("hello")
	req := wire.Request{Kind: wire.CmdGetMetadata, Args: []string{"a.txt"}}
	_, shouldClose := Dispatch(context.Background(), fs, req)
	assert.False(t, shouldClose)
}
