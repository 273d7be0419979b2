package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest_Listing(t *testing.T) {
	req, _, ok := ParseRequest([]byte("get_file_listing\r\n"))
	require.True(t, ok)
	assert.Equal(t, CmdGetFileListing, req.Kind)
	assert.Empty(t, req.Args)
}

func TestParseRequest_Metadata(t *testing.T) {
	req, _, ok := ParseRequest([]byte("get_metadata a.txt\r\n"))
	require.True(t, ok)
	assert.Equal(t, CmdGetMetadata, req.Kind)
	assert.Equal(t, []string{"a.txt"}, req.Args)
}

func TestParseRequest_Slice(t *testing.T) {
	req, _, ok := ParseRequest([]byte("get_slice a.txt 1 3\r\n"))
	require.True(t, ok)
	assert.Equal(t, CmdGetSlice, req.Kind)
	assert.Equal(t, []string{"a.txt", "1", "3"}, req.Args)
}

func TestParseRequest_Quit(t *testing.T) {
	req, _, ok := ParseRequest([]byte("quit\r\n"))
	require.True(t, ok)
	assert.Equal(t, CmdQuit, req.Kind)
}

func TestParseRequest_BareLF(t *testing.T) {
	_, res, ok := ParseRequest([]byte("quit\n"))
	require.False(t, ok)
	assert.Equal(t, StatusBadEOL, res.Code)
}

func TestParseRequest_NoCommandToken(t *testing.T) {
	_, res, ok := ParseRequest([]byte(" \r\n"))
	require.False(t, ok)
	assert.Equal(t, StatusBadRequest, res.Code)
}

func TestParseRequest_EmptyLine(t *testing.T) {
	_, res, ok := ParseRequest([]byte("\r\n"))
	require.False(t, ok)
	assert.Equal(t, StatusBadRequest, res.Code)
}

func TestParseRequest_UnknownCommand(t *testing.T) {
	_, res, ok := ParseRequest([]byte("foo\r\n"))
	require.False(t, ok)
	assert.Equal(t, StatusInvalidCommand, res.Code)
	assert.Equal(t, "Invalid command 'foo'", res.Desc)
}

func TestParseRequest_InvalidArguments(t *testing.T) {
	cases := []string{
		"get_metadata\r\n",              // missing arg
		"get_metadata a.txt extra\r\n",  // trailing bytes
		"get_metadata  a.txt\r\n",       // double space
		"get_file_listing extra\r\n",    // zero-arg command given args
		"get_slice a.txt 1\r\n",         // missing third arg
		"get_slice a.txt -1 3\r\n",      // non-digit offset
		"get_slice a/b.txt 1 3\r\n",     // filename charset violation
		"get_metadata a.txt \r\n",       // trailing space before terminator
	}
	for _, c := range cases {
		_, res, ok := ParseRequest([]byte(c))
		require.False(t, ok, "expected parse failure for %q", c)
		assert.Equal(t, StatusInvalidArguments, res.Code, "for input %q", c)
	}
}

func TestParseRequest_NoTrailingWhitespaceTolerated(t *testing.T) {
	_, res, ok := ParseRequest([]byte("quit \r\n"))
	require.False(t, ok)
	assert.Equal(t, StatusInvalidArguments, res.Code)
}

func TestFrameResponse_NoBody(t *testing.T) {
	out := FrameResponse(Result{Code: 0, Desc: "OK"})
	assert.Equal(t, "0 OK\r\n", string(out))
}

func TestFrameResponse_Blob(t *testing.T) {
	out := FrameResponse(Result{Code: 0, Desc: "OK", Kind: BlobBody, Blob: []byte("5")})
	assert.Equal(t, "0 OK\r\n5\r\n", string(out))
}

func TestFrameResponse_ListNonEmpty(t *testing.T) {
	out := FrameResponse(Result{
		Code: 0, Desc: "OK", Kind: ListBody,
		List: [][]byte{[]byte("a.txt"), []byte("b.txt")},
	})
	assert.Equal(t, "0 OK\r\na.txt\r\nb.txt\r\n\r\n", string(out))
}

func TestFrameResponse_ListEmpty(t *testing.T) {
	out := FrameResponse(Result{Code: 0, Desc: "OK", Kind: ListBody, List: nil})
	assert.Equal(t, "0 OK\r\n\r\n", string(out))
}

func TestFrameResponse_Error(t *testing.T) {
	out := FrameResponse(Result{Code: 202, Desc: "File not found"})
	assert.Equal(t, "202 File not found\r\n", string(out))
}

// TestFrameResponse_StartsWithDecimalAndSingleCRLFHeader covers the §8
// quantified invariant that every response starts with "<decimal> " and
// contains exactly one \r\n between the status line and the body.
func TestFrameResponse_StartsWithDecimalAndSingleCRLFHeader(t *testing.T) {
	out := FrameResponse(Result{Code: 199, Desc: "Internal error"})
	s := string(out)
	require.True(t, len(s) > 0)
	assert.Regexp(t, `^\d+ `, s)
	assert.Equal(t, 1, strings.Count(s, "\r\n"))
}
