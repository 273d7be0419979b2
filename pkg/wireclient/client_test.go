//go:build linux

package wireclient

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filewire/filewire/pkg/server"
	"github.com/filewire/filewire/pkg/store/localfs"
)

func startTestServer(t *testing.T) (addr string, stop func()) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello world"), 0o644))

	lst, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	addr = lst.Addr().String()
	require.NoError(t, lst.Close())

	srv := server.NewServer(server.Config{ListenAddr: addr}, localfs.New(dir))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp4", addr, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	return addr, func() {
		cancel()
		srv.Stop()
		<-done
	}
}

func TestClient_FullRoundTrip(t *testing.T) {
	addr, stop := startTestServer(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := Dial(ctx, addr)
	require.NoError(t, err)
	defer c.Close()

	names, err := c.GetFileListing(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, names)

	size, err := c.GetMetadata(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, uint64(11), size)

	data, err := c.GetSlice(ctx, "a.txt", 6, 5)
	require.NoError(t, err)
	assert.Equal(t, "world", string(data))

	require.NoError(t, c.Quit(ctx))
}

func TestClient_GetMetadata_NotFound(t *testing.T) {
	addr, stop := startTestServer(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := Dial(ctx, addr)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.GetMetadata(ctx, "missing.txt")
	require.Error(t, err)
	var respErr *ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, 202, respErr.Code)
}
