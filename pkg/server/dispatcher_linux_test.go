//go:build linux

package server

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/filewire/filewire/pkg/store/localfs"
)

// startTestServer spins up a real Server on loopback backed by a
// temporary directory, and returns its address and a cleanup function.
func startTestServer(t *testing.T) (addr string, stop func()) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))

	lst, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	addr = lst.Addr().String()
	require.NoError(t, lst.Close())

	srv := NewServer(Config{ListenAddr: addr}, localfs.New(dir))

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

func TestIntegration_MetadataRoundTrip(t *testing.T) {
	addr, stop := startTestServer(t)
	defer stop()

	conn, err := net.Dial("tcp4", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("get_metadata a.txt\r\n"))
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(conn)
	line1, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "0 OK\r\n", line1)
	line2, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "5\r\n", line2)
}

func TestIntegration_QuitClosesConnection(t *testing.T) {
	addr, stop := startTestServer(t)
	defer stop()

	conn, err := net.Dial("tcp4", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("quit\r\n"))
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "0 OK\r\n", line)

	buf := make([]byte, 16)
	n, err := conn.Read(buf)
	require.Equal(t, 0, n)
	require.Error(t, err) // EOF once the server has drained and closed
}

func TestIntegration_PipeliningInOneWrite(t *testing.T) {
	addr, stop := startTestServer(t)
	defer stop()

	conn, err := net.Dial("tcp4", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("get_metadata a.txt\r\nquit\r\n"))
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(conn)
	var got []byte
	buf := make([]byte, 256)
	for len(got) < len("0 OK\r\n5\r\n0 OK\r\n") {
		n, err := reader.Read(buf)
		got = append(got, buf[:n]...)
		if err != nil {
			break
		}
	}
	require.Equal(t, "0 OK\r\n5\r\n0 OK\r\n", string(got))
}
