// Package wireclient is the client side of the line-oriented wire codec
// implemented by pkg/wire: it writes request lines and parses the framed
// responses the server returns, without pulling in any server-side state.
package wireclient

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Client is a single connection to a filewire server speaking the
// get_file_listing/get_metadata/get_slice/quit protocol.
type Client struct {
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to addr and returns a ready Client.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("wireclient: dial %s: %w", addr, err)
	}
	return &Client{conn: conn, r: bufio.NewReader(conn)}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// ResponseError is returned when the server answers with a non-OK status.
type ResponseError struct {
	Code int
	Desc string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("wireclient: server returned %d %s", e.Code, e.Desc)
}

func (c *Client) setDeadline(ctx context.Context) {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(dl)
	} else {
		_ = c.conn.SetDeadline(time.Time{})
	}
}

func (c *Client) sendLine(ctx context.Context, line string) error {
	c.setDeadline(ctx)
	_, err := c.conn.Write([]byte(line + "\r\n"))
	if err != nil {
		return fmt.Errorf("wireclient: write request: %w", err)
	}
	return nil
}

// readStatusLine reads and parses the "CODE DESC\r\n" status line.
func (c *Client) readStatusLine() (int, string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return 0, "", fmt.Errorf("wireclient: read status line: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")

	idx := strings.IndexByte(line, ' ')
	if idx < 0 {
		return 0, "", fmt.Errorf("wireclient: malformed status line %q", line)
	}
	code, err := strconv.Atoi(line[:idx])
	if err != nil {
		return 0, "", fmt.Errorf("wireclient: malformed status code in %q: %w", line, err)
	}
	return code, line[idx+1:], nil
}

func (c *Client) readLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("wireclient: read line: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// GetFileListing issues get_file_listing and returns the entry names.
func (c *Client) GetFileListing(ctx context.Context) ([]string, error) {
	if err := c.sendLine(ctx, "get_file_listing"); err != nil {
		return nil, err
	}

	code, desc, err := c.readStatusLine()
	if err != nil {
		return nil, err
	}
	if code != 0 {
		return nil, &ResponseError{Code: code, Desc: desc}
	}

	var names []string
	for {
		line, err := c.readLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		names = append(names, line)
	}
	return names, nil
}

// GetMetadata issues get_metadata <name> and returns the file's size.
func (c *Client) GetMetadata(ctx context.Context, name string) (uint64, error) {
	if err := c.sendLine(ctx, "get_metadata "+name); err != nil {
		return 0, err
	}

	code, desc, err := c.readStatusLine()
	if err != nil {
		return 0, err
	}
	if code != 0 {
		return 0, &ResponseError{Code: code, Desc: desc}
	}

	blob, err := c.readLine()
	if err != nil {
		return 0, err
	}
	size, err := strconv.ParseUint(blob, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("wireclient: malformed size %q: %w", blob, err)
	}
	return size, nil
}

// GetSlice issues get_slice <name> <offset> <length> and returns the
// decoded bytes.
func (c *Client) GetSlice(ctx context.Context, name string, offset, length uint64) ([]byte, error) {
	req := fmt.Sprintf("get_slice %s %d %d", name, offset, length)
	if err := c.sendLine(ctx, req); err != nil {
		return nil, err
	}

	code, desc, err := c.readStatusLine()
	if err != nil {
		return nil, err
	}
	if code != 0 {
		return nil, &ResponseError{Code: code, Desc: desc}
	}

	blob, err := c.readLine()
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("wireclient: malformed slice body: %w", err)
	}
	return data, nil
}

// Quit issues quit and closes the connection once the server has
// acknowledged it.
func (c *Client) Quit(ctx context.Context) error {
	if err := c.sendLine(ctx, "quit"); err != nil {
		return err
	}
	code, desc, err := c.readStatusLine()
	if err != nil {
		return err
	}
	if code != 0 {
		return &ResponseError{Code: code, Desc: desc}
	}
	return c.conn.Close()
}
