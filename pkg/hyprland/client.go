package hyprland

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"
)

// Client reads the event stream of socket2.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) ReadLine() (string, error) {
	str, err := c.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read from hypr socket: %w", err)
	}
	return strings.TrimSuffix(str, "\n"), nil
}

func Connect(ctx context.Context) (*Client, error) {
	conn, err := connect(ctx, eventSocket)
	if err != nil {
		return nil, err
	}
	// the event stream lives until Close, not until ctx's deadline
	_ = conn.SetDeadline(time.Time{})

	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}
