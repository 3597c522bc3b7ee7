package hyprland

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

var ErrNotRunning = errors.New("hyprland might not be running")

type socketType int

const (
	hyprctlSocket socketType = iota
	eventSocket
)

func connect(ctx context.Context, sock socketType) (net.Conn, error) {
	socketPath, err := getSocketPath(sock)
	if err != nil {
		return nil, fmt.Errorf("get socket path: %w", err)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	return conn, nil
}

// instanceDir finds the sockets of the running instance. Hyprland moved them
// from /tmp/hypr to $XDG_RUNTIME_DIR/hypr in 0.40.
func instanceDir() (string, error) {
	signature := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if signature == "" {
		return "", fmt.Errorf("HYPRLAND_INSTANCE_SIGNATURE is not set, %w", ErrNotRunning)
	}

	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		dir := filepath.Join(runtimeDir, "hypr", signature)
		if _, err := os.Stat(dir); err == nil {
			return dir, nil
		}
	}

	return filepath.Join("/tmp/hypr", signature), nil
}

func getSocketPath(sock socketType) (string, error) {
	dir, err := instanceDir()
	if err != nil {
		return "", err
	}

	switch sock {
	case hyprctlSocket:
		return filepath.Join(dir, ".socket.sock"), nil
	case eventSocket:
		return filepath.Join(dir, ".socket2.sock"), nil
	}

	return "", fmt.Errorf("unknown socket type: %d", sock)
}
