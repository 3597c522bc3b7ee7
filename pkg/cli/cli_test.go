package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codeberg.org/miketth/layoutfix/pkg/server"
	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(strings.NewReader(stdin), &out)
	cmd.SetArgs(append([]string{"--hyprland=false", "--log-level=error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTranslateCommand(t *testing.T) {
	isolate(t)

	out, err := run(t, "", "translate", "--from", "english", "--to", "russian", "hello,", "world!")
	require.NoError(t, err)
	assert.Equal(t, "руддщб цщкдв!\n", out)

	out, err = run(t, "Ghbdtn\n", "translate", "--from", "English", "--to", "russian")
	require.NoError(t, err)
	assert.Equal(t, "Привет\n", out)

	_, err = run(t, "", "translate", "--from", "german", "--to", "russian", "x")
	assert.ErrorContains(t, err, "unknown layout")
}

func TestStartNextAcrossInvocations(t *testing.T) {
	for _, backend := range []string{"json", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			dir := isolate(t)
			store := []string{"--store-backend", backend, "--store-path", filepath.Join(dir, "sessions."+backend)}

			out, err := run(t, "", append(store, "start", "--source", "english", "test")...)
			require.NoError(t, err)
			assert.Equal(t, "еуые\n", out)

			out, err = run(t, "", append(store, "next")...)
			require.NoError(t, err)
			assert.Equal(t, "test\n", out)

			out, err = run(t, "", append(store, "next")...)
			require.NoError(t, err)
			assert.Equal(t, "еуые\n", out)
		})
	}
}

func TestNamedSessions(t *testing.T) {
	dir := isolate(t)
	store := []string{"--store-path", filepath.Join(dir, "s.json")}

	_, err := run(t, "", append(store, "start", "--source", "russian", "--session", "a", "руддщ")...)
	require.NoError(t, err)
	_, err = run(t, "", append(store, "start", "--source", "english", "--session", "b", "qwe")...)
	require.NoError(t, err)

	out, err := run(t, "", append(store, "next", "--session", "a")...)
	require.NoError(t, err)
	assert.Equal(t, "руддщ\n", out)

	_, err = run(t, "", append(store, "next", "--session", "c")...)
	assert.ErrorContains(t, err, `no session "c"`)
}

func TestEndSession(t *testing.T) {
	for _, backend := range []string{"json", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			dir := isolate(t)
			store := []string{"--store-backend", backend, "--store-path", filepath.Join(dir, "sessions."+backend)}

			_, err := run(t, "", append(store, "start", "--source", "english", "--session", "a", "qwe")...)
			require.NoError(t, err)
			_, err = run(t, "", append(store, "start", "--source", "english", "qwe")...)
			require.NoError(t, err)

			out, err := run(t, "", append(store, "end", "--session", "a")...)
			require.NoError(t, err)
			assert.Empty(t, out)

			_, err = run(t, "", append(store, "next", "--session", "a")...)
			assert.ErrorContains(t, err, `no session "a"`)

			_, err = run(t, "", append(store, "end", "--session", "a")...)
			assert.ErrorContains(t, err, `no session "a"`)

			out, err = run(t, "", append(store, "next")...)
			require.NoError(t, err, "other sessions survive")
			assert.Equal(t, "qwe\n", out)

			_, err = run(t, "", append(store, "end")...)
			require.NoError(t, err)
			_, err = run(t, "", append(store, "next")...)
			assert.Error(t, err)
		})
	}
}

func TestStartNeedsSource(t *testing.T) {
	isolate(t)

	_, err := run(t, "", "start", "text")
	assert.Error(t, err)

	_, err = run(t, "", "--store-backend", "memory", "start", "--source", "english", "--activate", "text")
	assert.ErrorContains(t, err, "hyprland")
}

func TestConfigCycle(t *testing.T) {
	dir := isolate(t)
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("layouts:\n  cycles:\n    english: [english, russian]\n"), 0o600))

	out, err := run(t, "", "--config", cfg, "--store-backend", "memory", "start", "--source", "english", "qwe")
	require.NoError(t, err)
	assert.Equal(t, "qwe\n", out)

	out, err = run(t, "", "--config", cfg, "layouts")
	require.NoError(t, err)
	assert.Contains(t, out, "english\tenglish -> russian\t")
	assert.Contains(t, out, "russian\tenglish -> russian\t")
}

func TestInvalidConfig(t *testing.T) {
	isolate(t)

	_, err := run(t, "", "--store-backend", "redis", "layouts")
	assert.ErrorContains(t, err, "store.backend")
}

func TestServeCommand(t *testing.T) {
	dir := isolate(t)
	socket := filepath.Join(dir, "lf.sock")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error)
	go func() {
		cmd := NewRootCommand(strings.NewReader(""), &bytes.Buffer{})
		cmd.SetArgs([]string{"--hyprland=false", "--log-level=error", "--store-backend", "memory", "serve", "--socket", socket})
		done <- cmd.ExecuteContext(ctx)
	}()

	var conn net.Conn
	require.Eventually(t, func() bool {
		var err error
		conn, err = net.Dial("unix", socket)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
	defer conn.Close()

	require.NoError(t, json.NewEncoder(conn).Encode(server.Request{
		Op: server.OpTranslate, From: "russian", To: "english", Text: "йцукен",
	}))

	var resp server.Response
	require.NoError(t, json.NewDecoder(bufio.NewReader(conn)).Decode(&resp))
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "qwerty", resp.Text)

	cancel()
	assert.NoError(t, <-done, "cancellation is a clean shutdown")
}
