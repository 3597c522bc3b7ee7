package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/miketth/layoutfix/pkg/layouts"
	"codeberg.org/miketth/layoutfix/pkg/sessionstore/memory"
	"codeberg.org/miketth/layoutfix/pkg/switcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type fakeOS struct {
	active    layouts.Name
	err       error
	activated []layouts.Name
}

func (f *fakeOS) ActiveLayout(context.Context) (layouts.Name, error) {
	return f.active, f.err
}

func (f *fakeOS) Activate(_ context.Context, l layouts.Name) error {
	f.activated = append(f.activated, l)
	return nil
}

func newTestServer(t *testing.T, osLayouts *fakeOS) *Server {
	t.Helper()
	sw, err := switcher.NewSwitcher(layouts.Default)
	require.NoError(t, err)

	if osLayouts == nil {
		return New(sw, memory.NewSessionStore(), nil, nil, zap.NewNop().Sugar())
	}
	return New(sw, memory.NewSessionStore(), osLayouts, osLayouts, zap.NewNop().Sugar())
}

func TestHandleTranslate(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	resp := s.Handle(ctx, Request{Op: OpTranslate, From: "english", To: "russian", Text: "qwerty"})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "йцукен", resp.Text)

	resp = s.Handle(ctx, Request{Op: OpTranslate, From: "german", To: "russian", Text: "x"})
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "unknown layout")

	resp = s.Handle(ctx, Request{Op: OpTranslate, To: "russian", Text: "x"})
	assert.False(t, resp.OK, "no detector configured")

	resp = s.Handle(ctx, Request{Op: "frobnicate"})
	assert.False(t, resp.OK)
}

func TestHandleSessions(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	resp := s.Handle(ctx, Request{Op: OpStart, Source: "english", Text: "test"})
	require.True(t, resp.OK, resp.Error)
	require.NotEmpty(t, resp.Session)
	assert.Equal(t, "еуые", resp.Text)
	assert.Equal(t, "russian", resp.Target)

	id := resp.Session

	resp = s.Handle(ctx, Request{Op: OpNext, Session: id})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "test", resp.Text)
	assert.Equal(t, "english", resp.Target)

	resp = s.Handle(ctx, Request{Op: OpNext, Session: id})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "еуые", resp.Text)

	resp = s.Handle(ctx, Request{Op: OpNext, Session: "missing"})
	assert.False(t, resp.OK)

	resp = s.Handle(ctx, Request{Op: OpNext})
	assert.False(t, resp.OK)

	resp = s.Handle(ctx, Request{Op: OpEnd, Session: id})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, id, resp.Session)

	_, ok, err := s.store.GetSession(id)
	require.NoError(t, err)
	assert.False(t, ok, "ended session is removed from the store")

	resp = s.Handle(ctx, Request{Op: OpNext, Session: id})
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, ErrSessionNotFound.Error())
}

func TestHandleEnd(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		session string
		wantErr string
	}{
		{"no session", "", "end needs a session"},
		{"unknown session", "missing", ErrSessionNotFound.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.Handle(ctx, Request{Op: OpEnd, Session: tt.session})
			assert.False(t, resp.OK)
			assert.Contains(t, resp.Error, tt.wantErr)
		})
	}

	resp := s.Handle(ctx, Request{Op: OpStart, Source: "russian", Text: "x", Session: "hotkey"})
	require.True(t, resp.OK, resp.Error)
	require.True(t, s.Handle(ctx, Request{Op: OpEnd, Session: "hotkey"}).OK)
	assert.False(t, s.Handle(ctx, Request{Op: OpEnd, Session: "hotkey"}).OK, "a session ends once")
}

func TestHandleNamedSession(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	resp := s.Handle(ctx, Request{Op: OpStart, Source: "russian", Text: "руддщ", Session: "hotkey"})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "hotkey", resp.Session)
	assert.Equal(t, "hello", resp.Text)

	_, ok, err := s.store.GetSession("hotkey")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHandleDetectAndActivate(t *testing.T) {
	os := &fakeOS{active: layouts.Russian}
	s := newTestServer(t, os)
	ctx := context.Background()

	resp := s.Handle(ctx, Request{Op: OpDetect})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "russian", resp.Source)

	resp = s.Handle(ctx, Request{Op: OpStart, Text: "ghbdtn", Activate: true})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "russian", resp.Source, "source detected from the OS")
	assert.Equal(t, "english", resp.Target)
	assert.Equal(t, []layouts.Name{layouts.English}, os.activated)

	os.err = errors.New("compositor gone")
	resp = s.Handle(ctx, Request{Op: OpStart, Text: "x"})
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "compositor gone")
}

func TestHandleLayouts(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.Handle(context.Background(), Request{Op: OpLayouts})
	require.True(t, resp.OK, resp.Error)
	require.Len(t, resp.Layouts, 2)
	assert.Equal(t, "russian", resp.Layouts[0].Name)
	assert.Equal(t, []string{"english", "russian"}, resp.Layouts[0].Cycle)
}

func TestServe(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newTestServer(t, nil)
	ln, err := net.Listen("unix", filepath.Join(t.TempDir(), "s.sock"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- s.Serve(ctx, ln)
	}()

	conn, err := net.Dial("unix", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	enc := json.NewEncoder(conn)
	dec := json.NewDecoder(bufio.NewReader(conn))

	require.NoError(t, enc.Encode(Request{Op: OpStart, Source: "english", Text: "hello, world!"}))
	var resp Response
	require.NoError(t, dec.Decode(&resp))
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "руддщб цщкдв!", resp.Text)

	require.NoError(t, enc.Encode(Request{Op: OpNext, Session: resp.Session}))
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, "hello, world!", resp.Text)

	_, err = conn.Write([]byte("{broken\n"))
	require.NoError(t, err)
	resp = Response{}
	require.NoError(t, dec.Decode(&resp))
	assert.False(t, resp.OK)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestServeOversizedRequest(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newTestServer(t, nil)
	ln, err := net.Listen("unix", filepath.Join(t.TempDir(), "s.sock"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- s.Serve(ctx, ln)
	}()

	conn, err := net.Dial("unix", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// the server stops reading part way, so the rest of the write fails
	written := make(chan struct{})
	go func() {
		defer close(written)
		_, _ = conn.Write([]byte(strings.Repeat("a", 2*maxRequestSize) + "\n"))
	}()

	var resp Response
	require.NoError(t, json.NewDecoder(conn).Decode(&resp))
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "token too long")

	conn.Close()
	<-written

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
