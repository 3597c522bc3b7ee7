package switcher

import (
	"context"
	"errors"
	"io"
	"testing"

	"codeberg.org/miketth/layoutfix/pkg/layouts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type chanListener struct {
	lines chan string
}

func (l *chanListener) ReadLine() (string, error) {
	line, ok := <-l.lines
	if !ok {
		return "", io.EOF
	}
	return line, nil
}

type mapResolver map[string]layouts.Name

func (m mapResolver) Resolve(pretty string) (layouts.Name, error) {
	name, ok := m[pretty]
	if !ok {
		return "", layouts.ErrUnknownLayout
	}
	return name, nil
}

type staticDetector layouts.Name

func (d staticDetector) ActiveLayout(context.Context) (layouts.Name, error) {
	return layouts.Name(d), nil
}

var testResolver = mapResolver{
	"Russian":      layouts.Russian,
	"English (US)": layouts.English,
}

func TestWatcherTracksLayout(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := &chanListener{lines: make(chan string, 10)}
	w := NewWatcher(l, testResolver, nil, zap.NewNop().Sugar())

	l.lines <- "activewindow>>kitty,~"
	l.lines <- "activelayout>>at-translated-set-2-keyboard,Russian"
	l.lines <- "activelayout>>usb-kbd,English (US)"
	close(l.lines)

	err := w.ProcessLines(context.Background())
	require.ErrorIs(t, err, io.EOF)

	got, err := w.ActiveLayout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, layouts.English, got, "last event wins across keyboards")
}

func TestWatcherUntranslatableLayout(t *testing.T) {
	l := &chanListener{lines: make(chan string, 10)}
	w := NewWatcher(l, testResolver, staticDetector(layouts.Russian), zap.NewNop().Sugar())

	got, err := w.ActiveLayout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, layouts.Russian, got, "fallback before any event")

	require.NoError(t, w.processLine("activelayout>>kbd,German"))

	_, err = w.ActiveLayout(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveLayout)
}

func TestWatcherInvalidLines(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []struct {
		name string
		line string
	}{
		{"no separator", "garbage"},
		{"layout without keymap", "activelayout>>nocomma"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &chanListener{lines: make(chan string, 2)}
			w := NewWatcher(l, testResolver, nil, zap.NewNop().Sugar())

			l.lines <- tt.line
			l.lines <- "activelayout>>kbd,Russian"
			close(l.lines)

			err := w.ProcessLines(context.Background())
			require.ErrorIs(t, err, io.EOF, "malformed lines must not stop the loop")

			got, err := w.ActiveLayout(context.Background())
			require.NoError(t, err)
			assert.Equal(t, layouts.Russian, got)
		})
	}
}

func TestWatcherMalformedLineKeepsState(t *testing.T) {
	w := NewWatcher(nil, testResolver, nil, zap.NewNop().Sugar())

	require.NoError(t, w.processLine("garbage"))
	require.NoError(t, w.processLine("activelayout>>nocomma"))

	_, err := w.ActiveLayout(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveLayout)
}

func TestWatcherStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := &chanListener{lines: make(chan string)}
	w := NewWatcher(l, testResolver, nil, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- w.ProcessLines(ctx)
	}()

	l.lines <- "activelayout>>kbd,Russian"
	cancel()
	err := <-done
	assert.True(t, errors.Is(err, context.Canceled))

	// unblock the pending read
	close(l.lines)
}
