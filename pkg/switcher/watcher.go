package switcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"codeberg.org/miketth/layoutfix/pkg/layouts"
	"go.uber.org/zap"
)

var ErrNoActiveLayout = errors.New("no active layout known")

// Watcher follows compositor events and remembers which layout is active.
type Watcher struct {
	lock         sync.RWMutex
	activeLayout layouts.Name
	seen         bool

	listener EventListener
	resolver KeymapResolver
	fallback LayoutDetector
	log      *zap.SugaredLogger
}

// NewWatcher creates a Watcher. fallback, if not nil, answers ActiveLayout
// until the first layout event arrives.
func NewWatcher(
	listener EventListener,
	resolver KeymapResolver,
	fallback LayoutDetector,
	log *zap.SugaredLogger,
) *Watcher {
	return &Watcher{
		listener: listener,
		resolver: resolver,
		fallback: fallback,
		log:      log,
	}
}

func (w *Watcher) ProcessLines(ctx context.Context) error {
	for {
		resultCh := make(chan string, 1)
		errCh := make(chan error, 1)
		go func() {
			line, err := w.listener.ReadLine()
			if err != nil {
				errCh <- err
				return
			}
			resultCh <- line
		}()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case line := <-resultCh:
			err := w.processLine(line)
			if err != nil {
				return fmt.Errorf("process line: %w", err)
			}
		case err := <-errCh:
			return fmt.Errorf("get line: %w", err)
		}
	}
}

func (w *Watcher) processLine(line string) error {
	fields := strings.SplitN(line, ">>", 2)
	if len(fields) < 2 {
		w.log.Warnw("skipping malformed event", "line", line)
		return nil
	}

	evType := fields[0]
	evData := fields[1]
	switch evType {
	case "activelayout":
		return w.processLayoutChange(evData)
	}

	return nil
}

func (w *Watcher) processLayoutChange(data string) error {
	dataParts := strings.Split(data, ",")
	if len(dataParts) < 2 {
		w.log.Warnw("skipping malformed layout event", "data", data)
		return nil
	}

	keyboardName := dataParts[0]
	keymap := strings.Join(dataParts[1:], ",")

	name, err := w.resolver.Resolve(keymap)
	switch {
	case errors.Is(err, layouts.ErrUnknownLayout):
		// a layout we cannot translate, e.g. a third one configured in the compositor
		w.log.Debugw("ignoring untranslatable layout", "keyboard", keyboardName, "keymap", keymap)
		name = ""
	case err != nil:
		return fmt.Errorf("resolve keymap %q: %w", keymap, err)
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	w.seen = true
	w.activeLayout = name
	w.log.Debugw("active layout changed", "keyboard", keyboardName, "layout", name)

	return nil
}

func (w *Watcher) ActiveLayout(ctx context.Context) (layouts.Name, error) {
	w.lock.RLock()
	active := w.activeLayout
	seen := w.seen
	w.lock.RUnlock()

	if active != "" {
		return active, nil
	}
	if !seen && w.fallback != nil {
		return w.fallback.ActiveLayout(ctx)
	}

	return "", ErrNoActiveLayout
}
