package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"codeberg.org/miketth/layoutfix/pkg/config"
	"codeberg.org/miketth/layoutfix/pkg/hyprland"
	"codeberg.org/miketth/layoutfix/pkg/layouts"
	"codeberg.org/miketth/layoutfix/pkg/sessionstore/json"
	"codeberg.org/miketth/layoutfix/pkg/sessionstore/memory"
	"codeberg.org/miketth/layoutfix/pkg/sessionstore/sqlite"
	"codeberg.org/miketth/layoutfix/pkg/switcher"
	"codeberg.org/miketth/layoutfix/pkg/xkblayouts"
	"go.uber.org/zap"
)

const saveInterval = time.Minute

type sessionStore interface {
	switcher.SessionStore
	io.Closer
}

func newSwitcher(cfg *config.Config) (*switcher.Switcher, error) {
	var opts []switcher.Option
	for source, cycle := range cfg.CycleOverrides() {
		opts = append(opts, switcher.WithCycle(source, cycle...))
	}

	return switcher.NewSwitcher(layouts.Default, opts...)
}

// openStore opens the configured session store. The returned saver is not
// nil for stores that buffer writes and need a background loop in a daemon.
func openStore(cfg *config.Config, log *zap.SugaredLogger) (sessionStore, func(context.Context) error, error) {
	if cfg.Store.Backend == config.BackendMemory {
		return memory.NewSessionStore(), nil, nil
	}

	path, err := cfg.StorePath()
	if err != nil {
		return nil, nil, err
	}
	log.Debugw("opening session store", "backend", cfg.Store.Backend, "path", path)

	switch cfg.Store.Backend {
	case config.BackendJSON:
		store, err := json.NewSessionStore(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open json store: %w", err)
		}
		saver := func(ctx context.Context) error {
			return store.SaveLooper(ctx, saveInterval)
		}
		return store, saver, nil
	case config.BackendSQLite:
		store, err := sqlite.NewSessionStore(path, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// osLayouts is what hyprland offers; nil when disabled or not running.
type osLayouts interface {
	switcher.LayoutDetector
	switcher.LayoutActivator
}

type hyprlandIntegration struct {
	detector *hyprland.Detector
	resolver *xkblayouts.Resolver
}

func newHyprland(cfg *config.Config, log *zap.SugaredLogger) (*hyprlandIntegration, error) {
	if !cfg.Hyprland.Enabled {
		return nil, nil
	}

	registry, err := xkblayouts.ParseLayouts(cfg.Hyprland.EvdevXML)
	if err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}
	resolver := xkblayouts.NewResolver(registry, cfg.XkbCodes())

	hyprctl, err := hyprland.NewHyprctl()
	if err != nil {
		return nil, fmt.Errorf("connect hyprctl: %w", err)
	}

	return &hyprlandIntegration{
		detector: hyprland.NewDetector(hyprctl, resolver, log),
		resolver: resolver,
	}, nil
}

// osLayoutsOrNil keeps a nil *Detector from turning into a non-nil interface.
func (h *hyprlandIntegration) osLayoutsOrNil() osLayouts {
	if h == nil {
		return nil
	}
	return h.detector
}
