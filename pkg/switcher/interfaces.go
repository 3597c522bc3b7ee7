package switcher

import (
	"context"

	"codeberg.org/miketth/layoutfix/pkg/layouts"
)

// LayoutDetector reports the layout the OS currently has active for the
// focused input.
type LayoutDetector interface {
	ActiveLayout(ctx context.Context) (layouts.Name, error)
}

// LayoutActivator makes the OS switch its active layout.
type LayoutActivator interface {
	Activate(ctx context.Context, layout layouts.Name) error
}

type EventListener interface {
	ReadLine() (string, error)
}

// KeymapResolver turns a compositor's human readable keymap name
// ("Russian", "English (US)") into a layout name.
type KeymapResolver interface {
	Resolve(prettyName string) (layouts.Name, error)
}

type SessionStore interface {
	GetSession(name string) (SessionState, bool, error)
	SetSession(name string, state SessionState) error
	DeleteSession(name string) error
}
