package hyprland

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/miketth/layoutfix/pkg/layouts"
	"go.uber.org/zap"
)

var (
	ErrKeyboardNotFound    = errors.New("no keyboard found")
	ErrLayoutNotConfigured = errors.New("layout not configured on any keyboard")
)

type keymapResolver interface {
	Resolve(prettyName string) (layouts.Name, error)
	CodeFor(name layouts.Name) (string, bool)
}

// Detector asks hyprland which layout is active and switches it.
type Detector struct {
	hyprctl  *Hyprctl
	resolver keymapResolver
	log      *zap.SugaredLogger
}

func NewDetector(hyprctl *Hyprctl, resolver keymapResolver, log *zap.SugaredLogger) *Detector {
	return &Detector{
		hyprctl:  hyprctl,
		resolver: resolver,
		log:      log,
	}
}

// ActiveLayout reports the layout of the main keyboard, or of the first one
// if none is marked main.
func (d *Detector) ActiveLayout(ctx context.Context) (layouts.Name, error) {
	keyboards, err := d.hyprctl.GetKeyboards(ctx)
	if err != nil {
		return "", fmt.Errorf("get keyboards: %w", err)
	}

	kb, ok := mainKeyboard(keyboards)
	if !ok {
		return "", ErrKeyboardNotFound
	}

	name, err := d.resolver.Resolve(kb.ActiveKeymap)
	if err != nil {
		return "", fmt.Errorf("keyboard %q: %w", kb.Name, err)
	}

	d.log.Debugw("detected layout", "keyboard", kb.Name, "keymap", kb.ActiveKeymap, "layout", name)
	return name, nil
}

func mainKeyboard(keyboards []Keyboard) (Keyboard, bool) {
	for _, k := range keyboards {
		if k.Main {
			return k, true
		}
	}
	if len(keyboards) == 0 {
		return Keyboard{}, false
	}
	return keyboards[0], true
}

// Activate switches every keyboard that has the layout configured, the main
// keyboard first. A keyboard that fails to switch does not stop the others.
func (d *Detector) Activate(ctx context.Context, layout layouts.Name) error {
	code, ok := d.resolver.CodeFor(layout)
	if !ok {
		return fmt.Errorf("no xkb code for %q: %w", layout, layouts.ErrUnknownLayout)
	}

	keyboards, err := d.hyprctl.GetKeyboards(ctx)
	if err != nil {
		return fmt.Errorf("get keyboards: %w", err)
	}

	var (
		errs     []error
		attempts int
	)
	for _, kb := range mainFirst(keyboards) {
		idx := layoutIndex(kb, code)
		if idx < 0 {
			continue
		}
		attempts++

		if err := d.hyprctl.SwitchToLayout(ctx, kb.Name, idx); err != nil {
			d.log.Warnw("failed to switch layout", "keyboard", kb.Name, "layout", layout, "error", err)
			errs = append(errs, fmt.Errorf("switch %q to %s: %w", kb.Name, code, err))
			continue
		}
		d.log.Debugw("switched layout", "keyboard", kb.Name, "layout", layout, "idx", idx)
	}

	if attempts == 0 {
		return fmt.Errorf("%s (%s): %w", layout, code, ErrLayoutNotConfigured)
	}

	return errors.Join(errs...)
}

func mainFirst(keyboards []Keyboard) []Keyboard {
	out := make([]Keyboard, 0, len(keyboards))
	for _, k := range keyboards {
		if k.Main {
			out = append(out, k)
		}
	}
	for _, k := range keyboards {
		if !k.Main {
			out = append(out, k)
		}
	}
	return out
}

func layoutIndex(kb Keyboard, code string) int {
	for i, l := range kb.Layouts {
		if l == code {
			return i
		}
	}
	return -1
}
