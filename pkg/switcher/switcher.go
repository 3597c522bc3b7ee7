package switcher

import (
	"fmt"

	"codeberg.org/miketth/layoutfix/pkg/layouts"
)

type pair struct {
	from, to layouts.Name
}

// Switcher translates text between the layouts of a registry. Its mappings are
// built once in NewSwitcher and never written again, so it can be shared.
type Switcher struct {
	registry *layouts.Registry
	mappings map[pair]Mapping
	cycles   map[layouts.Name][]layouts.Name
}

type Option func(*Switcher) error

// WithCycle sets the order in which sessions started from source try targets.
func WithCycle(source layouts.Name, candidates ...layouts.Name) Option {
	return func(s *Switcher) error {
		if _, err := s.registry.Get(source); err != nil {
			return fmt.Errorf("cycle source: %w", err)
		}
		if len(candidates) == 0 {
			return fmt.Errorf("empty cycle for %q", source)
		}
		for _, c := range candidates {
			if _, err := s.registry.Get(c); err != nil {
				return fmt.Errorf("cycle candidate for %q: %w", source, err)
			}
		}

		s.cycles[source] = append([]layouts.Name(nil), candidates...)
		return nil
	}
}

func NewSwitcher(registry *layouts.Registry, opts ...Option) (*Switcher, error) {
	s := &Switcher{
		registry: registry,
		mappings: make(map[pair]Mapping),
		cycles:   make(map[layouts.Name][]layouts.Name),
	}

	tables := registry.Tables()
	for _, from := range tables {
		for _, to := range tables {
			if from.Name() == to.Name() {
				continue
			}
			m, err := BuildMapping(from, to)
			if err != nil {
				return nil, fmt.Errorf("build mapping: %w", err)
			}
			s.mappings[pair{from.Name(), to.Name()}] = m
		}
		s.cycles[from.Name()] = defaultCycle(registry.Names(), from.Name())
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// defaultCycle tries every other layout first and the source itself last,
// which leaves the text as typed.
func defaultCycle(names []layouts.Name, source layouts.Name) []layouts.Name {
	cycle := make([]layouts.Name, 0, len(names))
	for _, n := range names {
		if n != source {
			cycle = append(cycle, n)
		}
	}
	return append(cycle, source)
}

func (s *Switcher) Registry() *layouts.Registry {
	return s.registry
}

// Cycle returns the targets a session started from source rotates through.
func (s *Switcher) Cycle(source layouts.Name) ([]layouts.Name, error) {
	if _, err := s.registry.Get(source); err != nil {
		return nil, err
	}
	return append([]layouts.Name(nil), s.cycles[source]...), nil
}

// Translate retypes text as if its keys had been pressed under the to layout
// instead of the from layout.
func (s *Switcher) Translate(text string, from, to layouts.Name) (string, error) {
	if _, err := s.registry.Get(from); err != nil {
		return "", fmt.Errorf("source layout: %w", err)
	}
	if _, err := s.registry.Get(to); err != nil {
		return "", fmt.Errorf("target layout: %w", err)
	}

	return s.translate(text, from, to), nil
}

func (s *Switcher) translate(text string, from, to layouts.Name) string {
	if from == to {
		return text
	}
	return s.mappings[pair{from, to}].Translate(text)
}

func (s *Switcher) StartSession(source layouts.Name, text string) (*Session, error) {
	return s.RestoreSession(SessionState{Source: source, Text: text})
}

// RestoreSession rebuilds a session from a saved state. Out of range cursors
// are wrapped onto the cycle.
func (s *Switcher) RestoreSession(state SessionState) (*Session, error) {
	if _, err := s.registry.Get(state.Source); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	rotation := NewRotation(s.cycles[state.Source])
	cursor := state.Cursor % rotation.Len()
	if cursor < 0 {
		cursor += rotation.Len()
	}
	rotation.i = cursor

	sess := &Session{
		sw:       s,
		source:   state.Source,
		text:     state.Text,
		rotation: rotation,
	}
	sess.current = s.translate(sess.text, sess.source, rotation.Current())

	return sess, nil
}
