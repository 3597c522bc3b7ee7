package layouts

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownLayout      = errors.New("unknown layout")
	ErrInvariantViolation = errors.New("layout invariant violated")
)

// Registry is read-only after construction and safe for concurrent use.
type Registry struct {
	tables map[Name]Table
	order  []Name
}

func NewRegistry(tables ...Table) (*Registry, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("empty registry: %w", ErrInvariantViolation)
	}

	r := &Registry{
		tables: make(map[Name]Table, len(tables)),
		order:  make([]Name, 0, len(tables)),
	}

	size := tables[0].Len()
	for _, t := range tables {
		if t.Name() == "" {
			return nil, fmt.Errorf("table without a name: %w", ErrInvariantViolation)
		}
		if _, ok := r.tables[t.Name()]; ok {
			return nil, fmt.Errorf("duplicate layout %q: %w", t.Name(), ErrInvariantViolation)
		}
		if t.Len() != size {
			return nil, fmt.Errorf(
				"layout %q has %d keys, %q has %d: %w",
				t.Name(), t.Len(), tables[0].Name(), size, ErrInvariantViolation,
			)
		}
		if err := checkUnique(t); err != nil {
			return nil, err
		}

		r.tables[t.Name()] = t
		r.order = append(r.order, t.Name())
	}

	return r, nil
}

func checkUnique(t Table) error {
	seen := make(map[rune]int, t.Len())
	for i, c := range t.alphabet {
		if j, ok := seen[c]; ok {
			return fmt.Errorf("layout %q repeats %q at keys %d and %d: %w", t.Name(), c, j, i, ErrInvariantViolation)
		}
		seen[c] = i
	}
	return nil
}

func (r *Registry) Get(name Name) (Table, error) {
	t, ok := r.tables[name]
	if !ok {
		return Table{}, fmt.Errorf("%q: %w", name, ErrUnknownLayout)
	}
	return t, nil
}

// Names returns the registered layouts in registration order.
func (r *Registry) Names() []Name {
	out := make([]Name, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Tables() []Table {
	out := make([]Table, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.tables[n])
	}
	return out
}

// ParseName normalizes user input (flags, config) into a registered layout name.
func (r *Registry) ParseName(s string) (Name, error) {
	name := Name(strings.ToLower(strings.TrimSpace(s)))
	if _, err := r.Get(name); err != nil {
		return "", err
	}
	return name, nil
}

func ParseName(s string) (Name, error) {
	return Default.ParseName(s)
}
