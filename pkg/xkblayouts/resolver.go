package xkblayouts

import (
	"fmt"

	"codeberg.org/miketth/layoutfix/pkg/layouts"
)

// DefaultCodes maps xkb layout codes to the layouts we can translate.
var DefaultCodes = map[string]layouts.Name{
	"ru": layouts.Russian,
	"us": layouts.English,
}

// Resolver maps xkb keymaps, by code or by pretty name, onto layout names.
// Variants share the code of their base layout, so "Russian (phonetic)"
// resolves like "Russian".
type Resolver struct {
	byKeymap map[string]layouts.Name
	codes    map[string]layouts.Name
}

func NewResolver(registry *Registry, codes map[string]layouts.Name) *Resolver {
	if codes == nil {
		codes = DefaultCodes
	}

	byKeymap := make(map[string]layouts.Name)
	for _, km := range registry.keymaps {
		name, ok := codes[km.Code]
		if !ok {
			continue
		}
		// first description wins, like a linear scan of the rules file would
		if _, seen := byKeymap[km.Description]; !seen {
			byKeymap[km.Description] = name
		}
	}

	return &Resolver{byKeymap: byKeymap, codes: codes}
}

func (r *Resolver) Resolve(prettyName string) (layouts.Name, error) {
	name, ok := r.byKeymap[prettyName]
	if !ok {
		return "", fmt.Errorf("keymap %q: %w", prettyName, layouts.ErrUnknownLayout)
	}
	return name, nil
}

func (r *Resolver) ResolveCode(code string) (layouts.Name, error) {
	name, ok := r.codes[code]
	if !ok {
		return "", fmt.Errorf("xkb layout %q: %w", code, layouts.ErrUnknownLayout)
	}
	return name, nil
}

// CodeFor returns the xkb code configured for a layout.
func (r *Resolver) CodeFor(name layouts.Name) (string, bool) {
	for code, n := range r.codes {
		if n == name {
			return code, true
		}
	}
	return "", false
}
