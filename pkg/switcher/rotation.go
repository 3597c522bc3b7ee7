package switcher

import "codeberg.org/miketth/layoutfix/pkg/layouts"

// Rotation cycles through target layouts forever.
type Rotation struct {
	i          int
	candidates []layouts.Name
}

func NewRotation(candidates []layouts.Name) *Rotation {
	c := make([]layouts.Name, len(candidates))
	copy(c, candidates)
	return &Rotation{candidates: c}
}

func (r *Rotation) Current() layouts.Name {
	return r.candidates[r.i]
}

func (r *Rotation) Advance() layouts.Name {
	r.i = (r.i + 1) % len(r.candidates)
	return r.candidates[r.i]
}

func (r *Rotation) Cursor() int {
	return r.i
}

func (r *Rotation) Len() int {
	return len(r.candidates)
}
