package switcher

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"codeberg.org/miketth/layoutfix/pkg/layouts"
)

// Mapping substitutes glyphs of one layout with the glyphs on the same keys of
// another.
type Mapping map[rune]rune

func BuildMapping(from, to layouts.Table) (Mapping, error) {
	if from.Len() != to.Len() {
		return nil, fmt.Errorf(
			"map %q (%d keys) to %q (%d keys): %w",
			from.Name(), from.Len(), to.Name(), to.Len(), layouts.ErrInvariantViolation,
		)
	}

	m := make(Mapping, from.Len())
	for i := 0; i < from.Len(); i++ {
		m[from.At(i)] = to.At(i)
	}
	return m, nil
}

// Translate substitutes every mapped rune and copies everything else,
// including invalid UTF-8, byte for byte.
func (m Mapping) Translate(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if to, ok := m[r]; ok {
			b.WriteRune(to)
		} else {
			b.WriteString(text[i : i+size])
		}
		i += size
	}

	return b.String()
}
