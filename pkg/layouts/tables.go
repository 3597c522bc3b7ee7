package layouts

// Both alphabets follow the same key order: the number row glyphs that differ
// between the layouts, then the letter rows, then the shifted variants.
const (
	russianAlphabet = `ё"№;:?йцукенгшщзхъфывапролджэячсмитьбю.ЁЙЦУКЕНГШЩЗХЪ/ФЫВАПРОЛДЖЭЯЧСМИТЬБЮ,`
	englishAlphabet = "`@#$^&qwertyuiop[]asdfghjkl;'zxcvbnm,./~QWERTYUIOP{}|ASDFGHJKL:\"ZXCVBNM<>?"
)

var Default = mustRegistry(
	NewTable(Russian, russianAlphabet),
	NewTable(English, englishAlphabet),
)

func mustRegistry(tables ...Table) *Registry {
	r, err := NewRegistry(tables...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get looks up a table in the built-in registry.
func Get(name Name) (Table, error) {
	return Default.Get(name)
}
