package layouts

// Name identifies a keyboard layout.
type Name string

const (
	Russian Name = "russian"
	English Name = "english"
)

func (n Name) String() string {
	return string(n)
}

// Table is the ordered set of glyphs a layout produces, one per physical key
// position. Position i of every table in a registry is the same physical key.
type Table struct {
	name     Name
	alphabet []rune
}

func NewTable(name Name, alphabet string) Table {
	return Table{
		name:     name,
		alphabet: []rune(alphabet),
	}
}

func (t Table) Name() Name {
	return t.name
}

func (t Table) Len() int {
	return len(t.alphabet)
}

// Alphabet returns a copy of the table's glyphs in key order.
func (t Table) Alphabet() []rune {
	out := make([]rune, len(t.alphabet))
	copy(out, t.alphabet)
	return out
}

func (t Table) At(i int) rune {
	return t.alphabet[i]
}

// Index returns the key position of r, or -1 if the layout does not produce r.
func (t Table) Index(r rune) int {
	for i, c := range t.alphabet {
		if c == r {
			return i
		}
	}
	return -1
}
