package xkblayouts

import "encoding/xml"

// Keymap is one selectable xkb keymap: a base layout or one of its variants.
type Keymap struct {
	Code        string
	Variant     string
	Description string
}

// Registry is the flattened keymap list of an xkb rules file.
type Registry struct {
	keymaps []Keymap
}

func (r *Registry) Keymaps() []Keymap {
	out := make([]Keymap, len(r.keymaps))
	copy(out, r.keymaps)
	return out
}

// evdev.xml shapes, only the parts we read

type xkbConfigRegistry struct {
	XMLName    xml.Name      `xml:"xkbConfigRegistry"`
	LayoutList []layoutEntry `xml:"layoutList>layout"`
}

type configItem struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
}

type layoutEntry struct {
	ConfigItem configItem     `xml:"configItem"`
	Variants   []variantEntry `xml:"variantList>variant"`
}

type variantEntry struct {
	ConfigItem configItem `xml:"configItem"`
}
