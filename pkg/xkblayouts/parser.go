package xkblayouts

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

func ParseLayouts(path string) (*Registry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// Decode reads an xkb rules registry and lists every layout followed by its
// variants, in file order.
func Decode(r io.Reader) (*Registry, error) {
	var raw xkbConfigRegistry
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}

	registry := &Registry{}
	for _, l := range raw.LayoutList {
		code := l.ConfigItem.Name
		registry.keymaps = append(registry.keymaps, Keymap{
			Code:        code,
			Description: l.ConfigItem.Description,
		})

		for _, v := range l.Variants {
			registry.keymaps = append(registry.keymaps, Keymap{
				Code:        code,
				Variant:     v.ConfigItem.Name,
				Description: v.ConfigItem.Description,
			})
		}
	}

	return registry, nil
}
