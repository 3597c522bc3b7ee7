package hyprland

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrDeviceNotFound  = errors.New("device not found")
)

var errorMapper = []struct {
	re  *regexp.Regexp
	err error
}{
	{regexp.MustCompile(`^ok$`), nil},
	{regexp.MustCompile(`layout idx out of range`), ErrIndexOutOfRange},
	{regexp.MustCompile(`device not found`), ErrDeviceNotFound},
}

type Keyboard struct {
	Name         string
	Layouts      []string
	Variants     []string
	ActiveKeymap string
	Main         bool
}

type keyboard struct {
	Name         string `json:"name"`
	Layout       string `json:"layout"`
	Variant      string `json:"variant"`
	Options      string `json:"options"`
	ActiveKeymap string `json:"active_keymap"`
	Main         bool   `json:"main"`
}

type devices struct {
	Keyboards []keyboard `json:"keyboards"`
}

func (k keyboard) ToKeyboard() Keyboard {
	layouts := strings.Split(k.Layout, ",")
	variants := strings.Split(k.Variant, ",")
	// hyprland leaves the variant list empty when no layout has one
	for len(variants) < len(layouts) {
		variants = append(variants, "")
	}

	return Keyboard{
		Name:         k.Name,
		Layouts:      layouts,
		Variants:     variants,
		ActiveKeymap: k.ActiveKeymap,
		Main:         k.Main,
	}
}

// Hyprctl speaks the request/response protocol of hyprland's command socket.
type Hyprctl struct{}

func NewHyprctl() (*Hyprctl, error) {
	if _, err := instanceDir(); err != nil {
		return nil, err
	}
	return &Hyprctl{}, nil
}

func (c *Hyprctl) SwitchToLayout(ctx context.Context, keyboard string, idx int) error {
	resp, err := c.request(ctx, fmt.Sprintf("switchxkblayout %s %d", keyboard, idx), "")
	if err != nil {
		return err
	}

	outStr := strings.TrimSpace(string(resp))
	for _, m := range errorMapper {
		if m.re.MatchString(outStr) {
			return m.err
		}
	}

	return fmt.Errorf("hyprctl: %s", outStr)
}

func (c *Hyprctl) GetKeyboards(ctx context.Context) ([]Keyboard, error) {
	resp, err := c.request(ctx, "devices", "j")
	if err != nil {
		return nil, err
	}

	var devs devices
	if err := json.Unmarshal(resp, &devs); err != nil {
		return nil, fmt.Errorf("unmarshal devices: %w, (hyprctl: %s)", err, resp)
	}

	keyboards := devs.Keyboards
	out := make([]Keyboard, 0, len(keyboards))
	for _, k := range keyboards {
		out = append(out, k.ToKeyboard())
	}

	return out, nil
}

func (c *Hyprctl) request(ctx context.Context, request string, flags string) ([]byte, error) {
	conn, err := connect(ctx, hyprctlSocket)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if flags != "" {
		request = flags + "/" + request
	}
	if _, err := conn.Write([]byte(request)); err != nil {
		return nil, fmt.Errorf("write to hyprctl socket: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, conn); err != nil {
		return nil, fmt.Errorf("read from hyprctl socket: %w", err)
	}

	return buf.Bytes(), nil
}
