package server

import "codeberg.org/miketth/layoutfix/pkg/layouts"

const (
	OpTranslate = "translate"
	OpStart     = "start"
	OpNext      = "next"
	OpEnd       = "end"
	OpDetect    = "detect"
	OpLayouts   = "layouts"
)

// Request is one line of the socket protocol.
type Request struct {
	Op      string `json:"op"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Source  string `json:"source,omitempty"`
	Text    string `json:"text,omitempty"`
	Session string `json:"session,omitempty"`
	// Activate switches the OS layout to the translation target.
	Activate bool `json:"activate,omitempty"`
}

type Response struct {
	OK      bool         `json:"ok"`
	Error   string       `json:"error,omitempty"`
	Text    string       `json:"text,omitempty"`
	Source  string       `json:"source,omitempty"`
	Target  string       `json:"target,omitempty"`
	Session string       `json:"session,omitempty"`
	Layouts []LayoutInfo `json:"layouts,omitempty"`
}

type LayoutInfo struct {
	Name     string   `json:"name"`
	Alphabet string   `json:"alphabet"`
	Cycle    []string `json:"cycle"`
}

func names(in []layouts.Name) []string {
	out := make([]string, 0, len(in))
	for _, n := range in {
		out = append(out, string(n))
	}
	return out
}
