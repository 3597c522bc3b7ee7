package switcher

import "codeberg.org/miketth/layoutfix/pkg/layouts"

// Session keeps the original text of one switching attempt and translates it
// against successive targets. It is not safe for concurrent use; give each
// caller its own.
type Session struct {
	sw       *Switcher
	source   layouts.Name
	text     string
	rotation *Rotation
	current  string
}

// SessionState is the persistable part of a Session.
type SessionState struct {
	Source layouts.Name `json:"source"`
	Text   string       `json:"text"`
	Cursor int          `json:"cursor"`
}

func (s *Session) Source() layouts.Name {
	return s.source
}

// Text returns the untranslated input.
func (s *Session) Text() string {
	return s.text
}

func (s *Session) Target() layouts.Name {
	return s.rotation.Current()
}

// Current returns the translation for the current target.
func (s *Session) Current() string {
	return s.current
}

// Next moves to the next target and translates the original text for it.
func (s *Session) Next() string {
	target := s.rotation.Advance()
	s.current = s.sw.translate(s.text, s.source, target)
	return s.current
}

func (s *Session) State() SessionState {
	return SessionState{
		Source: s.source,
		Text:   s.text,
		Cursor: s.rotation.Cursor(),
	}
}
