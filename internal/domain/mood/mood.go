// Package mood provides the Mood domain value and the fixed mood set.
package mood

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mood is a fixed label used to parameterize the playlist query.
type Mood string

const (
	Happy    Mood = "happy"
	Sad      Mood = "sad"
	Chill    Mood = "chill"
	Party    Mood = "party"
	Sexy     Mood = "sexy"
	Romantic Mood = "romantic"
)

// Defaults returns the built-in mood set in display order.
func Defaults() []Mood {
	return []Mood{Happy, Sad, Chill, Party, Sexy, Romantic}
}

// String returns the mood identifier.
func (m Mood) String() string {
	return string(m)
}

// Title returns the identifier with its first letter upper-cased ("happy" -> "Happy").
func (m Mood) Title() string {
	s := string(m)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Option is a selectable mood together with its display settings.
type Option struct {
	Mood  Mood
	Label string // Button label (falls back to Title)
	Emoji string // Optional decoration shown next to the label
}

// DisplayLabel returns the label shown on the mood button.
func (o Option) DisplayLabel() string {
	label := o.Label
	if label == "" {
		label = o.Mood.Title()
	}
	if o.Emoji != "" {
		return o.Emoji + " " + label
	}
	return label
}

// Set is the static, ordered collection of selectable moods.
type Set struct {
	options []Option
}

// NewSet creates a set from options, dropping empty and repeated moods.
func NewSet(options []Option) *Set {
	seen := make(map[Mood]bool, len(options))
	kept := make([]Option, 0, len(options))
	for _, o := range options {
		o.Mood = Mood(strings.TrimSpace(string(o.Mood)))
		if o.Mood == "" || seen[o.Mood] {
			continue
		}
		seen[o.Mood] = true
		kept = append(kept, o)
	}
	return &Set{options: kept}
}

// DefaultSet returns a set holding the built-in moods with no extra settings.
func DefaultSet() *Set {
	defaults := Defaults()
	options := make([]Option, len(defaults))
	for i, m := range defaults {
		options[i] = Option{Mood: m}
	}
	return NewSet(options)
}

// Options returns the options in display order.
func (s *Set) Options() []Option {
	out := make([]Option, len(s.options))
	copy(out, s.options)
	return out
}

// Moods returns the mood identifiers in display order.
func (s *Set) Moods() []Mood {
	out := make([]Mood, len(s.options))
	for i, o := range s.options {
		out[i] = o.Mood
	}
	return out
}

// Len returns the number of moods in the set.
func (s *Set) Len() int {
	return len(s.options)
}

// Lookup returns the option for the given identifier.
func (s *Set) Lookup(id string) (Option, bool) {
	for _, o := range s.options {
		if string(o.Mood) == id {
			return o, true
		}
	}
	return Option{}, false
}

// Contains reports whether m belongs to the set.
func (s *Set) Contains(m Mood) bool {
	_, ok := s.Lookup(string(m))
	return ok
}
