// Package moodview provides the mood page state machine: UI state, the
// events and effects of a fetch cycle, the reducer, and the view model.
package moodview

import (
	"github.com/osa030/moodify/internal/domain/mood"
	"github.com/osa030/moodify/internal/domain/track"
)

// Phase represents where the page is in its fetch cycle.
type Phase int

const (
	PhaseIdle         Phase = iota // No mood selected yet
	PhaseLoading                   // A fetch is outstanding
	PhaseSuccess                   // Tracks from the last applied fetch are shown
	PhaseError                     // The last applied fetch failed
	PhaseAuthRedirect              // The page is navigating to re-authentication
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	case PhaseAuthRedirect:
		return "auth_redirect"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is the UI state of one page.
//
// Loading is never true together with a non-empty Error or Tracks.
type State struct {
	SelectedMood mood.Mood     `json:"selected_mood"`
	Tracks       []track.Track `json:"tracks"`
	Loading      bool          `json:"loading"`
	Error        string        `json:"error"`

	Phase     Phase  `json:"phase"`
	RequestID string `json:"request_id,omitempty"` // Most recently dispatched fetch
	InFlight  int    `json:"in_flight"`            // Outstanding fetches, superseded ones included
}

// Initial returns the state of a freshly opened page.
func Initial() State {
	return State{Tracks: []track.Track{}, Phase: PhaseIdle}
}

// IsSelected reports whether m is the active mood.
func (s State) IsSelected(m mood.Mood) bool {
	return s.SelectedMood != "" && s.SelectedMood == m
}

// clone returns a copy that shares no track storage with s.
func (s State) clone() State {
	out := s
	out.Tracks = make([]track.Track, len(s.Tracks))
	copy(out.Tracks, s.Tracks)
	return out
}
