package moodview

import "github.com/osa030/moodify/internal/domain/mood"

// Effect is a side effect requested by the reducer. The reducer never
// performs I/O; the caller executes effects and feeds results back as events.
type Effect interface {
	EffectType() string
}

// FetchPlaylist asks the caller to GET the playlist for Mood and report the
// outcome tagged with RequestID.
type FetchPlaylist struct {
	Mood      mood.Mood
	RequestID string
}

// Redirect asks the caller to perform a full-page navigation to URL.
type Redirect struct {
	URL string
}

func (FetchPlaylist) EffectType() string { return "fetch_playlist" }
func (Redirect) EffectType() string      { return "redirect" }
