package moodview

import (
	"github.com/osa030/moodify/internal/domain/mood"
	"github.com/osa030/moodify/internal/domain/track"
)

// Event is an input to the reducer.
type Event interface {
	// EventType returns a short identifier for logging.
	EventType() string
}

// MoodSelected is emitted when the user clicks a mood button.
// RequestID identifies the fetch this click dispatches.
type MoodSelected struct {
	Mood      mood.Mood
	RequestID string
}

// FetchSucceeded carries the tracks of a 200 response.
type FetchSucceeded struct {
	RequestID string
	Tracks    []track.Track
}

// FetchFailed reports a network error, unexpected status, or malformed payload.
// Err is kept for logging only; it is never shown to the user.
type FetchFailed struct {
	RequestID string
	Err       error
}

// Unauthorized reports a 401 from the playlist service.
type Unauthorized struct {
	RequestID string
}

func (MoodSelected) EventType() string   { return "mood_selected" }
func (FetchSucceeded) EventType() string { return "fetch_succeeded" }
func (FetchFailed) EventType() string    { return "fetch_failed" }
func (Unauthorized) EventType() string   { return "unauthorized" }

// Compile-time checks.
var (
	_ Event = MoodSelected{}
	_ Event = FetchSucceeded{}
	_ Event = FetchFailed{}
	_ Event = Unauthorized{}
)
