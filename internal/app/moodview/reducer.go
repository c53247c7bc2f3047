package moodview

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/moodify/internal/domain/track"
)

// Ordering decides which fetch outcome is shown when several fetches overlap.
type Ordering int

const (
	// LastDispatchedWins applies only the outcome of the most recent click.
	LastDispatchedWins Ordering = iota
	// LastResolvedWins applies every outcome in resolution order, so a slow
	// superseded request can overwrite a newer one.
	LastResolvedWins
)

// String returns the config name of the ordering.
func (o Ordering) String() string {
	switch o {
	case LastDispatchedWins:
		return "last_dispatched"
	case LastResolvedWins:
		return "last_resolved"
	default:
		return "unknown"
	}
}

// ParseOrdering parses a config ordering name.
func ParseOrdering(s string) (Ordering, error) {
	switch s {
	case "last_dispatched", "":
		return LastDispatchedWins, nil
	case "last_resolved":
		return LastResolvedWins, nil
	default:
		return LastDispatchedWins, errors.Newf("unknown ordering: %s", s)
	}
}

// Reducer computes state transitions for a page. It is a pure value: the
// same state and event always produce the same next state and effects.
type Reducer struct {
	Ordering     Ordering
	ErrorMessage string // Fixed user-facing message for request failures
	ReauthURL    string // Re-authentication entry point
}

// NewReducer creates a reducer.
func NewReducer(ordering Ordering, errorMessage, reauthURL string) Reducer {
	return Reducer{
		Ordering:     ordering,
		ErrorMessage: errorMessage,
		ReauthURL:    reauthURL,
	}
}

// Reduce returns the state following e and the effects the caller must run.
// The input state is not modified.
func (r Reducer) Reduce(s State, e Event) (State, []Effect) {
	next := s.clone()

	switch ev := e.(type) {
	case MoodSelected:
		next.SelectedMood = ev.Mood
		next.Tracks = []track.Track{}
		next.Error = ""
		next.Loading = true
		next.Phase = PhaseLoading
		next.RequestID = ev.RequestID
		next.InFlight++
		return next, []Effect{FetchPlaylist{Mood: ev.Mood, RequestID: ev.RequestID}}

	case FetchSucceeded:
		if !r.resolve(&next, ev.RequestID) {
			return next, nil
		}
		next.Tracks = make([]track.Track, len(ev.Tracks))
		copy(next.Tracks, ev.Tracks)
		next.Error = ""
		next.Phase = PhaseSuccess
		return next, nil

	case FetchFailed:
		if !r.resolve(&next, ev.RequestID) {
			return next, nil
		}
		next.Tracks = []track.Track{}
		next.Error = r.ErrorMessage
		next.Phase = PhaseError
		return next, nil

	case Unauthorized:
		if !r.resolve(&next, ev.RequestID) {
			return next, nil
		}
		next.Tracks = []track.Track{}
		next.Error = ""
		next.Phase = PhaseAuthRedirect
		return next, []Effect{Redirect{URL: r.ReauthURL}}
	}

	return next, nil
}

// resolve accounts for a finished fetch and reports whether its outcome
// should be applied. Loading is cleared before any outcome is applied.
func (r Reducer) resolve(s *State, requestID string) bool {
	if s.InFlight == 0 {
		return false
	}
	s.InFlight--

	// The page has navigated away; nothing resolves into it.
	if s.Phase == PhaseAuthRedirect {
		return false
	}
	if r.Ordering == LastDispatchedWins && requestID != s.RequestID {
		return false
	}

	s.Loading = false
	return true
}
