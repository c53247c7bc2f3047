// Package session provides page sessions: per-browser UI state driven by the
// moodview reducer, with fetch effects executed in the background.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodify/internal/app/moodview"
	"github.com/osa030/moodify/internal/domain/mood"
	"github.com/osa030/moodify/internal/domain/track"
	"github.com/osa030/moodify/internal/infra/playlist"
)

// Fetcher defines the playlist operation needed by page sessions.
type Fetcher interface {
	FetchPlaylist(ctx context.Context, m mood.Mood, cookies []*http.Cookie) ([]track.Track, error)
}

// Page is one browser's page session. Reducer application is serialized by
// the page mutex, so events are handled one at a time.
type Page struct {
	mu sync.Mutex

	id       string
	state    moodview.State
	redirect string // Pending Redirect effect, consumed by TakeRedirect
	lastSeen time.Time

	registry *Registry
}

// ID returns the page session ID.
func (p *Page) ID() string {
	return p.id
}

// State returns a snapshot of the page state.
func (p *Page) State() moodview.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSeen = p.registry.now()
	return p.state
}

// PendingRedirect returns the pending redirect URL without consuming it.
func (p *Page) PendingRedirect() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.redirect
}

// TakeRedirect consumes the pending redirect, if any.
func (p *Page) TakeRedirect() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	url := p.redirect
	p.redirect = ""
	return url, url != ""
}

// SelectMood handles a mood click: the state moves to loading and a fetch is
// started in the background with the given cookies. It returns the request ID.
func (p *Page) SelectMood(m mood.Mood, cookies []*http.Cookie) string {
	requestID := uuid.NewString()
	zlog.Info().Msgf("mood selected: page=%s mood=%s request=%s", p.id, m, requestID)
	p.dispatch(moodview.MoodSelected{Mood: m, RequestID: requestID}, cookies)
	return requestID
}

// dispatch applies e and runs the resulting effects.
func (p *Page) dispatch(e moodview.Event, cookies []*http.Cookie) {
	p.mu.Lock()
	next, effects := p.registry.reducer.Reduce(p.state, e)
	p.state = next
	p.lastSeen = p.registry.now()
	// A new selection supersedes a redirect nobody followed yet.
	if _, ok := e.(moodview.MoodSelected); ok {
		p.redirect = ""
	}
	// Redirects are recorded with the state that produced them.
	for _, effect := range effects {
		if r, ok := effect.(moodview.Redirect); ok {
			p.redirect = r.URL
		}
	}
	p.mu.Unlock()

	zlog.Debug().Msgf("page event: page=%s event=%s phase=%s loading=%t tracks=%d in_flight=%d",
		p.id, e.EventType(), next.Phase, next.Loading, len(next.Tracks), next.InFlight)

	for _, effect := range effects {
		p.run(effect, cookies)
	}
}

// run executes a single effect.
func (p *Page) run(effect moodview.Effect, cookies []*http.Cookie) {
	switch eff := effect.(type) {
	case moodview.FetchPlaylist:
		p.registry.wg.Add(1)
		go func() {
			defer p.registry.wg.Done()
			tracks, err := p.registry.fetcher.FetchPlaylist(p.registry.ctx, eff.Mood, cookies)
			p.dispatch(ResultEvent(eff, tracks, err), nil)
		}()

	case moodview.Redirect:
		zlog.Info().Msgf("re-authentication required: page=%s redirect=%s", p.id, eff.URL)

	default:
		zlog.Warn().Msgf("unhandled effect: page=%s effect=%s", p.id, effect.EffectType())
	}
}

// ResultEvent converts the outcome of a FetchPlaylist effect into the
// reducer event that resolves it.
func ResultEvent(req moodview.FetchPlaylist, tracks []track.Track, err error) moodview.Event {
	switch {
	case err == nil:
		zlog.Info().Msgf("playlist fetched: mood=%s request=%s tracks=%d", req.Mood, req.RequestID, len(tracks))
		return moodview.FetchSucceeded{RequestID: req.RequestID, Tracks: tracks}
	case errors.Is(err, playlist.ErrUnauthorized):
		zlog.Warn().Msgf("playlist unauthorized: mood=%s request=%s", req.Mood, req.RequestID)
		return moodview.Unauthorized{RequestID: req.RequestID}
	default:
		zlog.Warn().Err(err).Msgf("playlist fetch failed: mood=%s request=%s", req.Mood, req.RequestID)
		return moodview.FetchFailed{RequestID: req.RequestID, Err: err}
	}
}
