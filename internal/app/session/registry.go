package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodify/internal/app/moodview"
)

// ErrUnknownPage is returned when a page session ID is not registered.
var ErrUnknownPage = errors.New("unknown page session")

// Registry manages page sessions with thread-safe access.
type Registry struct {
	mu    sync.RWMutex
	pages map[string]*Page

	reducer moodview.Reducer
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time

	// Background fetches run under ctx and are tracked by wg.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry creates a new page registry. Pages idle for longer than ttl
// are removed by Prune; a zero ttl keeps pages forever.
func NewRegistry(fetcher Fetcher, reducer moodview.Reducer, ttl time.Duration) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		pages:   make(map[string]*Page),
		reducer: reducer,
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Open creates a new page session in the initial state.
func (r *Registry) Open() *Page {
	r.mu.Lock()
	defer r.mu.Unlock()

	page := &Page{
		id:       uuid.NewString(),
		state:    moodview.Initial(),
		lastSeen: r.now(),
		registry: r,
	}
	r.pages[page.id] = page
	return page
}

// Get retrieves a page session by ID.
func (r *Registry) Get(id string) (*Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	page, ok := r.pages[id]
	if !ok {
		return nil, ErrUnknownPage
	}
	return page, nil
}

// GetOrOpen returns the page for id, opening a new one when id is unknown.
// The boolean reports whether a new page was opened.
func (r *Registry) GetOrOpen(id string) (*Page, bool) {
	if id != "" {
		if page, err := r.Get(id); err == nil {
			return page, false
		}
	}
	return r.Open(), true
}

// Len returns the number of open page sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pages)
}

// Prune removes idle pages with no outstanding fetch and returns how many
// were removed.
func (r *Registry) Prune() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, page := range r.pages {
		page.mu.Lock()
		idle := page.lastSeen.Before(cutoff) && page.state.InFlight == 0
		page.mu.Unlock()
		if idle {
			delete(r.pages, id)
			removed++
		}
	}
	return removed
}

// StartPruning prunes idle pages every interval until Close is called.
func (r *Registry) StartPruning(interval time.Duration) {
	if interval <= 0 || r.ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				if n := r.Prune(); n > 0 {
					zlog.Debug().Msgf("pruned idle page sessions: removed=%d remaining=%d", n, r.Len())
				}
			}
		}
	}()
}

// Wait blocks until all background fetches have resolved.
func (r *Registry) Wait() {
	r.wg.Wait()
}

// Close cancels outstanding fetches and waits for them to resolve.
func (r *Registry) Close() {
	r.cancel()
	r.wg.Wait()
}
