// Package web provides the HTTP surface of the mood page.
package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodify/internal/app/moodview"
	"github.com/osa030/moodify/internal/app/session"
	"github.com/osa030/moodify/internal/domain/mood"
)

//go:embed templates/page.html
var templates embed.FS

// Config holds the handler dependencies.
type Config struct {
	Registry      *session.Registry
	View          moodview.Options // Moods must be set
	SessionCookie string
	SessionTTL    time.Duration
	RefreshEvery  time.Duration // Page auto-refresh interval while loading
}

// Handler serves the mood page and its JSON state.
type Handler struct {
	registry *session.Registry
	view     moodview.Options
	cookie   string
	ttl      time.Duration
	refresh  time.Duration
	page     *template.Template
	router   *http.ServeMux
}

type pageData struct {
	View           moodview.View
	RefreshSeconds int
}

type stateResponse struct {
	PageID   string         `json:"page_id,omitempty"`
	State    moodview.State `json:"state"`
	Redirect string         `json:"redirect,omitempty"`
}

// NewHandler initializes the handler and its routes.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Registry == nil {
		return nil, errors.New("page registry is required")
	}
	if cfg.View.Moods == nil || cfg.View.Moods.Len() == 0 {
		return nil, errors.New("at least one mood is required")
	}
	if cfg.SessionCookie == "" {
		return nil, errors.New("session cookie name is required")
	}

	page, err := template.ParseFS(templates, "templates/page.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse page template")
	}

	refresh := cfg.RefreshEvery
	if refresh < time.Second {
		refresh = time.Second
	}

	h := &Handler{
		registry: cfg.Registry,
		view:     cfg.View,
		cookie:   cfg.SessionCookie,
		ttl:      cfg.SessionTTL,
		refresh:  refresh,
		page:     page,
		router:   http.NewServeMux(),
	}
	h.routes()
	return h, nil
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.HandleFunc("GET /{$}", h.Index)
	h.router.HandleFunc("POST /mood", h.SelectMood)
	h.router.HandleFunc("GET /api/state", h.State)
	h.router.HandleFunc("GET /health", h.HealthCheck)
}

// Index renders the page, or performs a pending re-authentication redirect.
// Visitors without a page session see the initial page; no session is
// opened until they pick a mood.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	state := moodview.Initial()
	if page, ok := h.lookupPage(r); ok {
		if url, ok := page.TakeRedirect(); ok {
			http.Redirect(w, r, url, http.StatusFound)
			return
		}
		state = page.State()
	}

	data := pageData{
		View:           moodview.Render(state, h.view),
		RefreshSeconds: int(h.refresh / time.Second),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.page.Execute(w, data); err != nil {
		zlog.Error().Err(err).Msg("failed to render page")
	}
}

// SelectMood handles a mood button click and redirects back to the page.
func (h *Handler) SelectMood(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	m := mood.Mood(r.PostFormValue("mood"))
	if !h.view.Moods.Contains(m) {
		http.Error(w, "unknown mood", http.StatusBadRequest)
		return
	}

	page := h.pageFor(w, r)
	page.SelectMood(m, h.forwardCookies(r))

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// State returns the page state as JSON. Without a page session the
// initial state is returned.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	resp := stateResponse{State: moodview.Initial()}
	if page, ok := h.lookupPage(r); ok {
		resp.PageID = page.ID()
		resp.State = page.State()
		resp.Redirect = page.PendingRedirect()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		zlog.Error().Err(err).Msg("failed to encode state")
	}
}

// HealthCheck is a simple endpoint to verify the server is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		zlog.Error().Err(err).Msg("failed to encode health response")
	}
}

// lookupPage returns the caller's registered page session, if any.
func (h *Handler) lookupPage(r *http.Request) (*session.Page, bool) {
	c, err := r.Cookie(h.cookie)
	if err != nil || c.Value == "" {
		return nil, false
	}
	page, err := h.registry.Get(c.Value)
	if err != nil {
		return nil, false
	}
	return page, true
}

// pageFor returns the caller's page session, opening one and setting the
// session cookie when the request carries none or an unknown one. Only
// mood selection opens sessions.
func (h *Handler) pageFor(w http.ResponseWriter, r *http.Request) *session.Page {
	var id string
	if c, err := r.Cookie(h.cookie); err == nil {
		id = c.Value
	}

	page, created := h.registry.GetOrOpen(id)
	if created {
		cookie := &http.Cookie{
			Name:     h.cookie,
			Value:    page.ID(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   r.TLS != nil,
		}
		if h.ttl > 0 {
			cookie.MaxAge = int(h.ttl / time.Second)
		}
		http.SetCookie(w, cookie)
		zlog.Debug().Msgf("page session opened: page=%s", page.ID())
	}
	return page
}

// forwardCookies returns the browser's cookies for the playlist service,
// leaving out the page session cookie.
func (h *Handler) forwardCookies(r *http.Request) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range r.Cookies() {
		if c.Name == h.cookie {
			continue
		}
		out = append(out, c)
	}
	return out
}
