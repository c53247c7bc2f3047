package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/moodify/internal/app/moodview"
	"github.com/osa030/moodify/internal/app/session"
	"github.com/osa030/moodify/internal/domain/mood"
	"github.com/osa030/moodify/internal/infra/playlist"
)

const (
	cookieName   = "moodify_session"
	fetchError   = "Failed to fetch playlist. Make sure you are logged in via Spotify."
	loadingText  = "Loading your vibe playlist..."
	noPreview    = "No preview available"
	trackPayload = `{"items": [
		{"track": {"name": "A", "artists": [{"name": "B"}], "album": {"name": "C", "images": [{"url": "img.png"}]}, "preview_url": "p.mp3"}},
		{"track": {"name": "Quiet", "artists": [{"name": "D"}], "album": {"name": "E", "images": []}, "preview_url": null}}
	]}`
)

type testEnv struct {
	handler  *Handler
	registry *session.Registry
	callback string
}

func newTestEnv(t *testing.T, backend http.HandlerFunc) *testEnv {
	t.Helper()

	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	client, err := playlist.New(playlist.Config{BaseURL: server.URL, PlaylistPath: "/playlist", Timeout: 5 * time.Second})
	require.NoError(t, err)

	callback := server.URL + "/callback"
	registry := session.NewRegistry(client, moodview.NewReducer(moodview.LastDispatchedWins, fetchError, callback), time.Hour)
	t.Cleanup(registry.Close)

	handler, err := NewHandler(Config{
		Registry: registry,
		View: moodview.Options{
			Moods:         mood.DefaultSet(),
			Title:         "Moodify",
			LoadingText:   loadingText,
			NoPreviewText: noPreview,
		},
		SessionCookie: cookieName,
		SessionTTL:    time.Hour,
	})
	require.NoError(t, err)

	return &testEnv{handler: handler, registry: registry, callback: callback}
}

// do sends a request carrying the given cookies and returns the recorder.
func (e *testEnv) do(method, target string, body url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// selectMood posts a mood and returns the page session cookie, either the
// one issued by the response or the one that was sent.
func (e *testEnv) selectMood(t *testing.T, m string, cookies ...*http.Cookie) *http.Cookie {
	t.Helper()
	rec := e.do(http.MethodPost, "/mood", url.Values{"mood": {m}}, cookies...)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			assert.True(t, c.HttpOnly)
			return &http.Cookie{Name: c.Name, Value: c.Value}
		}
	}
	for _, c := range cookies {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestIndex_RendersMoodButtons(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := env.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "<title>Moodify</title>")
	for _, m := range mood.Defaults() {
		assert.Contains(t, body, fmt.Sprintf(`value="%s"`, m))
		assert.Contains(t, body, ">"+m.Title()+"<")
	}
	assert.NotContains(t, body, loadingText)
	assert.NotContains(t, body, `http-equiv="refresh"`)
	assert.Empty(t, rec.Result().Cookies())
}

func TestCookielessRequests_DoNotOpenPages(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	stale := &http.Cookie{Name: cookieName, Value: "expired-page"}

	for range 50 {
		rec := env.do(http.MethodGet, "/", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(http.MethodGet, "/api/state", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(http.MethodGet, "/", nil, stale)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 0, env.registry.Len())

	rec := env.do(http.MethodGet, "/api/state", nil, stale)
	var resp struct {
		PageID string `json:"page_id"`
		State  struct {
			Phase   string `json:"phase"`
			Loading bool   `json:"loading"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.PageID)
	assert.Equal(t, "idle", resp.State.Phase)
	assert.False(t, resp.State.Loading)

	// Picking a mood opens exactly one page.
	env.selectMood(t, "happy")
	env.registry.Wait()
	assert.Equal(t, 1, env.registry.Len())
}

func TestSelectMood_Success(t *testing.T) {
	type seen struct {
		mood, cookie string
		pageCookie   bool
	}
	requests := make(chan seen, 2)
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		var s seen
		s.mood = r.URL.Query().Get("mood")
		if c, err := r.Cookie("spotify_session"); err == nil {
			s.cookie = c.Value
		}
		_, err := r.Cookie(cookieName)
		s.pageCookie = err == nil
		requests <- s
		fmt.Fprint(w, trackPayload)
	})
	pageCookie := env.selectMood(t, "sad")
	env.registry.Wait()
	<-requests

	env.selectMood(t, "happy", pageCookie, &http.Cookie{Name: "spotify_session", Value: "token-1"})
	env.registry.Wait()
	got := <-requests
	assert.Equal(t, "happy", got.mood)
	assert.Equal(t, "token-1", got.cookie)
	assert.False(t, got.pageCookie, "page session cookie must not be forwarded")
	assert.Equal(t, 1, env.registry.Len(), "the second click reuses the page")

	rec := env.do(http.MethodGet, "/", nil, pageCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `class="active">Happy<`)
	assert.Contains(t, body, `<img src="img.png" alt="A">`)
	assert.Contains(t, body, `<h2>A</h2>`)
	assert.Contains(t, body, `<source src="p.mp3" type="audio/mpeg">`)
	assert.Contains(t, body, `<h2>Quiet</h2>`)
	assert.Contains(t, body, noPreview)
	assert.Less(t, strings.Index(body, "<h2>A</h2>"), strings.Index(body, "<h2>Quiet</h2>"))
	assert.NotContains(t, body, fetchError)
}

func TestSelectMood_Loading(t *testing.T) {
	release := make(chan struct{})
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		fmt.Fprint(w, trackPayload)
	})
	pageCookie := env.selectMood(t, "chill")

	rec := env.do(http.MethodGet, "/", nil, pageCookie)
	body := rec.Body.String()
	assert.Contains(t, body, loadingText)
	assert.Contains(t, body, `http-equiv="refresh"`)
	assert.NotContains(t, body, `<h2>A</h2>`)

	close(release)
	env.registry.Wait()

	rec = env.do(http.MethodGet, "/", nil, pageCookie)
	body = rec.Body.String()
	assert.NotContains(t, body, loadingText)
	assert.Contains(t, body, `<h2>A</h2>`)
}

func TestSelectMood_Unauthorized(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	pageCookie := env.selectMood(t, "party")
	env.registry.Wait()

	rec := env.do(http.MethodGet, "/", nil, pageCookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, env.callback, rec.Header().Get("Location"))

	// Coming back from the callback renders the page without an error.
	rec = env.do(http.MethodGet, "/", nil, pageCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), fetchError)
	assert.NotContains(t, rec.Body.String(), "<h2>")
}

func TestSelectMood_AfterUnauthorizedStaysOnPage(t *testing.T) {
	release := make(chan struct{})
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("mood") == "happy" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		<-release
		fmt.Fprint(w, trackPayload)
	})

	pageCookie := env.selectMood(t, "happy")
	env.registry.Wait()

	// A new click before following the redirect starts a fresh fetch.
	env.selectMood(t, "sad", pageCookie)

	rec := env.do(http.MethodGet, "/", nil, pageCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), loadingText)

	close(release)
	env.registry.Wait()

	rec = env.do(http.MethodGet, "/", nil, pageCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<h2>A</h2>`)
	assert.Contains(t, rec.Body.String(), `class="active">Sad<`)
}

func TestSelectMood_Failure(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	pageCookie := env.selectMood(t, "sad")
	env.registry.Wait()

	rec := env.do(http.MethodGet, "/", nil, pageCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), fetchError)
	assert.NotContains(t, rec.Body.String(), "<h2>")
}

func TestSelectMood_RejectsUnknownMood(t *testing.T) {
	called := false
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	rec := env.do(http.MethodPost, "/mood", url.Values{"mood": {"angry"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/mood", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	env.registry.Wait()
	assert.False(t, called)
	assert.Equal(t, 0, env.registry.Len())
}

func TestState_JSON(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, trackPayload)
	})
	pageCookie := env.selectMood(t, "romantic")
	env.registry.Wait()

	rec := env.do(http.MethodGet, "/api/state", nil, pageCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		PageID string `json:"page_id"`
		State  struct {
			SelectedMood string `json:"selected_mood"`
			Loading      bool   `json:"loading"`
			Error        string `json:"error"`
			Phase        string `json:"phase"`
			Tracks       []struct {
				Name  string `json:"name"`
				Image string `json:"image"`
			} `json:"tracks"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, pageCookie.Value, resp.PageID)
	assert.Equal(t, "romantic", resp.State.SelectedMood)
	assert.False(t, resp.State.Loading)
	assert.Equal(t, "success", resp.State.Phase)
	require.Len(t, resp.State.Tracks, 2)
	assert.Equal(t, "img.png", resp.State.Tracks[0].Image)
	assert.Equal(t, "", resp.State.Tracks[1].Image)
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := env.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

// failingWriter accepts headers but fails every body write.
type failingWriter struct {
	*httptest.ResponseRecorder
}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestHealthCheck_LogsEncodeError(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})

	var buf bytes.Buffer
	saved := zlog.Logger
	zlog.Logger = zerolog.New(&buf)
	t.Cleanup(func() { zlog.Logger = saved })

	w := failingWriter{httptest.NewRecorder()}
	env.handler.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), "failed to encode health response")
	assert.Contains(t, buf.String(), "connection reset")
}

func TestNewHandler_Validation(t *testing.T) {
	registry := session.NewRegistry(nil, moodview.Reducer{}, 0)
	defer registry.Close()

	_, err := NewHandler(Config{View: moodview.Options{Moods: mood.DefaultSet()}, SessionCookie: cookieName})
	assert.Error(t, err)

	_, err = NewHandler(Config{Registry: registry, SessionCookie: cookieName})
	assert.Error(t, err)

	_, err = NewHandler(Config{Registry: registry, View: moodview.Options{Moods: mood.DefaultSet()}})
	assert.Error(t, err)
}

func TestAccessLog_PassesThrough(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	h := AccessLog(env.handler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
