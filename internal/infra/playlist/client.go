// Package playlist provides a client for the external mood playlist service.
package playlist

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodify/internal/domain/mood"
	"github.com/osa030/moodify/internal/domain/track"
)

// maxBodySize bounds the playlist payload read from the backend.
const maxBodySize = 8 << 20

var (
	// ErrUnauthorized marks a 401 from the backend: the session cookie is
	// missing or expired and the user must re-authenticate.
	ErrUnauthorized = errors.New("playlist service rejected the session")
	// ErrRequestFailed marks every other failure (transport, status, payload).
	ErrRequestFailed = errors.New("playlist request failed")
)

// Config represents playlist client configuration.
type Config struct {
	BaseURL      string
	PlaylistPath string
	Timeout      time.Duration
}

// Client fetches mood playlists from the backend.
type Client struct {
	endpoint   *url.URL
	httpClient *http.Client
}

// New creates a new playlist client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("playlist service base URL is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid playlist service base URL")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Newf("playlist service base URL must be absolute: %s", cfg.BaseURL)
	}

	path := cfg.PlaylistPath
	if path == "" {
		path = "/playlist"
	}
	endpoint := base.JoinPath(path)

	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// FetchPlaylist issues GET {playlist}?mood={m}, forwarding the user's cookies,
// and maps the payload to display tracks in backend order.
//
// A 401 yields an error matching ErrUnauthorized; any other failure yields an
// error matching ErrRequestFailed.
func (c *Client) FetchPlaylist(ctx context.Context, m mood.Mood, cookies []*http.Cookie) ([]track.Track, error) {
	reqURL := *c.endpoint
	query := reqURL.Query()
	query.Set("mood", m.String())
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to create request"), ErrRequestFailed)
	}
	req.Header.Set("Accept", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to send request"), ErrRequestFailed)
	}
	defer resp.Body.Close()

	zlog.Debug().Msgf("playlist response: mood=%s status=%d elapsed=%s", m, resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, errors.Wrapf(ErrUnauthorized, "mood %s", m)
	default:
		return nil, errors.Mark(errors.Newf("unexpected status %d for mood %s", resp.StatusCode, m), ErrRequestFailed)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to read response body"), ErrRequestFailed)
	}

	tracks, err := decodeTracks(body)
	if err != nil {
		return nil, errors.Mark(err, ErrRequestFailed)
	}
	return tracks, nil
}

// Endpoint returns the playlist endpoint URL without query parameters.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}
