package playlist

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"

	"github.com/osa030/moodify/internal/domain/track"
)

// playlistPage is the backend envelope. The backend relays Spotify's
// playlist-items page, so items decode into the Spotify wire types.
type playlistPage struct {
	Items json.RawMessage `json:"items"`
}

// decodeTracks maps a playlist payload to display tracks.
func decodeTracks(body []byte) ([]track.Track, error) {
	var page playlistPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, errors.Wrap(err, "failed to decode playlist payload")
	}
	if len(page.Items) == 0 || string(page.Items) == "null" {
		return nil, errors.New("playlist payload has no items")
	}

	var items []spotify.PlaylistTrack
	if err := json.Unmarshal(page.Items, &items); err != nil {
		return nil, errors.Wrap(err, "failed to decode playlist items")
	}

	tracks := make([]track.Track, 0, len(items))
	for i := range items {
		t, err := convertTrack(&items[i].Track)
		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// convertTrack converts a Spotify FullTrack to a display Track.
func convertTrack(t *spotify.FullTrack) (track.Track, error) {
	if len(t.Artists) == 0 {
		return track.Track{}, errors.New("track has no artists")
	}

	var image string
	if len(t.Album.Images) > 0 {
		image = t.Album.Images[0].URL
	}

	return track.Track{
		Name:       t.Name,
		Artist:     t.Artists[0].Name,
		Album:      t.Album.Name,
		PreviewURL: t.PreviewURL,
		Image:      image,
	}, nil
}
