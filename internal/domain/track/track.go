// Package track provides the Track display record.
package track

// Track represents one song entry as displayed on a card.
// Tracks are recreated on every playlist fetch.
type Track struct {
	Name       string `json:"name"`        // Track title
	Artist     string `json:"artist"`      // First listed performer
	Album      string `json:"album"`       // Album title
	PreviewURL string `json:"preview_url"` // Short audio preview (empty if none)
	Image      string `json:"image"`       // Album art URL (empty if none)
}

// HasPreview reports whether the track has a playable preview.
func (t *Track) HasPreview() bool {
	return t.PreviewURL != ""
}

// HasImage reports whether the track has artwork.
func (t *Track) HasImage() bool {
	return t.Image != ""
}
