package moodview

import (
	"github.com/osa030/moodify/internal/domain/mood"
)

// ViewKind selects which result region is shown. The regions are exclusive.
type ViewKind int

const (
	ViewTracks ViewKind = iota
	ViewLoading
	ViewError
)

// Options holds the static presentation inputs of the renderer.
type Options struct {
	Moods         *mood.Set
	Title         string
	LoadingText   string
	NoPreviewText string
}

// MoodButton is one entry of the mood selector.
type MoodButton struct {
	Mood   mood.Mood
	Label  string
	Active bool
}

// Card is one track card.
type Card struct {
	Name       string
	Artist     string
	Album      string
	Image      string
	HasImage   bool // Artwork is drawn only when set
	PreviewURL string
	HasPreview bool
	NoPreview  string // Notice shown when HasPreview is false
}

// View is everything a frontend needs to draw the page.
type View struct {
	Title   string
	Buttons []MoodButton
	Kind    ViewKind
	Loading string
	Error   string
	Cards   []Card
}

// Render maps state to a view: loading, else error, else the track grid
// in backend order.
func Render(s State, opts Options) View {
	v := View{Title: opts.Title}

	if opts.Moods != nil {
		for _, o := range opts.Moods.Options() {
			v.Buttons = append(v.Buttons, MoodButton{
				Mood:   o.Mood,
				Label:  o.DisplayLabel(),
				Active: s.IsSelected(o.Mood),
			})
		}
	}

	switch {
	case s.Loading:
		v.Kind = ViewLoading
		v.Loading = opts.LoadingText
	case s.Error != "":
		v.Kind = ViewError
		v.Error = s.Error
	default:
		v.Kind = ViewTracks
		v.Cards = make([]Card, 0, len(s.Tracks))
		for i := range s.Tracks {
			t := &s.Tracks[i]
			v.Cards = append(v.Cards, Card{
				Name:       t.Name,
				Artist:     t.Artist,
				Album:      t.Album,
				Image:      t.Image,
				HasImage:   t.HasImage(),
				PreviewURL: t.PreviewURL,
				HasPreview: t.HasPreview(),
				NoPreview:  opts.NoPreviewText,
			})
		}
	}

	return v
}

// IsLoading reports whether the loading indicator is shown.
func (v View) IsLoading() bool {
	return v.Kind == ViewLoading
}

// IsError reports whether the error message is shown.
func (v View) IsError() bool {
	return v.Kind == ViewError
}
