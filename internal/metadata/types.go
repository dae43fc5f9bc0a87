package metadata

import (
	"encoding/json"
	"errors"
)

// Item describes a single media page.
type Item struct {
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Thumbnail       string  `json:"thumbnail"`
	DurationSeconds float64 `json:"durationSeconds"`
	Duration        string  `json:"duration"`
}

// Track is one entry of a collection.
type Track struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	DurationSeconds float64 `json:"durationSeconds"`
	Duration        string  `json:"duration"`
}

// Collection describes a playlist.
type Collection struct {
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Thumbnail       string  `json:"thumbnail"`
	TotalCount      int     `json:"totalVideos"`
	DurationSeconds float64 `json:"durationSeconds"`
	Duration        string  `json:"duration"`
	Tracks          []Track `json:"tracks"`
}

// Kind distinguishes the two Result shapes.
type Kind string

const (
	KindItem       Kind = "item"
	KindCollection Kind = "collection"
)

// Result holds exactly one of Item or Collection.
type Result struct {
	Item       *Item
	Collection *Collection
}

// Kind reports which variant is populated.
func (r Result) Kind() Kind {
	if r.Collection != nil {
		return KindCollection
	}
	return KindItem
}

// Title returns the populated variant's title.
func (r Result) Title() string {
	if r.Collection != nil {
		return r.Collection.Title
	}
	if r.Item != nil {
		return r.Item.Title
	}
	return ""
}

type wireResult struct {
	Kind            Kind    `json:"kind"`
	IsPlaylist      bool    `json:"isPlaylist"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Thumbnail       string  `json:"thumbnail"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"durationSeconds"`
	TotalVideos     int     `json:"totalVideos"`
	Tracks          []Track `json:"tracks,omitzero"`
}

// MarshalJSON flattens the union into the response shape the web UI reads.
// Items report totalVideos 0 and carry no tracks key; collections always
// carry a tracks array, empty included.
func (r Result) MarshalJSON() ([]byte, error) {
	switch {
	case r.Collection != nil:
		c := r.Collection
		tracks := c.Tracks
		if tracks == nil {
			tracks = []Track{}
		}
		return json.Marshal(wireResult{
			Kind:            KindCollection,
			IsPlaylist:      true,
			Title:           c.Title,
			Author:          c.Author,
			Thumbnail:       c.Thumbnail,
			Duration:        c.Duration,
			DurationSeconds: c.DurationSeconds,
			TotalVideos:     c.TotalCount,
			Tracks:          tracks,
		})
	case r.Item != nil:
		i := r.Item
		return json.Marshal(wireResult{
			Kind:            KindItem,
			Title:           i.Title,
			Author:          i.Author,
			Thumbnail:       i.Thumbnail,
			Duration:        i.Duration,
			DurationSeconds: i.DurationSeconds,
		})
	default:
		return nil, errors.New("metadata: empty result")
	}
}

// UnmarshalJSON restores a Result written by MarshalJSON (used by the info cache).
func (r *Result) UnmarshalJSON(data []byte) error {
	var wire wireResult
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Kind == KindCollection || wire.IsPlaylist {
		r.Item = nil
		r.Collection = &Collection{
			Title:           wire.Title,
			Author:          wire.Author,
			Thumbnail:       wire.Thumbnail,
			TotalCount:      wire.TotalVideos,
			DurationSeconds: wire.DurationSeconds,
			Duration:        wire.Duration,
			Tracks:          wire.Tracks,
		}
		if r.Collection.Tracks == nil {
			r.Collection.Tracks = []Track{}
		}
		return nil
	}
	r.Collection = nil
	r.Item = &Item{
		Title:           wire.Title,
		Author:          wire.Author,
		Thumbnail:       wire.Thumbnail,
		DurationSeconds: wire.DurationSeconds,
		Duration:        wire.Duration,
	}
	return nil
}
