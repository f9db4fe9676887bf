// package models defines the data model for the playlist dashboard
package models

import (
	"fmt"
	"strconv"
)

// Playlist is one entry of the enumerated playlist set a user can select from.
type Playlist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// TrackEntry is a track record as returned by the catalog.
type TrackEntry struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Popularity int      `json:"popularity"` // 0-100
}

// PrimaryArtist returns the first listed artist, or an empty string when there is none.
func (t TrackEntry) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// PlaylistItem is a single playlist slot. Track is nil when the slot references
// a deleted or unavailable track.
type PlaylistItem struct {
	Track *TrackEntry `json:"track"`
}

// AudioFeatures holds the audio measurements for one track.
type AudioFeatures struct {
	Acousticness     float64 `json:"acousticness"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Speechiness      float64 `json:"speechiness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"` // beats per minute
}

// Value returns the measurement for f. Unknown features return 0.
func (a AudioFeatures) Value(f Feature) float64 {
	switch f {
	case Acousticness:
		return a.Acousticness
	case Danceability:
		return a.Danceability
	case Energy:
		return a.Energy
	case Instrumentalness:
		return a.Instrumentalness
	case Liveness:
		return a.Liveness
	case Speechiness:
		return a.Speechiness
	case Valence:
		return a.Valence
	case Tempo:
		return a.Tempo
	default:
		return 0
	}
}

// Row is one table row: track fields followed by its audio features.
type Row struct {
	Index      int           `json:"index"` // 1-based display index
	TrackID    string        `json:"track_id"`
	TrackName  string        `json:"track_name"`
	Artist     string        `json:"artist"`
	Popularity int           `json:"popularity"`
	Features   AudioFeatures `json:"features"`
}

// Cells returns the row formatted as strings in [Columns] order.
func (r Row) Cells() []string {
	cells := []string{r.TrackName, r.Artist, strconv.Itoa(r.Popularity)}
	for _, f := range TableFeatures {
		cells = append(cells, FormatValue(f, r.Features.Value(f)))
	}
	return cells
}

// Table is the analysis-ready dataset for one playlist.
type Table struct {
	Playlist string `json:"playlist"`
	Rows     []Row  `json:"rows"`
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column returns the values of feature f across all rows, in row order.
func (t *Table) Column(f Feature) []float64 {
	values := make([]float64, t.Len())
	for i, r := range t.Rows {
		values[i] = r.Features.Value(f)
	}
	return values
}

// TrackNames returns the track name of every row, in row order.
func (t *Table) TrackNames() []string {
	names := make([]string, t.Len())
	for i, r := range t.Rows {
		names[i] = r.TrackName
	}
	return names
}

// FormatValue renders a feature value for display: tempo with one decimal, the rest with three.
func FormatValue(f Feature, v float64) string {
	if f == Tempo {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%.3f", v)
}
