// Package web renders the HTML dashboard page.
//
// # Layout
//
// The page mirrors the original single-page dashboard:
//
//  1. Sidebar: "Key for Audio Features" built from [models.FeatureDescriptions]
//  2. Header: title, intro text and the playlist / feature selectors
//  3. Charts: correlation heatmap (left) and the selected histogram (right)
//  4. Detail: the full table with a 1-based index column
//
// Selectors submit a plain GET form, so every selection is a full page request that the
// server maps to [dashboard.Session] events. Charts are loaded as PNG images from the
// server's chart routes.
//
// # Templates
//
// Templates are embedded with [embed] and parsed once by [NewRenderer].
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/desertthunder/tunescope/internal/dashboard"
	"github.com/desertthunder/tunescope/internal/models"
)

//go:embed templates/*.html
var templates embed.FS

// PageTitle is the document title of the dashboard.
const PageTitle = "Spotify Playlist Analysis"

// Intro is the paragraph under the dashboard header.
const Intro = `Audio features measured by the Spotify API, compared across different ("Top 50") playlists. ` +
	`See how the prevalence and levels of these features vary across cultures, countries, and decades.`

// Description is a single entry of the feature key.
type Description struct {
	Name string
	Text string
}

// Page is the data rendered by the dashboard template.
type Page struct {
	Title        string
	Intro        string
	Descriptions []Description
	Playlists    []models.Playlist
	Features     []models.Feature
	Playlist     string
	Feature      models.Feature
	Columns      []string
	Rows         []models.Row
	HasData      bool
	Message      string
	Error        string
	HeatmapURL   string
	HistogramURL string
}

// NewPage builds the page for a session view.
func NewPage(playlists []models.Playlist, v dashboard.View) Page {
	p := Page{
		Title:        PageTitle,
		Intro:        Intro,
		Descriptions: Descriptions(),
		Playlists:    playlists,
		Features:     models.AnalysisFeatures,
		Playlist:     v.Playlist,
		Feature:      v.Feature,
		Columns:      models.Columns,
		Message:      v.Message(),
	}

	if v.Err != nil {
		p.Error = v.Err.Error()
		return p
	}

	if v.Snapshot != nil && v.Snapshot.Table != nil {
		p.HasData = true
		p.Rows = v.Snapshot.Table.Rows
		p.HeatmapURL = chartURL("heatmap", v.Playlist, "")
		p.HistogramURL = chartURL("histogram", v.Playlist, v.Feature)
	}
	return p
}

// Descriptions returns the feature key in [models.AnalysisFeatures] order.
func Descriptions() []Description {
	out := make([]Description, 0, len(models.AnalysisFeatures))
	for _, f := range models.AnalysisFeatures {
		out = append(out, Description{Name: f.Title(), Text: models.FeatureDescriptions[f]})
	}
	return out
}

func chartURL(kind, playlist string, feature models.Feature) string {
	q := url.Values{}
	q.Set("playlist", playlist)
	if feature != "" {
		q.Set("feature", string(feature))
	}
	return fmt.Sprintf("/charts/%s.png?%s", kind, q.Encode())
}

// Renderer executes the embedded dashboard template.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the dashboard page to w.
func (r *Renderer) Render(w io.Writer, page Page) error {
	if err := r.tmpl.ExecuteTemplate(w, "dashboard.html", page); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}
