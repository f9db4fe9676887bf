package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/tunescope/internal/models"
	"github.com/desertthunder/tunescope/internal/shared"
	"github.com/desertthunder/tunescope/internal/tasks"
	th "github.com/desertthunder/tunescope/internal/testing"
)

func testSnapshot() *tasks.Snapshot {
	table := &models.Table{
		Playlist: "Top 50 Japan",
		Rows: []models.Row{
			{
				Index: 1, TrackID: "t1", TrackName: "Song One", Artist: "Artist One", Popularity: 88,
				Features: models.AudioFeatures{Acousticness: 0.2, Danceability: 0.5, Energy: 0.8, Instrumentalness: 0, Liveness: 0.1, Speechiness: 0.05, Valence: 0.6, Tempo: 128.04},
			},
			{
				Index: 2, TrackID: "t2", TrackName: "Song | Two", Artist: "Artist, Two", Popularity: 70,
				Features: models.AudioFeatures{Acousticness: 0.5, Danceability: 0.7, Energy: 0.4, Instrumentalness: 0.1, Liveness: 0.2, Speechiness: 0.1, Valence: 0.3, Tempo: 96},
			},
			{
				Index: 3, TrackID: "t3", TrackName: "Song Three", Artist: "Artist Three", Popularity: 52,
				Features: models.AudioFeatures{Acousticness: 0.8, Danceability: 0.2, Energy: 0.3, Instrumentalness: 0.4, Liveness: 0.3, Speechiness: 0.2, Valence: 0.9, Tempo: 140},
			},
		},
	}
	return &tasks.Snapshot{
		ID:          "snap",
		Playlist:    models.Playlist{Name: "Top 50 Japan", ID: "p"},
		Table:       table,
		Correlation: tasks.BuildCorrelation(table),
		Histograms:  tasks.BuildHistograms(table),
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testSnapshot().Table)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(records) != 4 {
			t.Fatalf("expected header plus 3 rows, got %d", len(records))
		}

		want := "#,Track Name,Artist,Popularity,Acousticness,Danceability,Energy,Instrumentalness,Liveness,Speechiness,Valence,Tempo"
		if got := strings.Join(records[0], ","); got != want {
			t.Errorf("unexpected header %q", got)
		}
		if records[1][0] != "1" || records[1][1] != "Song One" || records[1][11] != "128.0" {
			t.Errorf("unexpected first record %v", records[1])
		}
		if records[2][2] != "Artist, Two" {
			t.Errorf("expected quoted comma to survive, got %q", records[2][2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testSnapshot())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Top 50 Japan",
			"**Tracks**: 3",
			"## Tracks",
			"| # | Track Name | Artist |",
			`| 2 | Song \| Two | Artist, Two | 70 |`,
			"## Correlation",
			"| Acousticness | 1.00 |  |",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testSnapshot().Table)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{"Playlist: Top 50 Japan", "Tracks: 3", "Track Name", "Song Three", "0.800"} {
			if !strings.Contains(output, want) {
				t.Errorf("text output missing %q", want)
			}
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(testSnapshot())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		for _, key := range []string{"id", "playlist", "table", "correlation", "histograms"} {
			if _, ok := decoded[key]; !ok {
				t.Errorf("JSON missing %q", key)
			}
		}
	})

	t.Run("Export", func(t *testing.T) {
		for _, f := range Formats {
			if _, err := Export(testSnapshot(), f); err != nil {
				t.Errorf("%s: unexpected error %v", f, err)
			}
		}

		if _, err := Export(nil, CSV); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := Export(testSnapshot(), Format("xml")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"", Text, false},
		{"txt", Text, false},
		{"CSV", CSV, false},
		{"md", Markdown, false},
		{" markdown ", Markdown, false},
		{"json", JSON, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestCorrelationText(t *testing.T) {
	t.Run("lower triangle", func(t *testing.T) {
		m := testSnapshot().Correlation
		if CorrelationCell(m, 0, 1) != "" {
			t.Error("expected upper triangle to be blank")
		}
		if CorrelationCell(m, 1, 1) != "1.00" {
			t.Errorf("expected diagonal 1.00, got %q", CorrelationCell(m, 1, 1))
		}

		out := CorrelationText(m)
		if !strings.Contains(out, "Instrumentalness") || !strings.Contains(out, "1.00") {
			t.Errorf("unexpected grid\n%s", out)
		}
	})

	t.Run("undefined coefficient", func(t *testing.T) {
		m := &models.CorrelationMatrix{
			Features: []models.Feature{models.Energy, models.Tempo},
			Values:   [][]float64{{1, math.NaN()}, {math.NaN(), 1}},
		}
		if got := CorrelationCell(m, 1, 0); got != "n/a" {
			t.Errorf("expected n/a, got %q", got)
		}
	})

	t.Run("empty matrix", func(t *testing.T) {
		if CorrelationText(nil) != "" {
			t.Error("expected empty output")
		}
	})
}

func TestHistogramText(t *testing.T) {
	t.Run("bars scale to width", func(t *testing.T) {
		h := &models.Histogram{
			Feature: models.Energy,
			Title:   "Distribution of Energy in Top 50 Songs",
			Bins: []models.Bin{
				{Min: 0, Max: 0.5, Count: 4},
				{Min: 0.5, Max: 1, Count: 1},
			},
		}

		lines := strings.Split(strings.TrimRight(HistogramText(h, 8), "\n"), "\n")
		if len(lines) != 3 || lines[0] != h.Title {
			t.Fatalf("unexpected output %q", lines)
		}
		if strings.Count(lines[1], "█") != 8 || strings.Count(lines[2], "█") != 2 {
			t.Errorf("unexpected bar lengths %q", lines[1:])
		}
		if !strings.HasSuffix(lines[1], " 4") {
			t.Errorf("expected count suffix, got %q", lines[1])
		}
	})

	t.Run("small counts stay visible", func(t *testing.T) {
		h := &models.Histogram{Feature: models.Tempo, Bins: []models.Bin{{Min: 60, Max: 70, Count: 100}, {Min: 70, Max: 80, Count: 1}}}
		lines := strings.Split(strings.TrimRight(HistogramText(h, 10), "\n"), "\n")
		if got := strings.Count(lines[len(lines)-1], "█"); got != 1 {
			t.Errorf("expected a one-character bar, got %d", got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		h := &models.Histogram{Title: "Empty"}
		if got := HistogramText(h, 10); got != "Empty\n(no data)\n" {
			t.Errorf("unexpected output %q", got)
		}
		if HistogramText(nil, 10) != "" {
			t.Error("expected empty output for nil histogram")
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("WithDefaultPath", func(t *testing.T) {
		if got := DefaultFilename("Top 50 Japan", CSV); got != "top_50_japan_table.csv" {
			t.Errorf("unexpected default filename %q", got)
		}
		if got := DefaultFilename("AC/DC  Hits", Markdown); got != "ac_dc_hits_table.md" {
			t.Errorf("unexpected default filename %q", got)
		}
		if got := DefaultFilename("", JSON); got != "playlist_table.json" {
			t.Errorf("unexpected default filename %q", got)
		}
	})

	t.Run("WithCustomPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exports", "japan.csv")
		written, err := WriteExport(testSnapshot(), CSV, path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if written != path {
			t.Errorf("expected %s, got %s", path, written)
		}

		th.AssertFileExists(t, path)
		content := th.MustReadFile(t, path)
		if !strings.HasPrefix(content, "#,Track Name") {
			t.Errorf("unexpected file content %q", content)
		}
	})

	t.Run("unwritable path", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		if _, err := WriteExport(testSnapshot(), Text, blocker); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if _, err := WriteExport(testSnapshot(), Text, filepath.Join(blocker, "nested.txt")); err == nil {
			t.Error("expected error writing beneath a file")
		}
	})
}
