package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestFeatures(t *testing.T) {
	t.Run("Columns order is fixed", func(t *testing.T) {
		want := "Track Name,Artist,Popularity,Acousticness,Danceability,Energy,Instrumentalness,Liveness,Speechiness,Valence,Tempo"
		if got := strings.Join(Columns, ","); got != want {
			t.Errorf("expected columns %s, got %s", want, got)
		}
	})

	t.Run("Column titles match table features", func(t *testing.T) {
		for i, f := range TableFeatures {
			if Columns[i+3] != f.Title() {
				t.Errorf("column %d: expected %s, got %s", i+3, f.Title(), Columns[i+3])
			}
		}
	})

	t.Run("AnalysisFeatures excludes liveness", func(t *testing.T) {
		if len(AnalysisFeatures) != 7 {
			t.Fatalf("expected 7 analysis features, got %d", len(AnalysisFeatures))
		}
		if Liveness.IsAnalysis() {
			t.Error("liveness should not be analysed")
		}
		if !Tempo.IsAnalysis() {
			t.Error("tempo should be analysed")
		}
	})

	t.Run("every analysis feature has a description", func(t *testing.T) {
		for _, f := range AnalysisFeatures {
			if FeatureDescriptions[f] == "" {
				t.Errorf("missing description for %s", f)
			}
		}
	})

	t.Run("ParseFeature", func(t *testing.T) {
		tc := []struct {
			name   string
			input  string
			want   Feature
			wantOk bool
		}{
			{name: "lowercase", input: "energy", want: Energy, wantOk: true},
			{name: "title case", input: "Danceability", want: Danceability, wantOk: true},
			{name: "padded", input: "  TEMPO ", want: Tempo, wantOk: true},
			{name: "liveness", input: "Liveness", want: Liveness, wantOk: true},
			{name: "unknown", input: "Loudness", wantOk: false},
			{name: "empty", input: "", wantOk: false},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				got, ok := ParseFeature(tt.input)
				if ok != tt.wantOk || got != tt.want {
					t.Errorf("ParseFeature(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOk)
				}
			})
		}
	})

	t.Run("formats as its canonical name", func(t *testing.T) {
		for _, f := range TableFeatures {
			got := fmt.Sprint(f)
			if got != string(f) {
				t.Errorf("expected %q, got %q", string(f), got)
			}
			if parsed, ok := ParseFeature(got); !ok || parsed != f {
				t.Errorf("expected %q to parse back to %q", got, f)
			}
		}
	})

	t.Run("ParseAnalysisFeature rejects liveness", func(t *testing.T) {
		if _, ok := ParseAnalysisFeature("Liveness"); ok {
			t.Error("expected liveness to be rejected")
		}
		if f, ok := ParseAnalysisFeature("valence"); !ok || f != Valence {
			t.Errorf("expected valence, got %q", f)
		}
	})
}

func TestRow(t *testing.T) {
	row := Row{
		Index:      1,
		TrackName:  "Song",
		Artist:     "Band",
		Popularity: 87,
		Features: AudioFeatures{
			Acousticness: 0.1, Danceability: 0.2, Energy: 0.3, Instrumentalness: 0.4,
			Liveness: 0.5, Speechiness: 0.6, Valence: 0.7, Tempo: 120.25,
		},
	}

	cells := row.Cells()
	if len(cells) != len(Columns) {
		t.Fatalf("expected %d cells, got %d", len(Columns), len(cells))
	}

	want := []string{"Song", "Band", "87", "0.100", "0.200", "0.300", "0.400", "0.500", "0.600", "0.700", "120.2"}
	for i := range want {
		if cells[i] != want[i] {
			t.Errorf("cell %d (%s): expected %s, got %s", i, Columns[i], want[i], cells[i])
		}
	}
}

func TestTable(t *testing.T) {
	t.Run("nil table", func(t *testing.T) {
		var table *Table
		if table.Len() != 0 {
			t.Errorf("expected 0 rows, got %d", table.Len())
		}
	})

	t.Run("Column and TrackNames follow row order", func(t *testing.T) {
		table := &Table{Rows: []Row{
			{TrackName: "a", Features: AudioFeatures{Energy: 0.9}},
			{TrackName: "b", Features: AudioFeatures{Energy: 0.1}},
		}}

		col := table.Column(Energy)
		if col[0] != 0.9 || col[1] != 0.1 {
			t.Errorf("unexpected column %v", col)
		}
		names := table.TrackNames()
		if names[0] != "a" || names[1] != "b" {
			t.Errorf("unexpected names %v", names)
		}
	})

	t.Run("PrimaryArtist", func(t *testing.T) {
		if got := (TrackEntry{Artists: []string{"x", "y"}}).PrimaryArtist(); got != "x" {
			t.Errorf("expected x, got %s", got)
		}
		if got := (TrackEntry{}).PrimaryArtist(); got != "" {
			t.Errorf("expected empty artist, got %s", got)
		}
	})
}

func TestCorrelationMatrix(t *testing.T) {
	m := &CorrelationMatrix{
		Features: []Feature{Energy, Valence},
		Values: [][]float64{
			{1, math.NaN()},
			{math.NaN(), 1},
		},
	}

	t.Run("Masked hides strict upper triangle", func(t *testing.T) {
		if m.Masked(1, 0) || m.Masked(0, 0) {
			t.Error("lower triangle and diagonal must be visible")
		}
		if !m.Masked(0, 1) {
			t.Error("upper triangle must be masked")
		}
	})

	t.Run("Lookup", func(t *testing.T) {
		if v, ok := m.Lookup(Energy, Energy); !ok || v != 1 {
			t.Errorf("expected 1, got %v", v)
		}
		if _, ok := m.Lookup(Energy, Tempo); ok {
			t.Error("expected missing feature lookup to fail")
		}
	})

	t.Run("MarshalJSON writes NaN as null", func(t *testing.T) {
		data, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := `{"features":["energy","valence"],"values":[[1,null],[null,1]]}`
		if string(data) != want {
			t.Errorf("expected %s, got %s", want, data)
		}
	})
}

func TestHistogram(t *testing.T) {
	h := &Histogram{Bins: []Bin{{Count: 2}, {Count: 0}, {Count: 5}}}
	if h.Total() != 7 {
		t.Errorf("expected total 7, got %d", h.Total())
	}
	if h.MaxCount() != 5 {
		t.Errorf("expected max 5, got %d", h.MaxCount())
	}

	set := HistogramSet{Energy: h, Valence: nil}
	if _, ok := set.Get(Energy); !ok {
		t.Error("expected energy histogram")
	}
	if _, ok := set.Get(Valence); ok {
		t.Error("nil histogram should not be returned")
	}
}
