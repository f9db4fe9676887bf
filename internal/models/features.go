package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Feature names a single audio measurement.
type Feature string

const (
	Acousticness     Feature = "acousticness"
	Danceability     Feature = "danceability"
	Energy           Feature = "energy"
	Instrumentalness Feature = "instrumentalness"
	Liveness         Feature = "liveness"
	Speechiness      Feature = "speechiness"
	Valence          Feature = "valence"
	Tempo            Feature = "tempo"
)

// TableFeatures lists every feature column of a [Table], in column order.
var TableFeatures = []Feature{
	Acousticness, Danceability, Energy, Instrumentalness, Liveness, Speechiness, Valence, Tempo,
}

// AnalysisFeatures is the fixed feature set used for correlation, histograms and feature selection.
//
// Liveness is shown in the table but is not analysed.
var AnalysisFeatures = []Feature{
	Acousticness, Danceability, Energy, Instrumentalness, Speechiness, Valence, Tempo,
}

// Columns is the fixed column order of every [Table].
var Columns = []string{
	"Track Name", "Artist", "Popularity",
	"Acousticness", "Danceability", "Energy", "Instrumentalness",
	"Liveness", "Speechiness", "Valence", "Tempo",
}

// FeatureDescriptions is the key shown alongside the dashboard.
var FeatureDescriptions = map[Feature]string{
	Acousticness:     "describes how acoustic a song is. A score of 1.0 means the song is most likely to be an acoustic one",
	Danceability:     "describes how suitable a track is for dancing based on a combination of musical elements including tempo, rhythm stability, beat strength, and overall regularity",
	Energy:           "represents a perceptual measure of intensity and activity. Typically, energetic tracks feel fast, loud, and noisy",
	Instrumentalness: "predicts whether a track contains no vocals. The closer the instrumentalness value is to 1.0, the greater likelihood the track contains no vocal content",
	Speechiness:      "detects the presence of spoken words in a track. Values between 0.33 and 0.66 may contain both music and speech including such cases as rap music. Values below 0.33 most likely represent music",
	Valence:          "describes the musical positiveness conveyed by a track. High valence tracks sound more positive (e.g. happy, cheerful, euphoric) while tracks with low valence sound more negative (e.g. sad, depressed, angry)",
	Tempo:            "the overall estimated tempo of a track in beats per minute (BPM)",
}

// Title returns the display name of the feature, e.g. "Danceability".
//
// A [cases.Caser] is stateful, so one is created per call.
func (f Feature) Title() string {
	return cases.Title(language.English).String(string(f))
}

// IsAnalysis reports whether f belongs to [AnalysisFeatures].
func (f Feature) IsAnalysis() bool {
	for _, a := range AnalysisFeatures {
		if a == f {
			return true
		}
	}
	return false
}

// ParseFeature resolves a feature by name, ignoring case and surrounding space.
func ParseFeature(name string) (Feature, bool) {
	f := Feature(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range TableFeatures {
		if known == f {
			return f, true
		}
	}
	return "", false
}

// ParseAnalysisFeature resolves name against [AnalysisFeatures] only.
func ParseAnalysisFeature(name string) (Feature, bool) {
	f, ok := ParseFeature(name)
	if !ok || !f.IsAnalysis() {
		return "", false
	}
	return f, true
}
