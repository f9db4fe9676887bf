// Package models defines the data model for the tunescope playlist dashboard.
//
// The package contains two categories of types:
//
// 1. Catalog records: lightweight structs mirroring what the music catalog returns
//   - [Playlist] : A configured playlist (display name + catalog identifier)
//   - [PlaylistItem] : One playlist slot, optionally wrapping a [TrackEntry]
//   - [TrackEntry] : Track name, artists and popularity
//   - [AudioFeatures] : Per-track audio measurements
//
// 2. Derived datasets: rebuilt from scratch on every playlist selection
//   - [Table] : Fixed-schema [Row] values in playlist order
//   - [CorrelationMatrix] : Pearson correlation over [AnalysisFeatures]
//   - [Histogram] / [HistogramSet] : Binned distributions per feature
//
// Column order of a [Table] is fixed by [Columns] and never varies between playlists.
package models
