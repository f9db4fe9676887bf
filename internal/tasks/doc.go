// Package tasks turns a playlist selection into the datasets the dashboard displays, with real-time progress reporting.
//
// # Pipeline
//
// The pipeline is three plain functions plus an engine that sequences them:
//
//  1. [BuildTable] : Playlist slots → fixed-schema [models.Table]
//     - Skips slots whose track is unavailable
//     - Fetches audio features in batches of up to 100 IDs
//     - Fails with [shared.ErrTrackNotFound] when a track has no features
//
//  2. [BuildCorrelation] : Table → [models.CorrelationMatrix]
//     - Pearson correlation (gonum stat) over the seven analysis features
//     - NaN for undefined pairs, 1.0 on the diagonal
//
//  3. [BuildHistograms] : Table → [models.HistogramSet]
//     - 20 equal-width bins over each feature's observed range
//     - Track names attached to each bin for hover labels
//
// [Engine.Build] resolves a configured playlist by name, runs all three and returns a [Snapshot].
//
// # Progress Reporting
//
// # Builds use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Implementation
//
// [Engine] implements [SnapshotBuilder] with a dependency on [services.Catalog].
// Nothing is cached between builds; every selection recomputes its snapshot.
package tasks
