// Package ui implements an interactive terminal dashboard using bubbletea's Elm architecture.
//
// The TUI mirrors the web dashboard with three views:
//  1. [PlaylistListView] : Pick one of the configured playlists
//  2. [LoadingView] : Spinner and progress bar while the snapshot is built
//  3. [DashboardView] : Correlation grid, feature histogram and the raw data table
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Selections go through the same [dashboard.Session] the web server uses; progress updates flow through a channel per build,
// and results of superseded builds are dropped.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q), tab or arrow keys cycle the histogram feature,
// and ? toggles the feature key. Contextual help is displayed via charmbracelet/bubbles/help.
package ui
