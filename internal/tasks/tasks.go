// package tasks implements the playlist analysis pipeline.
//
// The core abstraction is SnapshotBuilder, which turns a playlist selection into a table and its aggregates.
// Builds emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunescope/internal/models"
	"github.com/desertthunder/tunescope/internal/services"
	"github.com/desertthunder/tunescope/internal/shared"
)

// Snapshot is everything the dashboard displays for one playlist selection.
type Snapshot struct {
	ID          string                    `json:"id"`
	Playlist    models.Playlist           `json:"playlist"`
	Table       *models.Table             `json:"table"`
	Correlation *models.CorrelationMatrix `json:"correlation"`
	Histograms  models.HistogramSet       `json:"histograms"`
	BuiltAt     time.Time                 `json:"built_at"`
}

// Histogram returns the precomputed histogram for f.
func (s *Snapshot) Histogram(f models.Feature) (*models.Histogram, bool) {
	if s == nil {
		return nil, false
	}
	return s.Histograms.Get(f)
}

// SnapshotBuilder defines the pipeline a dashboard session drives.
type SnapshotBuilder interface {
	// Build runs the full pipeline for the named playlist.
	Build(ctx context.Context, name string, progress chan<- ProgressUpdate) (*Snapshot, error)

	// Playlists returns the enumerated playlist set in display order.
	Playlists() []models.Playlist
}

// EngineOptions tunes an [Engine].
type EngineOptions struct {
	BatchSize int           // audio-feature IDs per request
	Timeout   time.Duration // per-build timeout; zero disables it
	Logger    *log.Logger
	Now       func() time.Time
}

// Engine implements [SnapshotBuilder] on top of a [services.Catalog].
type Engine struct {
	catalog   services.Catalog
	playlists []models.Playlist
	opts      EngineOptions
	logger    *log.Logger
}

// NewEngine creates an Engine over the configured playlists.
func NewEngine(catalog services.Catalog, playlists []models.Playlist, opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Engine{
		catalog:   catalog,
		playlists: append([]models.Playlist(nil), playlists...),
		opts:      opts,
		logger:    logger,
	}
}

// Playlists returns a copy of the enumerated playlist set.
func (e *Engine) Playlists() []models.Playlist {
	return append([]models.Playlist(nil), e.playlists...)
}

// Lookup finds a configured playlist by display name.
func (e *Engine) Lookup(name string) (models.Playlist, bool) {
	for _, p := range e.playlists {
		if p.Name == name {
			return p, true
		}
	}
	return models.Playlist{}, false
}

// Build fetches the named playlist, builds its table and derives the aggregates.
func (e *Engine) Build(ctx context.Context, name string, progress chan<- ProgressUpdate) (*Snapshot, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	playlist, ok := e.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown playlist %q", shared.ErrInvalidArgument, name)
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	logger := e.logger.With("playlist", playlist.Name)
	started := e.opts.Now()

	sendProgress(progress, fetchPlaylistUpdate(playlist.Name))

	items, err := e.catalog.PlaylistItems(ctx, playlist.ID)
	if err != nil {
		return nil, e.buildError(ctx, "failed to fetch playlist", playlist, err)
	}

	sendProgress(progress, foundPlaylistUpdate(playlist.Name, len(items), countTracks(items)))

	table, err := BuildTable(ctx, e.catalog, playlist.Name, items, TableOpts{
		BatchSize: e.opts.BatchSize,
		Progress:  progress,
	})
	if err != nil {
		return nil, e.buildError(ctx, "failed to build table", playlist, err)
	}
	sendProgress(progress, aggregateUpdate(table.Len()))

	snapshot := &Snapshot{
		ID:          shared.GenerateID(),
		Playlist:    playlist,
		Table:       table,
		Correlation: BuildCorrelation(table),
		Histograms:  BuildHistograms(table),
		BuiltAt:     e.opts.Now(),
	}

	logger.Info("built snapshot", "rows", table.Len(), "skipped", len(items)-table.Len(), "elapsed", snapshot.BuiltAt.Sub(started))
	sendProgress(progress, completeUpdate(snapshot))

	return snapshot, nil
}

// buildError wraps err, reporting an exceeded build timeout as [shared.ErrTimeout].
func (e *Engine) buildError(ctx context.Context, msg string, playlist models.Playlist, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s %q after %s", shared.ErrTimeout, msg, playlist.Name, e.opts.Timeout)
	}
	return fmt.Errorf("%s %q: %w", msg, playlist.Name, err)
}

func countTracks(items []models.PlaylistItem) int {
	n := 0
	for _, item := range items {
		if item.Track != nil {
			n++
		}
	}
	return n
}
