package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/tunescope/internal/models"
	"github.com/desertthunder/tunescope/internal/services"
	"github.com/desertthunder/tunescope/internal/shared"
)

// FeatureSource looks up audio features for a list of track IDs.
//
// Implementations return one entry per ID, in order, with nil for tracks that have no data.
type FeatureSource interface {
	AudioFeatures(ctx context.Context, ids ...string) ([]*models.AudioFeatures, error)
}

// TableOpts controls how [BuildTable] talks to its [FeatureSource].
type TableOpts struct {
	BatchSize int                   // IDs per feature request; clamped to [1, services.MaxFeatureBatch]
	Progress  chan<- ProgressUpdate // optional, written without blocking
}

func (o TableOpts) batchSize() int {
	if o.BatchSize <= 0 || o.BatchSize > services.MaxFeatureBatch {
		return services.MaxFeatureBatch
	}
	return o.BatchSize
}

// BuildTable turns raw playlist slots into a fixed-schema table.
//
// Slots without a track are skipped and take no index. Features are fetched in batches and
// matched back to tracks by position, so row order always follows playlist order.
// A track without feature data fails the whole build with [shared.ErrTrackNotFound].
func BuildTable(ctx context.Context, src FeatureSource, playlist string, items []models.PlaylistItem, opts TableOpts) (*models.Table, error) {
	tracks := make([]*models.TrackEntry, 0, len(items))
	for _, item := range items {
		if item.Track == nil {
			continue
		}
		tracks = append(tracks, item.Track)
	}

	ids := make([]string, len(tracks))
	for i, tr := range tracks {
		ids[i] = tr.ID
	}

	features, err := fetchFeatures(ctx, src, ids, opts)
	if err != nil {
		return nil, err
	}

	table := &models.Table{Playlist: playlist, Rows: make([]models.Row, 0, len(tracks))}
	for i, tr := range tracks {
		af := features[i]
		if af == nil {
			return nil, fmt.Errorf("%w: no audio features for %q (%s)", shared.ErrTrackNotFound, tr.Name, tr.ID)
		}

		table.Rows = append(table.Rows, models.Row{
			Index:      i + 1,
			TrackID:    tr.ID,
			TrackName:  tr.Name,
			Artist:     tr.PrimaryArtist(),
			Popularity: tr.Popularity,
			Features:   *af,
		})
	}

	return table, nil
}

// fetchFeatures returns exactly len(ids) entries, padding short responses with nil.
func fetchFeatures(ctx context.Context, src FeatureSource, ids []string, opts TableOpts) ([]*models.AudioFeatures, error) {
	size := opts.batchSize()
	batches := (len(ids) + size - 1) / size
	features := make([]*models.AudioFeatures, 0, len(ids))

	for step := 0; step < batches; step++ {
		start := step * size
		end := min(start+size, len(ids))

		sendProgress(opts.Progress, fetchFeaturesUpdate(step+1, batches, end, len(ids)))

		batch, err := src.AudioFeatures(ctx, ids[start:end]...)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch audio features: %w", err)
		}

		for i := range end - start {
			if i < len(batch) {
				features = append(features, batch[i])
			} else {
				features = append(features, nil)
			}
		}
	}

	return features, nil
}
