// package services defines interface Catalog for reading playlists and audio features from HTTP APIs
//
// Spotify (via github.com/zmb3/spotify/v2)
package services

import (
	"context"

	"github.com/desertthunder/tunescope/internal/models"
)

// Catalog defines the read-only music catalog the dashboard pulls its data from.
type Catalog interface {
	// PlaylistItems returns every slot of the playlist in playlist order.
	// Slots referencing unavailable tracks carry a nil Track.
	PlaylistItems(ctx context.Context, playlistID string) ([]models.PlaylistItem, error)

	// AudioFeatures returns one entry per requested track ID, in request order.
	// Tracks without feature data yield a nil entry.
	AudioFeatures(ctx context.Context, ids ...string) ([]*models.AudioFeatures, error)

	// Name returns the name of the catalog (e.g., "Spotify")
	Name() string
}

const (
	// MaxFeatureBatch is the largest number of track IDs accepted by one audio-features request.
	MaxFeatureBatch = 100
	// playlistPageSize is the largest page of playlist items the API returns.
	playlistPageSize = 100
)
