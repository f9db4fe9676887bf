// Spotify Web API implementation of [Catalog]
//
// Authentication uses the client-credentials flow; the API client is github.com/zmb3/spotify/v2.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunescope/internal/models"
	"github.com/desertthunder/tunescope/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

// SpotifyCatalog implements [Catalog] against the Spotify Web API.
type SpotifyCatalog struct {
	client *spotify.Client
	logger *log.Logger
}

type catalogOptions struct {
	baseURL    string
	tokenURL   string
	rateLimit  float64
	httpClient *http.Client
	logger     *log.Logger
}

// CatalogOption configures a [SpotifyCatalog].
type CatalogOption func(*catalogOptions)

// WithBaseURL points the catalog at a different API root. Used by tests.
func WithBaseURL(u string) CatalogOption {
	return func(o *catalogOptions) { o.baseURL = u }
}

// WithTokenURL overrides the client-credentials token endpoint.
func WithTokenURL(u string) CatalogOption {
	return func(o *catalogOptions) { o.tokenURL = u }
}

// WithRateLimit caps outgoing requests per second. Zero or less disables throttling.
func WithRateLimit(perSecond float64) CatalogOption {
	return func(o *catalogOptions) { o.rateLimit = perSecond }
}

// WithHTTPClient sets the base client used for token and API requests.
func WithHTTPClient(c *http.Client) CatalogOption {
	return func(o *catalogOptions) { o.httpClient = c }
}

// WithCatalogLogger sets the logger for request diagnostics.
func WithCatalogLogger(l *log.Logger) CatalogOption {
	return func(o *catalogOptions) { o.logger = l }
}

// NewSpotifyCatalog creates a catalog client from client_id and client_secret credentials.
//
// Tokens are fetched lazily on the first request and refreshed by [oauth2].
func NewSpotifyCatalog(credentials map[string]string, opts ...CatalogOption) (*SpotifyCatalog, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id in credentials", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret in credentials", shared.ErrMissingCredentials)
	}

	o := catalogOptions{tokenURL: spotifyauth.TokenURL, rateLimit: 10}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     o.tokenURL,
	}

	// The token source outlives any single request, so it gets a background context.
	ctx := context.Background()
	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}

	limit := rate.Inf
	if o.rateLimit > 0 {
		limit = rate.Limit(o.rateLimit)
	}
	httpClient := config.Client(ctx)
	httpClient.Transport = &throttledTransport{base: httpClient.Transport, limiter: rate.NewLimiter(limit, 1)}

	var clientOpts []spotify.ClientOption
	if o.baseURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(o.baseURL))
	}

	return &SpotifyCatalog{
		client: spotify.New(httpClient, clientOpts...),
		logger: o.logger,
	}, nil
}

func (s *SpotifyCatalog) Name() string {
	return "Spotify"
}

// PlaylistItems fetches every page of a playlist's items.
//
// Episodes, local files and removed tracks become slots with a nil Track.
func (s *SpotifyCatalog) PlaylistItems(ctx context.Context, playlistID string) ([]models.PlaylistItem, error) {
	id, err := ExtractPlaylistID(playlistID)
	if err != nil {
		return nil, err
	}

	var items []models.PlaylistItem
	offset := 0

	for {
		s.logger.Debug("requesting playlist items page", "playlist_id", id, "offset", offset)

		page, err := s.client.GetPlaylistItems(ctx, spotify.ID(id), spotify.Limit(playlistPageSize), spotify.Offset(offset))
		if err != nil {
			return nil, mapSpotifyError(err, fmt.Sprintf("playlist %s", id), shared.ErrPlaylistNotFound)
		}

		for _, item := range page.Items {
			items = append(items, toPlaylistItem(item))
		}

		if len(page.Items) == 0 || offset+len(page.Items) >= int(page.Total) {
			break
		}
		offset += len(page.Items)
	}

	s.logger.Debug("fetched playlist items", "playlist_id", id, "count", len(items))
	return items, nil
}

// AudioFeatures fetches feature vectors in requests of at most [MaxFeatureBatch] IDs.
func (s *SpotifyCatalog) AudioFeatures(ctx context.Context, ids ...string) ([]*models.AudioFeatures, error) {
	results := make([]*models.AudioFeatures, 0, len(ids))

	for start := 0; start < len(ids); start += MaxFeatureBatch {
		end := min(start+MaxFeatureBatch, len(ids))

		batch := make([]spotify.ID, end-start)
		for i, id := range ids[start:end] {
			batch[i] = spotify.ID(id)
		}

		features, err := s.client.GetAudioFeatures(ctx, batch...)
		if err != nil {
			return nil, mapSpotifyError(err, "audio features", shared.ErrTrackNotFound)
		}

		for i := range batch {
			if i >= len(features) || features[i] == nil {
				results = append(results, nil)
				continue
			}
			results = append(results, toAudioFeatures(features[i]))
		}
	}

	return results, nil
}

func toPlaylistItem(item spotify.PlaylistItem) models.PlaylistItem {
	track := item.Track.Track
	if track == nil || item.IsLocal || track.ID == "" {
		return models.PlaylistItem{}
	}

	artists := make([]string, len(track.Artists))
	for i, a := range track.Artists {
		artists[i] = a.Name
	}

	return models.PlaylistItem{Track: &models.TrackEntry{
		ID:         string(track.ID),
		Name:       track.Name,
		Artists:    artists,
		Popularity: int(track.Popularity),
	}}
}

func toAudioFeatures(f *spotify.AudioFeatures) *models.AudioFeatures {
	return &models.AudioFeatures{
		Acousticness:     float64(f.Acousticness),
		Danceability:     float64(f.Danceability),
		Energy:           float64(f.Energy),
		Instrumentalness: float64(f.Instrumentalness),
		Liveness:         float64(f.Liveness),
		Speechiness:      float64(f.Speechiness),
		Valence:          float64(f.Valence),
		Tempo:            float64(f.Tempo),
	}
}

// mapSpotifyError converts client errors into the shared sentinel errors. A 404 maps to notFound.
func mapSpotifyError(err error, what string, notFound error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	status := 0
	var apiErr spotify.Error
	var apiErrPtr *spotify.Error
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Status
	case errors.As(err, &apiErrPtr):
		status = apiErrPtr.Status
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s: %v", shared.ErrAuthFailed, what, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", notFound, what)
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusBadGateway:
		return fmt.Errorf("%w: %s: %v", shared.ErrServiceUnavailable, what, err)
	}

	return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, what, err)
}

// ExtractPlaylistID accepts a bare playlist ID, a spotify:playlist: URI or an open.spotify.com URL.
func ExtractPlaylistID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty playlist reference", shared.ErrInvalidInput)
	}

	var id string
	switch {
	case strings.HasPrefix(ref, "spotify:playlist:"):
		id = strings.TrimPrefix(ref, "spotify:playlist:")
	case strings.Contains(ref, "open.spotify.com/"):
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("%w: invalid playlist URL %q", shared.ErrInvalidInput, ref)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) < 2 || parts[len(parts)-2] != "playlist" {
			return "", fmt.Errorf("%w: not a playlist URL %q", shared.ErrInvalidInput, ref)
		}
		id = parts[len(parts)-1]
	case strings.ContainsAny(ref, ":/?"):
		return "", fmt.Errorf("%w: unsupported playlist reference %q", shared.ErrInvalidInput, ref)
	default:
		id = ref
	}

	if !isBase62(id) {
		return "", fmt.Errorf("%w: malformed playlist id %q", shared.ErrInvalidInput, id)
	}
	return id, nil
}

func isBase62(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9') {
			return false
		}
	}
	return true
}

// throttledTransport waits on a shared [rate.Limiter] before each request.
type throttledTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
