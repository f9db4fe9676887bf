// Package services defines the [Catalog] interface for music catalog providers and implements it for Spotify.
//
// # Catalog Interface
//
// The dashboard only reads from the catalog: playlist items and per-track audio features.
// Everything downstream of the catalog works on [models] types, so tests substitute a fake.
//
// # Spotify Implementation
//
// [SpotifyCatalog] wraps github.com/zmb3/spotify/v2. Authentication uses the client-credentials
// flow from golang.org/x/oauth2/clientcredentials; the token is fetched on the first request
// and refreshed by the oauth2 transport.
//
// Every outgoing API request waits on a shared [rate.Limiter].
//
// Playlist references are accepted in three forms (see [ExtractPlaylistID]):
//   - 37i9dQZF1DXcBWIGoYBM5M
//   - spotify:playlist:37i9dQZF1DXcBWIGoYBM5M
//   - https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAuthFailed] : token request rejected, or 401/403 from the API
//   - [shared.ErrPlaylistNotFound] : playlist ID not found
//   - [shared.ErrServiceUnavailable] : 429/502/503 from the API
//   - [shared.ErrAPIRequest] : any other failed request
//   - [shared.ErrInvalidInput] : malformed playlist reference
package services
