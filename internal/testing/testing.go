// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/tunescope/internal/models"
)

// FakeCatalog is an in-memory test double for [services.Catalog].
//
// Playlists are keyed by the reference passed to PlaylistItems; features are keyed by track ID.
type FakeCatalog struct {
	mu          sync.Mutex
	playlists   map[string][]models.PlaylistItem
	features    map[string]models.AudioFeatures
	gates       map[string]chan struct{}
	itemsErr    error
	featuresErr error

	// Entered receives the playlist reference each time PlaylistItems is called, when non-nil.
	Entered chan string

	itemCalls int
	batches   [][]string
}

// NewFakeCatalog creates an empty FakeCatalog.
func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		playlists: make(map[string][]models.PlaylistItem),
		features:  make(map[string]models.AudioFeatures),
		gates:     make(map[string]chan struct{}),
	}
}

// AddPlaylist registers the items returned for ref.
func (f *FakeCatalog) AddPlaylist(ref string, items ...models.PlaylistItem) *FakeCatalog {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playlists[ref] = items
	return f
}

// AddFeatures registers the audio features for a track ID.
func (f *FakeCatalog) AddFeatures(id string, af models.AudioFeatures) *FakeCatalog {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.features[id] = af
	return f
}

// FailItems makes every PlaylistItems call return err.
func (f *FakeCatalog) FailItems(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemsErr = err
}

// FailFeatures makes every AudioFeatures call return err.
func (f *FakeCatalog) FailFeatures(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.featuresErr = err
}

// Block makes PlaylistItems for ref wait until the returned release func is called or the context ends.
func (f *FakeCatalog) Block(ref string) (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	gate := make(chan struct{})
	f.gates[ref] = gate

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (f *FakeCatalog) Name() string { return "fake" }

func (f *FakeCatalog) PlaylistItems(ctx context.Context, playlistID string) ([]models.PlaylistItem, error) {
	f.mu.Lock()
	f.itemCalls++
	gate := f.gates[playlistID]
	entered := f.Entered
	f.mu.Unlock()

	if entered != nil {
		entered <- playlistID
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.itemsErr != nil {
		return nil, f.itemsErr
	}

	items, ok := f.playlists[playlistID]
	if !ok {
		return nil, errors.New("fake: playlist not found")
	}
	return append([]models.PlaylistItem(nil), items...), nil
}

func (f *FakeCatalog) AudioFeatures(ctx context.Context, ids ...string) ([]*models.AudioFeatures, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.batches = append(f.batches, append([]string(nil), ids...))
	if f.featuresErr != nil {
		return nil, f.featuresErr
	}

	out := make([]*models.AudioFeatures, len(ids))
	for i, id := range ids {
		if af, ok := f.features[id]; ok {
			out[i] = &af
		}
	}
	return out, nil
}

// ItemCalls returns how many times PlaylistItems was called.
func (f *FakeCatalog) ItemCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.itemCalls
}

// Batches returns the ID lists passed to each AudioFeatures call.
func (f *FakeCatalog) Batches() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.batches...)
}

// Item builds a playlist slot holding a track.
func Item(id, name, artist string, popularity int) models.PlaylistItem {
	var artists []string
	if artist != "" {
		artists = []string{artist}
	}
	return models.PlaylistItem{Track: &models.TrackEntry{ID: id, Name: name, Artists: artists, Popularity: popularity}}
}

// NullItem builds a playlist slot referencing an unavailable track.
func NullItem() models.PlaylistItem {
	return models.PlaylistItem{}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
