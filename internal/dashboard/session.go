// package dashboard holds the selection state shared by the web and terminal dashboards
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunescope/internal/models"
	"github.com/desertthunder/tunescope/internal/shared"
	"github.com/desertthunder/tunescope/internal/tasks"
)

// ErrSuperseded is returned by [Session.SelectPlaylist] when a newer selection started before the build finished.
var ErrSuperseded = errors.New("selection superseded")

// State is the selection state of a dashboard.
type State int

const (
	NoSelection State = iota
	PlaylistSelected
	FeatureSelected
)

func (s State) String() string {
	switch s {
	case NoSelection:
		return "no_selection"
	case PlaylistSelected:
		return "playlist_selected"
	case FeatureSelected:
		return "feature_selected"
	default:
		return ""
	}
}

// View is a point-in-time copy of a session for rendering.
type View struct {
	State     State
	Playlist  string
	Feature   models.Feature
	Snapshot  *tasks.Snapshot
	Histogram *models.Histogram // nil when no feature is selected
	Pending   string            // playlist whose build is in flight
	Err       error             // error from the latest committed build
}

// Loading reports whether a build is in flight.
func (v View) Loading() bool {
	return v.Pending != ""
}

// Message returns the placeholder shown instead of a histogram, or an empty string when one is available.
func (v View) Message() string {
	if v.Feature == "" || v.Snapshot == nil || v.Histogram != nil {
		return ""
	}
	return NoHistogramMessage(v.Feature.Title())
}

// NoHistogramMessage is the text displayed for a feature without a histogram.
func NoHistogramMessage(feature string) string {
	return fmt.Sprintf("No histogram available for the selected feature: %s", feature)
}

// Session tracks the playlist and feature a user has selected and the snapshot on display.
//
// Every playlist selection cancels the build in flight. A build only commits if no newer
// selection started while it ran.
type Session struct {
	builder tasks.SnapshotBuilder
	logger  *log.Logger

	mu         sync.Mutex
	state      State
	playlist   string
	feature    models.Feature
	snapshot   *tasks.Snapshot
	err        error
	generation uint64
	cancel     context.CancelFunc
	pending    string
}

// NewSession creates a session in the [NoSelection] state.
func NewSession(builder tasks.SnapshotBuilder, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Session{builder: builder, logger: logger}
}

// Playlists returns the selectable playlists.
func (s *Session) Playlists() []models.Playlist {
	return s.builder.Playlists()
}

// Features returns the selectable features.
func (s *Session) Features() []models.Feature {
	return append([]models.Feature(nil), models.AnalysisFeatures...)
}

// Defaults returns the initial selection: the first playlist and the first feature.
func (s *Session) Defaults() (string, models.Feature) {
	playlists := s.builder.Playlists()
	if len(playlists) == 0 {
		return "", models.AnalysisFeatures[0]
	}
	return playlists[0].Name, models.AnalysisFeatures[0]
}

// SelectPlaylist rebuilds the snapshot for name and commits it unless superseded.
//
// An unknown name returns [shared.ErrInvalidArgument] and leaves the session untouched.
// The selected feature is kept across playlist changes.
func (s *Session) SelectPlaylist(ctx context.Context, name string, progress chan<- tasks.ProgressUpdate) (View, error) {
	if !s.known(name) {
		return s.View(), fmt.Errorf("%w: unknown playlist %q", shared.ErrInvalidArgument, name)
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	buildCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.pending = name
	s.mu.Unlock()

	defer cancel()

	snapshot, err := s.builder.Build(buildCtx, name, progress)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("discarding superseded build", "playlist", name)
		return s.viewLocked(), ErrSuperseded
	}
	s.cancel = nil
	s.pending = ""

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return s.viewLocked(), err
		}
		s.logger.Error("build failed", "playlist", name, "error", err)
		s.playlist = name
		s.snapshot = nil
		s.err = err
		s.state = NoSelection
		return s.viewLocked(), err
	}

	s.playlist = name
	s.snapshot = snapshot
	s.err = nil
	s.state = PlaylistSelected
	if s.feature != "" {
		s.state = FeatureSelected
	}

	return s.viewLocked(), nil
}

// SelectFeature picks which precomputed histogram is displayed. No rebuild happens.
//
// Names outside [models.AnalysisFeatures] are ignored and false is returned.
func (s *Session) SelectFeature(name string) bool {
	f, ok := models.ParseAnalysisFeature(name)
	if !ok {
		s.logger.Warn("ignoring unknown feature", "feature", name)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.feature = f
	if s.snapshot != nil {
		s.state = FeatureSelected
	}
	return true
}

// Cancel aborts the build in flight, if any.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// View returns the current session state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		State:    s.state,
		Playlist: s.playlist,
		Feature:  s.feature,
		Snapshot: s.snapshot,
		Pending:  s.pending,
		Err:      s.err,
	}
	if s.feature != "" {
		if h, ok := s.snapshot.Histogram(s.feature); ok {
			v.Histogram = h
		}
	}
	return v
}

func (s *Session) known(name string) bool {
	for _, p := range s.builder.Playlists() {
		if p.Name == name {
			return true
		}
	}
	return false
}
