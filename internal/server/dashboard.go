package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunescope/internal/charts"
	"github.com/desertthunder/tunescope/internal/dashboard"
	"github.com/desertthunder/tunescope/internal/models"
	"github.com/desertthunder/tunescope/internal/shared"
	"github.com/desertthunder/tunescope/internal/tasks"
	"github.com/desertthunder/tunescope/internal/web"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// SnapshotResponse is the JSON body of GET /api/snapshot.
type SnapshotResponse struct {
	State    string          `json:"state"`
	Playlist string          `json:"playlist"`
	Feature  models.Feature  `json:"feature,omitempty"`
	Snapshot *tasks.Snapshot `json:"snapshot"`
}

// DashboardHandler serves the dashboard page, its JSON API and chart images from one [dashboard.Session].
//
// Query parameters on the page and API routes are selection events: ?playlist= rebuilds when it
// differs from what is displayed and ?feature= switches the histogram. Chart routes are read-only.
type DashboardHandler struct {
	session  *dashboard.Session
	renderer *web.Renderer
	logger   *log.Logger
}

// NewDashboardHandler creates the handler.
func NewDashboardHandler(session *dashboard.Session, renderer *web.Renderer, logger *log.Logger) *DashboardHandler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &DashboardHandler{session: session, renderer: renderer, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *DashboardHandler) Routes() []string {
	return []string{"/", "/api/", "/charts/"}
}

// ServeHTTP dispatches on the request path.
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/":
		h.page(w, r)
	case "/api/playlists":
		h.respondJSON(w, http.StatusOK, h.session.Playlists())
	case "/api/snapshot":
		h.snapshot(w, r)
	case "/charts/heatmap.png":
		h.heatmap(w, r)
	case "/charts/histogram.png":
		h.histogram(w, r)
	default:
		http.NotFound(w, r)
	}
}

// apply turns the query string into session events.
//
// Missing selections fall back to [dashboard.Session.Defaults]. A playlist already on display
// is not rebuilt. HEAD requests only read the current view.
func (h *DashboardHandler) apply(r *http.Request) (dashboard.View, error) {
	if r.Method == http.MethodHead {
		return h.session.View(), nil
	}

	q := r.URL.Query()
	current := h.session.View()
	defPlaylist, defFeature := h.session.Defaults()

	feature := q.Get("feature")
	if feature == "" && current.Feature == "" {
		feature = string(defFeature)
	}
	if feature != "" {
		h.session.SelectFeature(feature)
	}

	name := q.Get("playlist")
	if name == "" {
		name = current.Playlist
	}
	if name == "" {
		name = defPlaylist
	}
	if name == "" || (name == current.Playlist && current.Snapshot != nil && !current.Loading()) {
		return h.session.View(), nil
	}

	return h.session.SelectPlaylist(r.Context(), name, nil)
}

func (h *DashboardHandler) page(w http.ResponseWriter, r *http.Request) {
	v, err := h.apply(r)
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		if errors.Is(err, dashboard.ErrSuperseded) || errors.Is(err, context.Canceled) {
			http.Error(w, err.Error(), status)
			return
		}
	}

	page := web.NewPage(h.session.Playlists(), v)
	if err != nil && page.Error == "" {
		page.Error = err.Error()
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, page); err != nil {
		h.logger.Error("failed to render page", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func (h *DashboardHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	v, err := h.apply(r)
	if err != nil {
		h.respondError(w, statusFor(err), err.Error())
		return
	}
	if v.Snapshot == nil {
		h.respondError(w, http.StatusNotFound, "no playlist selected")
		return
	}

	h.respondJSON(w, http.StatusOK, SnapshotResponse{
		State:    v.State.String(),
		Playlist: v.Playlist,
		Feature:  v.Feature,
		Snapshot: v.Snapshot,
	})
}

// current returns the displayed view, rejecting requests for a playlist that is no longer on display.
func (h *DashboardHandler) current(w http.ResponseWriter, r *http.Request) (dashboard.View, bool) {
	v := h.session.View()
	if v.Snapshot == nil {
		http.Error(w, "no playlist selected", http.StatusNotFound)
		return v, false
	}
	if want := r.URL.Query().Get("playlist"); want != "" && want != v.Playlist {
		http.Error(w, dashboard.ErrSuperseded.Error(), http.StatusConflict)
		return v, false
	}
	return v, true
}

func (h *DashboardHandler) heatmap(w http.ResponseWriter, r *http.Request) {
	v, ok := h.current(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := charts.HeatmapPNG(&buf, v.Snapshot.Correlation); err != nil {
		h.logger.Error("failed to render heatmap", "playlist", v.Playlist, "error", err)
		http.Error(w, "failed to render heatmap", http.StatusInternalServerError)
		return
	}
	h.writePNG(w, buf.Bytes())
}

func (h *DashboardHandler) histogram(w http.ResponseWriter, r *http.Request) {
	v, ok := h.current(w, r)
	if !ok {
		return
	}

	feature := v.Feature
	if name := r.URL.Query().Get("feature"); name != "" {
		feature = models.Feature(name)
		if f, ok := models.ParseAnalysisFeature(name); ok {
			feature = f
		}
	}

	hist, ok := v.Snapshot.Histogram(feature)
	if !ok {
		http.Error(w, dashboard.NoHistogramMessage(feature.Title()), http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := charts.HistogramPNG(&buf, hist); err != nil {
		h.logger.Error("failed to render histogram", "playlist", v.Playlist, "feature", feature, "error", err)
		http.Error(w, "failed to render histogram", http.StatusInternalServerError)
		return
	}
	h.writePNG(w, buf.Bytes())
}

func (h *DashboardHandler) writePNG(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// respondJSON writes a JSON response
func (h *DashboardHandler) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	if err := writeJSON(w, statusCode, data); err != nil {
		h.logger.Errorf("failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (h *DashboardHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps a selection error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, shared.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
