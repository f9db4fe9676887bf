package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/tunescope/internal/dashboard"
	"github.com/desertthunder/tunescope/internal/formatter"
	"github.com/desertthunder/tunescope/internal/models"
	"github.com/desertthunder/tunescope/internal/shared"
	"github.com/desertthunder/tunescope/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Playlists lists the configured playlists in display order.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	playlists := configuredPlaylists(r.config)

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(playlists)))
	for i, p := range playlists {
		r.writePlain("%2d. %s\n    %s\n", i+1, p.Name, p.ID)
	}
	return nil
}

// Table builds a playlist's feature table and writes it to stdout or a file.
func (r *Runner) Table(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	snapshot, err := r.build(ctx, cmd)
	if err != nil {
		return err
	}

	path := cmd.String("output")
	if path != "" || cmd.Bool("save") {
		written, err := formatter.WriteExport(snapshot, format, path)
		if err != nil {
			return err
		}
		r.logger.Info("table exported", "playlist", snapshot.Playlist.Name, "format", format, "path", written)
		r.writePlain("✓ Exported %d tracks to %s\n", snapshot.Table.Len(), written)
		return nil
	}

	data, err := formatter.Export(snapshot, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Analyze prints the correlation matrix and one or all feature histograms.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	features, err := analyzedFeatures(cmd.String("feature"))
	if err != nil {
		return err
	}

	snapshot, err := r.build(ctx, cmd)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("%s (%d tracks)", snapshot.Playlist.Name, snapshot.Table.Len()))

	r.writePlainln("Density Heatmap")
	if grid := formatter.CorrelationText(snapshot.Correlation); grid != "" {
		r.writePlain("%s\n", grid)
	} else {
		r.writePlain("(no data)\n")
	}

	width := int(cmd.Int("width"))
	for _, f := range features {
		h, ok := snapshot.Histogram(f)
		if !ok {
			r.writePlainln("%s", dashboard.NoHistogramMessage(f.Title()))
			continue
		}
		r.writePlainln("%s", strings.TrimRight(formatter.HistogramText(h, width), "\n"))
	}
	return nil
}

// build selects the requested playlist in the session and returns the committed snapshot.
func (r *Runner) build(ctx context.Context, cmd *cli.Command) (*tasks.Snapshot, error) {
	if err := r.prepare(cmd); err != nil {
		return nil, err
	}

	name := cmd.String("playlist")
	if name == "" {
		name, _ = r.session.Defaults()
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	view, err := r.session.SelectPlaylist(ctx, name, progress)
	close(progress)
	<-done

	if err != nil {
		return nil, err
	}
	if view.Snapshot == nil {
		return nil, fmt.Errorf("%w: no data for playlist %q", shared.ErrPlaylistNotFound, name)
	}
	return view.Snapshot, nil
}

func analyzedFeatures(name string) ([]models.Feature, error) {
	if name == "" || strings.EqualFold(name, "all") {
		return models.AnalysisFeatures, nil
	}
	f, ok := models.ParseAnalysisFeature(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown feature %q", shared.ErrInvalidArgument, name)
	}
	return []models.Feature{f}, nil
}
