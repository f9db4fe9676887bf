package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tunescope/internal/shared"
	"github.com/desertthunder/tunescope/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	path := "./tmp/tunescope-tui.log"
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if r.config.Logging.File != "" {
		path = r.config.Logging.File
	}

	fileLogger, err := shared.NewFileLogger(path)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	if err := r.prepare(cmd); err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.session, shared.WithLogger(r.logger, "component", "tui"))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
