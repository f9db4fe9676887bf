package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunescope/internal/dashboard"
	"github.com/desertthunder/tunescope/internal/models"
	"github.com/desertthunder/tunescope/internal/services"
	"github.com/desertthunder/tunescope/internal/shared"
	"github.com/desertthunder/tunescope/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	session    *dashboard.Session
	logger     *log.Logger
	output     io.Writer
	getenv     func(string) string
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog // built from credentials when nil
	Logger     *log.Logger
	Output     io.Writer
	Getenv     func(string) string
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		logger:     opts.Logger,
		output:     opts.Output,
		getenv:     opts.Getenv,
	}
}

// SetLogger replaces the runner's logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, tuiCommand, playlistsCommand, tableCommand, analyzeCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reloads the config file named by the command's --config flag when it
// differs from the one already loaded. A missing default file keeps the current config;
// a missing file passed explicitly is an error.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" || path == r.configPath {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if cmd.IsSet("config") {
			return fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
		}
		r.logger.Debug("config file not found, using current config", "path", path)
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	r.config = config
	r.configPath = path
	return nil
}

// prepare validates the config and builds the catalog, engine and session on first use.
func (r *Runner) prepare(cmd *cli.Command) error {
	if r.session != nil {
		return nil
	}
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	r.config.ApplyEnv(r.getenv)
	if err := r.config.Validate(); err != nil {
		return err
	}
	shared.ConfigureLogger(r.logger, r.config.Logging)

	if r.catalog == nil {
		catalog, err := services.NewSpotifyCatalog(
			r.config.Credentials.Spotify.Map(),
			services.WithRateLimit(r.config.Catalog.RateLimit),
			services.WithCatalogLogger(r.logger),
		)
		if err != nil {
			return fmt.Errorf("failed to create catalog client: %w", err)
		}
		r.catalog = catalog
	}

	engine := tasks.NewEngine(r.catalog, configuredPlaylists(r.config), tasks.EngineOptions{
		BatchSize: r.config.Catalog.BatchSize,
		Timeout:   time.Duration(r.config.Catalog.TimeoutSeconds) * time.Second,
		Logger:    shared.WithLogger(r.logger, "component", "engine"),
	})
	r.session = dashboard.NewSession(engine, shared.WithLogger(r.logger, "component", "session"))
	return nil
}

func configuredPlaylists(c *shared.Config) []models.Playlist {
	playlists := make([]models.Playlist, 0, len(c.Playlists))
	for _, p := range c.Playlists {
		playlists = append(playlists, models.Playlist{Name: p.Name, ID: p.ID})
	}
	return playlists
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
