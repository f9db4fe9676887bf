// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/tunescope/internal/formatter"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func playlistFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "playlist",
		Aliases: []string{"p"},
		Usage:   "Playlist display name (defaults to the first configured playlist)",
	}
}

// setupCommand writes a starter configuration file
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a starter config.toml with the default playlists",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
		},
	}
}

// serveCommand runs the web dashboard
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the playlist dashboard over HTTP",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (overrides server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides server.port)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the dashboard in a browser once listening",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand runs the terminal dashboard
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive terminal dashboard",
		Flags:  []cli.Flag{configFlag()},
		Action: r.TUI,
	}
}

// playlistsCommand lists the configured playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List the configured playlists",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Playlists,
	}
}

// tableCommand builds and exports a playlist's feature table
func tableCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "table",
		Usage: "Build a playlist's audio-feature table and export it",
		Flags: []cli.Flag{
			configFlag(),
			playlistFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, csv, markdown, json)",
				Value:   string(formatter.Text),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to this file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Write to {playlist}_table.{ext} in the working directory",
			},
		},
		Action: r.Table,
	}
}

// analyzeCommand prints the correlation matrix and histograms
func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Print the correlation matrix and feature histograms for a playlist",
		Flags: []cli.Flag{
			configFlag(),
			playlistFlag(),
			&cli.StringFlag{
				Name:  "feature",
				Usage: "Feature histogram to show, or \"all\"",
				Value: "all",
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "Histogram bar width in characters",
				Value: 40,
			},
		},
		Action: r.Analyze,
	}
}
