package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/tunescope/internal/server"
	"github.com/desertthunder/tunescope/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the web dashboard until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if cmd.IsSet("host") {
		r.config.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		r.config.Server.Port = int(cmd.Int("port"))
	}

	if path := r.config.Logging.File; path != "" {
		fileLogger, err := shared.NewFileLogger(path)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)
	}

	if err := r.prepare(cmd); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(r.config.Server.Address(), r.session, shared.WithLogger(r.logger, "component", "server"))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr(), err)
	}

	url := fmt.Sprintf("http://%s/", ln.Addr())
	r.writePlain("Dashboard available at %s\n", url)
	if cmd.Bool("open") {
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	return srv.Serve(ctx, ln)
}
