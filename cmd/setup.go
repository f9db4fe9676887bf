package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tunescope/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		return fmt.Errorf("%w: --config must not be empty", shared.ErrMissingArgument)
	}

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", configPath)

	r.writePlain("✓ Configuration written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set %s and %s (in %s or a .env file)\n", shared.EnvClientID, shared.EnvClientSecret, configPath)
	r.writePlain("2. Run 'tunescope serve --open' or 'tunescope tui'\n")
	return nil
}
