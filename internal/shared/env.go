package shared

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

const (
	EnvClientID     = "SPOTIFY_CLIENT_ID"
	EnvClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvRedirectURI  = "SPOTIFY_REDIRECT_URI"
)

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process environment.
//
// Variables already present in the environment win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}

	return nil
}

// ReadEnvFile parses a dotenv file without touching the process environment.
func ReadEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return env, nil
}
