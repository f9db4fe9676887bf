package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Logging     LoggingConfig     `toml:"logging"`
	Playlists   []PlaylistConfig  `toml:"playlists"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
//
// Only the client-credentials flow is used; RedirectURI is carried for apps registered with one.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// CatalogConfig tunes requests made against the music catalog.
type CatalogConfig struct {
	RateLimit      float64 `toml:"rate_limit"`      // requests per second
	BatchSize      int     `toml:"batch_size"`      // audio-feature IDs per request
	TimeoutSeconds int     `toml:"timeout_seconds"` // per-build timeout
}

// LoggingConfig controls log level and optional rotating log file output.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// PlaylistConfig maps a display name to a catalog playlist identifier (ID, URI or URL).
type PlaylistConfig struct {
	Name string `toml:"name"`
	ID   string `toml:"id"`
}

// Address returns the host:port pair the dashboard listens on.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Map returns the credentials in the key/value form used by service constructors.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Defaults fill server, catalog and logging sections the file omits.
	config := DefaultConfig()
	config.Playlists = nil
	config.Credentials = CredentialsConfig{}
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes the config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides credentials with SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET and SPOTIFY_REDIRECT_URI when set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(EnvClientID); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := getenv(EnvClientSecret); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := getenv(EnvRedirectURI); v != "" {
		c.Credentials.Spotify.RedirectURI = v
	}
}

// Validate checks that the configuration can drive the dashboard.
func (c *Config) Validate() error {
	sp := c.Credentials.Spotify
	if sp.ClientID == "" || sp.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	}

	if sp.RedirectURI != "" {
		if u, err := url.Parse(sp.RedirectURI); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: redirect_uri %q is not an absolute URL", ErrInvalidConfig, sp.RedirectURI)
		}
	}

	if len(c.Playlists) == 0 {
		return fmt.Errorf("%w: at least one playlist is required", ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Playlists))
	for _, p := range c.Playlists {
		name := strings.TrimSpace(p.Name)
		if name == "" || strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("%w: playlists need both name and id", ErrInvalidConfig)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate playlist name %q", ErrInvalidConfig, name)
		}
		seen[name] = true
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}

	return nil
}
