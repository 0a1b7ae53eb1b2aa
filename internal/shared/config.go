package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Sync        SyncConfig        `toml:"sync"`
}

// CredentialsConfig contains provider-specific OAuth client credentials.
type CredentialsConfig struct {
	Spotify ProviderConfig `toml:"spotify"`
	YouTube ProviderConfig `toml:"youtube"`
}

// ProviderConfig contains the OAuth client registration for one provider.
type ProviderConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// SyncConfig contains tuning knobs for the sync pipeline.
//
// The two thresholds exist because matching free-text YouTube titles
// against structured Spotify metadata tolerates less noise than the
// reverse direction.
type SyncConfig struct {
	SpotifyToYouTubeThreshold float64 `toml:"spotify_to_youtube_threshold"`
	YouTubeToSpotifyThreshold float64 `toml:"youtube_to_spotify_threshold"`
	CallTimeoutSeconds        int     `toml:"call_timeout_seconds"`
	SearchesPerSecond         float64 `toml:"searches_per_second"`
	PaginateSource            bool    `toml:"paginate_source"`
	ExpiryGraceSeconds        int     `toml:"expiry_grace_seconds"`
}

// Threshold returns the acceptance threshold for a sync direction keyed by target provider.
func (s SyncConfig) Threshold(targetProvider string) float64 {
	if targetProvider == "spotify" {
		return s.YouTubeToSpotifyThreshold
	}
	return s.SpotifyToYouTubeThreshold
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
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
