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
	Enrichment  EnrichmentConfig  `toml:"enrichment"`
}

// CredentialsConfig contains platform-specific credentials.
type CredentialsConfig struct {
	Spotify OAuthClientConfig `toml:"spotify"`
	Tidal   OAuthClientConfig `toml:"tidal"`
	YouTube YouTubeConfig     `toml:"youtube"`
	LastFM  LastFMConfig      `toml:"lastfm"`
}

// OAuthClientConfig contains an OAuth2 client id/secret pair and redirect URI.
type OAuthClientConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// YouTubeConfig contains the YouTube Data API key.
type YouTubeConfig struct {
	APIKey string `toml:"api_key"`
}

// LastFMConfig contains the Last.fm API key used by metadata enrichment.
type LastFMConfig struct {
	APIKey string `toml:"api_key"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	CoversDir string `toml:"covers_dir"`
}

// EnrichmentConfig toggles the optional metadata providers.
type EnrichmentConfig struct {
	Workers     int  `toml:"workers"`
	QueueSize   int  `toml:"queue_size"`
	Spotify     bool `toml:"spotify"`
	MusicBrainz bool `toml:"musicbrainz"`
	LastFM      bool `toml:"lastfm"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	config.applyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
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

// applyEnv overlays credential environment variables onto the config.
//
// A .env file loaded at startup wins over config.toml, so credentials can stay
// out of checked-in files.
func (c *Config) applyEnv() {
	overlay := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	overlay(&c.Credentials.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	overlay(&c.Credentials.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	overlay(&c.Credentials.Tidal.ClientID, "TIDAL_CLIENT_ID")
	overlay(&c.Credentials.Tidal.ClientSecret, "TIDAL_CLIENT_SECRET")
	overlay(&c.Credentials.YouTube.APIKey, "YOUTUBE_KEY")
	overlay(&c.Credentials.LastFM.APIKey, "LASTFM_API_KEY")
	overlay(&c.Database.Path, "MIXSPACE_DB_PATH")
}

// Addr returns the host:port pair the HTTP server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
