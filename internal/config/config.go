package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"emirates-studios/internal/models"
)

// EnvPrefix is the prefix of environment variable overrides
const EnvPrefix = "STUDIO_"

// Config holds the server configuration
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	TLS      TLSConfig      `koanf:"tls"`
	Storage  StorageConfig  `koanf:"storage"`
	Carousel CarouselConfig `koanf:"carousel"`
	CORS     CORSConfig     `koanf:"cors"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Host      string `koanf:"host"`
	Port      string `koanf:"port"`
	StaticDir string `koanf:"static_dir"`
}

// TLSConfig controls HTTPS
type TLSConfig struct {
	Enabled    bool   `koanf:"enabled"`
	CertFile   string `koanf:"cert_file"`
	KeyFile    string `koanf:"key_file"`
	MinVersion string `koanf:"min_version"`
}

// StorageConfig locates the database and the data directory
type StorageConfig struct {
	DBPath   string `koanf:"db_path"`
	DataPath string `koanf:"data_path"`
}

// CarouselConfig holds the playback defaults for showcases without settings
type CarouselConfig struct {
	IntervalMs   int  `koanf:"interval_ms"`
	AutoAdvance  bool `koanf:"auto_advance"`
	PauseOnHover bool `koanf:"pause_on_hover"`
}

// CORSConfig lists the origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// LogConfig controls zap
type LogConfig struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      "8080",
			StaticDir: "./public",
		},
		TLS: TLSConfig{
			MinVersion: "1.2",
		},
		Storage: StorageConfig{
			DBPath:   "./data/studio.db",
			DataPath: "./data",
		},
		Carousel: CarouselConfig{
			IntervalMs:   5000,
			AutoAdvance:  true,
			PauseOnHover: true,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the YAML file at path, if present, then overlays
// STUDIO_* environment variables (STUDIO_SERVER_PORT -> server.port).
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// comma separated origins from the environment
	if len(cfg.CORS.AllowedOrigins) == 1 && strings.Contains(cfg.CORS.AllowedOrigins[0], ",") {
		cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins[0])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps STUDIO_SERVER_STATIC_DIR to server.static_dir
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return key
	}
	return section + "." + rest
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var validTLSVersions = map[string]bool{
	"1.0": true,
	"1.1": true,
	"1.2": true,
	"1.3": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that the configuration contains valid values
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.TLS.Enabled {
		if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
			return fmt.Errorf("tls.cert_file and tls.key_file are required when tls is enabled")
		}
		if !validTLSVersions[c.TLS.MinVersion] {
			return fmt.Errorf("invalid tls.min_version %q", c.TLS.MinVersion)
		}
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Storage.DataPath == "" {
		return fmt.Errorf("storage.data_path is required")
	}
	if c.Carousel.IntervalMs <= 0 || c.Carousel.IntervalMs > models.MaxIntervalMs {
		return fmt.Errorf("carousel.interval_ms must be in [1, %d]", models.MaxIntervalMs)
	}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log.level %q: must be one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}
