package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath overrides the config file location.
const EnvPath = "STUDIO_CONFIG"

// Config is the on-disk application configuration. Secrets never live here;
// they come from the secret store.
type Config struct {
	DataDir       string        `yaml:"data_dir"`
	AutosaveDelay time.Duration `yaml:"autosave_delay"`
	TemplatesDir  string        `yaml:"templates_dir"`

	Backend           Backend           `yaml:"backend"`
	Assets            Assets            `yaml:"assets"`
	BackgroundRemoval BackgroundRemoval `yaml:"background_removal"`
	Chat              Chat              `yaml:"chat"`
	Export            Export            `yaml:"export"`
	Maintenance       Maintenance       `yaml:"maintenance"`
	Log               Log               `yaml:"log"`
}

// Backend selects the design store. An empty driver or "sqlite" without a
// host uses the local database in DataDir.
type Backend struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	SSLMode  string `yaml:"ssl_mode"`
}

type Assets struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxDimension int           `yaml:"max_dimension"`
	UserAgent    string        `yaml:"user_agent"`
}

// BackgroundRemoval points at an HTTP service that takes an image and
// returns a PNG with the background removed. Empty Endpoint disables it.
type BackgroundRemoval struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Chat is the OpenAI-compatible chat completions endpoint behind the
// design tutor. Language, when set, is the only language it answers in.
type Chat struct {
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	Language string        `yaml:"language"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Export holds raster multipliers for thumbnails and downloads.
type Export struct {
	ThumbnailMultiplier float64 `yaml:"thumbnail_multiplier"`
	SceneMultiplier     float64 `yaml:"scene_multiplier"`
	NodeMultiplier      float64 `yaml:"node_multiplier"`
}

type Maintenance struct {
	Schedule      string `yaml:"schedule"`
	KeepRevisions int    `yaml:"keep_revisions"`
}

type Log struct {
	RenderDebug bool `yaml:"render_debug"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".local", "share", "studio")
	return Config{
		DataDir:       dataDir,
		AutosaveDelay: 3 * time.Second,
		TemplatesDir:  filepath.Join(dataDir, "templates"),
		Backend:       Backend{Driver: "sqlite"},
		Assets: Assets{
			Timeout:      20 * time.Second,
			MaxDimension: 2048,
			UserAgent:    "studio/1.0",
		},
		BackgroundRemoval: BackgroundRemoval{Timeout: 60 * time.Second},
		Chat: Chat{
			Endpoint: "https://openrouter.ai/api/v1/chat/completions",
			Model:    "google/gemini-2.0-flash-001",
			Timeout:  60 * time.Second,
		},
		Export: Export{
			ThumbnailMultiplier: 0.2,
			SceneMultiplier:     2,
			NodeMultiplier:      4,
		},
		Maintenance: Maintenance{Schedule: "@daily", KeepRevisions: 40},
	}
}

// Path returns the config file location: $STUDIO_CONFIG, or
// ~/.config/studio/config.yaml.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "studio", "config.yaml")
}

// Load reads the file at path over the defaults. A missing file is not an
// error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the application cannot run with.
func (c Config) Validate() error {
	switch c.Backend.Driver {
	case "", "sqlite", "postgres", "mysql", "mongodb":
	default:
		return fmt.Errorf("backend.driver: unsupported %q", c.Backend.Driver)
	}
	if c.AutosaveDelay < 0 {
		return fmt.Errorf("autosave_delay: must not be negative")
	}
	if c.Export.ThumbnailMultiplier <= 0 || c.Export.SceneMultiplier <= 0 || c.Export.NodeMultiplier <= 0 {
		return fmt.Errorf("export: multipliers must be positive")
	}
	if c.Maintenance.KeepRevisions < 1 {
		return fmt.Errorf("maintenance.keep_revisions: must be at least 1")
	}
	return nil
}

// DBPath is the local SQLite database file.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "studio.db")
}
