// Package config resolves the application settings from defaults, an
// optional YAML file, and the environment. Command-line flags are applied on
// top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"veriguard/internal/analysis"
)

const (
	DefaultGlamourStyle = "dark"
	DefaultProfile      = "default"
	DefaultEndpoint     = analysis.DefaultEndpoint
	DefaultTimeout      = 25 * time.Second
	DefaultQuota        = 5 << 20

	EnvEndpoint = "VERIGUARD_ENDPOINT"
	EnvHome     = "VERIGUARD_HOME"
)

var ErrInvalidProfile = errors.New("invalid profile name")

type AppConfig struct {
	Endpoint          string        `yaml:"endpoint"`
	Timeout           time.Duration `yaml:"timeout"`
	Profile           string        `yaml:"profile"`
	Home              string        `yaml:"home"`
	DBPath            string        `yaml:"db_path"`
	ExportDir         string        `yaml:"export_dir"`
	LogPath           string        `yaml:"log_path"`
	GlamourStyle      string        `yaml:"glamour_style"`
	StorageQuota      int           `yaml:"storage_quota"`
	ClearInputOnError bool          `yaml:"clear_input_on_error"`
	Debug             bool          `yaml:"debug"`

	// Ephemeral keeps history in memory only. Flag only.
	Ephemeral bool `yaml:"-"`
}

func Defaults() AppConfig {
	return AppConfig{
		Endpoint:     DefaultEndpoint,
		Timeout:      DefaultTimeout,
		Profile:      DefaultProfile,
		GlamourStyle: DefaultGlamourStyle,
		StorageQuota: DefaultQuota,
	}
}

// Load returns the defaults overlaid with the YAML file at path and then the
// environment. An empty path means DefaultConfigPath, which may be absent.
func Load(path string, getenv func(string) string) (AppConfig, error) {
	cfg := Defaults()
	if getenv == nil {
		getenv = os.Getenv
	}

	explicit := path != ""
	if !explicit {
		p, err := DefaultConfigPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	if err := cfg.mergeFile(path, explicit); err != nil {
		return cfg, err
	}

	if v := strings.TrimSpace(getenv(EnvEndpoint)); v != "" {
		cfg.Endpoint = v
	}
	if v := strings.TrimSpace(getenv(EnvHome)); v != "" {
		cfg.Home = v
	}
	return cfg, nil
}

func (c *AppConfig) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "veriguard", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "veriguard", "config.yaml"), nil
}

// DetectHome returns the data directory: explicit, then VERIGUARD_HOME, then
// ~/.local/share/veriguard.
func DetectHome(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Clean(explicit), nil
	}
	if fromEnv := os.Getenv(EnvHome); fromEnv != "" {
		return filepath.Clean(fromEnv), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "veriguard"), nil
}

var profileName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Finalize validates c and fills in the derived paths, creating the data
// directory when storage is on disk.
func (c *AppConfig) Finalize() error {
	if c.Profile == "" {
		c.Profile = DefaultProfile
	}
	if !profileName.MatchString(c.Profile) {
		return fmt.Errorf("%w: %q", ErrInvalidProfile, c.Profile)
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.GlamourStyle == "" {
		c.GlamourStyle = DefaultGlamourStyle
	}
	if c.StorageQuota <= 0 {
		c.StorageQuota = DefaultQuota
	}

	home, err := DetectHome(c.Home)
	if err != nil {
		return err
	}
	c.Home = home
	if c.DBPath == "" {
		c.DBPath = filepath.Join(home, c.Profile+".sqlite")
	}
	if c.LogPath == "" {
		c.LogPath = filepath.Join(home, "veriguard.log")
	}
	if c.ExportDir == "" {
		c.ExportDir = filepath.Join(home, "exports")
	}

	if c.Ephemeral {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.DBPath), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	return nil
}
