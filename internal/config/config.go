// Package config loads server settings: defaults, then an optional YAML
// file, then C4_* environment overrides, then validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// HomeDirName is the per-user directory under $HOME.
const HomeDirName = ".c4-hoofy"

// Config is the full server configuration.
type Config struct {
	DataDir        string       `yaml:"data_dir" validate:"required"`
	Store          string       `yaml:"store" validate:"oneof=file sqlite"`
	PlantUMLServer string       `yaml:"plantuml_server" validate:"required,url"`
	Render         RenderConfig `yaml:"render"`
	Log            LogConfig    `yaml:"log"`
}

// RenderConfig tunes the PlantUML render client.
type RenderConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Format       string        `yaml:"format" validate:"oneof=png svg"`
	MaxRetries   int           `yaml:"max_retries" validate:"min=0,max=10"`
	InitialDelay time.Duration `yaml:"initial_delay" validate:"gt=0"`
	Timeout      time.Duration `yaml:"timeout" validate:"gt=0"`
}

// LogConfig selects the zap encoder and level.
type LogConfig struct {
	Mode  string `yaml:"mode" validate:"oneof=dev prod"`
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		DataDir:        filepath.Join(homeDir(), HomeDirName, "data"),
		Store:          "file",
		PlantUMLServer: "https://www.plantuml.com/plantuml",
		Render: RenderConfig{
			Enabled:      true,
			Format:       "png",
			MaxRetries:   5,
			InitialDelay: time.Second,
			Timeout:      15 * time.Second,
		},
		Log: LogConfig{Mode: "dev", Level: "info"},
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(homeDir(), HomeDirName, "config.yaml")
}

// Load builds the configuration. An empty path means DefaultPath, which
// may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks every field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.ActualTag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// applyEnv overrides fields from C4_* variables.
func applyEnv(c *Config) error {
	str := map[string]*string{
		"C4_DATA_DIR":        &c.DataDir,
		"C4_STORE":           &c.Store,
		"C4_PLANTUML_SERVER": &c.PlantUMLServer,
		"C4_RENDER_FORMAT":   &c.Render.Format,
		"C4_LOG_MODE":        &c.Log.Mode,
		"C4_LOG_LEVEL":       &c.Log.Level,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := os.LookupEnv("C4_RENDER_ENABLED"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("C4_RENDER_ENABLED: %w", err)
		}
		c.Render.Enabled = b
	}
	if v, ok := os.LookupEnv("C4_RENDER_MAX_RETRIES"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("C4_RENDER_MAX_RETRIES: %w", err)
		}
		c.Render.MaxRetries = n
	}
	durations := map[string]*time.Duration{
		"C4_RENDER_INITIAL_DELAY": &c.Render.InitialDelay,
		"C4_RENDER_TIMEOUT":       &c.Render.Timeout,
	}
	for key, dst := range durations {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
