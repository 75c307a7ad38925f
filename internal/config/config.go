// Package config loads gallery settings from a YAML file with environment
// overrides. Command-line flags are applied on top by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gallery-cli/internal/logging"
	"gallery-cli/internal/model"

	"gopkg.in/yaml.v3"
)

const (
	envConfig   = "GALLERY_CONFIG"
	envDir      = "GALLERY_DIR"
	envLogLevel = "GALLERY_LOG_LEVEL"

	DefaultDebounce = 250 * time.Millisecond
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

type Watch struct {
	Debounce time.Duration `yaml:"debounce"`
}

type Config struct {
	Dir            string         `yaml:"dir"`
	DefaultColumns int            `yaml:"defaultColumns"`
	Log            logging.Config `yaml:"log"`
	Watch          Watch          `yaml:"watch"`

	// Path is the file the config was read from; empty when defaults were used.
	Path string `yaml:"-"`
}

func Default() Config {
	return Config{
		DefaultColumns: model.DefaultColumns,
		Log:            logging.Config{Level: "warn", Format: "text"},
		Watch:          Watch{Debounce: DefaultDebounce},
	}
}

// DefaultPath is $GALLERY_CONFIG, else ~/.gallery/config.yml.
func DefaultPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(envConfig)); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".gallery", "config.yml"), nil
}

// Load reads path, fills defaults and applies env overrides. A missing file
// is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			parsed, err := Parse(data)
			if err != nil {
				return Config{}, fmt.Errorf("config %s: %w", path, err)
			}
			cfg = parsed
			cfg.Path = path
		case os.IsNotExist(err):
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// LoadDefault loads from DefaultPath.
func LoadDefault() (Config, error) {
	p, err := DefaultPath()
	if err != nil {
		return Config{}, err
	}
	return Load(p)
}

// Parse decodes YAML (with ${VAR} expansion) over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	expanded := expandEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.Dir = strings.TrimSpace(c.Dir)
	if c.DefaultColumns == 0 {
		c.DefaultColumns = model.DefaultColumns
	}
	if !model.IsValidColumns(c.DefaultColumns) {
		return model.InvalidColumnsError{Value: c.DefaultColumns}
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = DefaultDebounce
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q (want text|json)", c.Log.Format)
	}
	return nil
}

func applyEnv(c *Config) {
	if v := strings.TrimSpace(os.Getenv(envDir)); v != "" {
		c.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(envLogLevel)); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(m string) string {
		name := envVarRegex.FindStringSubmatch(m)[1]
		return os.Getenv(name)
	})
}
