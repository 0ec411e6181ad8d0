package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"greptree/internal/domain"
	"greptree/internal/filelock"
)

// Config represents the application configuration
type Config struct {
	Version int            `toml:"version" yaml:"version"`
	Search  SearchSettings `toml:"search" yaml:"search"`
	UI      UISettings     `toml:"ui" yaml:"ui"`
}

// SearchSettings holds defaults for every search started from the command line
type SearchSettings struct {
	Recursive     bool     `toml:"recursive" yaml:"recursive"`
	IncludeHidden bool     `toml:"include_hidden" yaml:"include_hidden"`
	CaseSensitive bool     `toml:"case_sensitive" yaml:"case_sensitive"`
	Extensions    []string `toml:"extensions" yaml:"extensions"`
	Workers       int      `toml:"workers" yaml:"workers"`              // 0 = one per CPU
	MaxLineBytes  int      `toml:"max_line_bytes" yaml:"max_line_bytes"` // 0 = engine default
}

// UISettings represents output-related configuration
type UISettings struct {
	Mode         string  `toml:"mode" yaml:"mode"`   // auto, interactive or plain
	Color        string  `toml:"color" yaml:"color"` // auto, always or never
	ShowProgress bool    `toml:"show_progress" yaml:"show_progress"`
	ProgressRate float64 `toml:"progress_rate" yaml:"progress_rate"` // progress lines per second in plain mode
}

// Output modes
const (
	ModeAuto        = "auto"
	ModeInteractive = "interactive"
	ModePlain       = "plain"
)

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	filePath string
}

// NewConfigService creates a config service using the default file location
func NewConfigService() ConfigService {
	return &configService{filePath: DefaultPath()}
}

// NewConfigServiceAt creates a config service bound to a specific file
func NewConfigServiceAt(path string) ConfigService {
	return &configService{filePath: path}
}

// DefaultPath returns <user config dir>/greptree/config.toml
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "greptree", "config.toml")
}

func (cs *configService) Path() string { return cs.filePath }

// Load loads the configuration file, returning defaults when it does not exist
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	cfg, err := cs.LoadFromPath(cs.filePath)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded config from %s", cs.filePath)
	return cfg, nil
}

// Save saves the configuration to the service's file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path. Settings missing from
// the file keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("config file not found: %s", path)
		}
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg := DefaultConfig()
	switch format(path) {
	case "yaml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path, holding a lock on
// "<path>.lock" and replacing the file atomically
func (cs *configService) SaveToPath(config *Config, path string) error {
	var (
		data []byte
		err  error
	)
	switch format(path) {
	case "yaml":
		data, err = yaml.Marshal(config)
	default:
		data, err = toml.Marshal(config)
	}
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := filelock.LockAndWrite(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	log.Printf("Config saved to %s", path)
	return nil
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "toml"
	}
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	switch c.UI.Mode {
	case ModeAuto, ModeInteractive, ModePlain:
	default:
		return errors.Errorf("ui.mode must be auto, interactive or plain, got %q", c.UI.Mode)
	}
	switch c.UI.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return errors.Errorf("ui.color must be auto, always or never, got %q", c.UI.Color)
	}
	if c.Search.Workers < 0 {
		return errors.Errorf("search.workers must not be negative, got %d", c.Search.Workers)
	}
	if c.Search.MaxLineBytes < 0 {
		return errors.Errorf("search.max_line_bytes must not be negative, got %d", c.Search.MaxLineBytes)
	}
	return nil
}

// SearchConfig builds an engine configuration from the stored defaults
func (c *Config) SearchConfig(root, target string) domain.SearchConfig {
	return domain.SearchConfig{
		RootPath:      root,
		Recursive:     c.Search.Recursive,
		Target:        target,
		IncludeHidden: c.Search.IncludeHidden,
		CaseSensitive: c.Search.CaseSensitive,
		Extensions:    append([]string(nil), c.Search.Extensions...),
		MaxLineBytes:  c.Search.MaxLineBytes,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchSettings{
			Recursive:     true,
			IncludeHidden: false,
			CaseSensitive: true,
			Extensions:    []string{},
		},
		UI: UISettings{
			Mode:         ModeAuto,
			Color:        ColorAuto,
			ShowProgress: false,
			ProgressRate: 10,
		},
	}
}
