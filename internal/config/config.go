// Package config loads ojsconvert settings from an optional YAML file, dotenv files and
// the environment. Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

// DefaultFilename is looked up in the working directory when no path is given.
const DefaultFilename = "ojsconvert.yaml"

// Config is the full set of settings.
type Config struct {
	Schema   SchemaConfig   `yaml:"schema"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
	Journal  JournalConfig  `yaml:"journal"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	// EnvFiles lists the dotenv files that were loaded.
	EnvFiles []string `yaml:"-"`
	// Source is the YAML file that was read, empty when none.
	Source string `yaml:"-"`
}

// SchemaConfig locates grammars.
type SchemaConfig struct {
	BaseDirs []string `yaml:"base_dirs"`
	File     string   `yaml:"file"`
}

// PipelineConfig holds run defaults.
type PipelineConfig struct {
	Strict bool `yaml:"strict"`
	Trace  bool `yaml:"trace"`
}

// LoggingConfig configures the diagnostics logger.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// JournalConfig points at the run journal database. Empty disables the journal.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// MetricsConfig points at the node exporter textfile. Empty disables metrics output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Schema:  SchemaConfig{File: xmltree.DefaultSchemaFile},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
}

// Load reads configuration. An empty path means DefaultFilename in the working directory,
// which may be absent; an explicit path must exist. Dotenv files next to the working
// directory are loaded first and ${VAR} references in the YAML are expanded.
func Load(path string) (*Config, error) {
	cfg := Default()

	loaded, err := loadEnvFiles("")
	if err != nil {
		return nil, ferrors.ConfigError("failed to load dotenv file").WithCause(err).Build()
	}
	cfg.EnvFiles = loaded

	explicit := path != ""
	if !explicit {
		path = DefaultFilename
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, ferrors.ConfigError("failed to parse configuration file").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
		cfg.Source = path
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, ferrors.ConfigError("configuration file not readable").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	if cfg.Source != "" {
		cfg.resolveRelative(filepath.Dir(cfg.Source))
	}
	applyEnv(cfg)

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize canonicalizes enumerations and fills empty fields with defaults.
func (c *Config) Normalize() error {
	if c.Logging.Level == "" {
		c.Logging.Level = LogLevelInfo
	}
	level, err := logLevelNormalizer.NormalizeWithError(string(c.Logging.Level))
	if err != nil {
		return ferrors.ConfigError("invalid logging.level").WithCause(err).Build()
	}
	c.Logging.Level = level

	if c.Logging.Format == "" {
		c.Logging.Format = LogFormatText
	}
	format, err := logFormatNormalizer.NormalizeWithError(string(c.Logging.Format))
	if err != nil {
		return ferrors.ConfigError("invalid logging.format").WithCause(err).Build()
	}
	c.Logging.Format = format

	if c.Schema.File == "" {
		c.Schema.File = xmltree.DefaultSchemaFile
	}
	return nil
}

// resolveRelative anchors relative paths from the YAML file at its directory.
func (c *Config) resolveRelative(dir string) {
	for i, d := range c.Schema.BaseDirs {
		if d != "" && !filepath.IsAbs(d) {
			c.Schema.BaseDirs[i] = filepath.Join(dir, d)
		}
	}
	if p := c.Journal.Path; p != "" && p != ":memory:" && !filepath.IsAbs(p) {
		c.Journal.Path = filepath.Join(dir, p)
	}
	if p := c.Metrics.Textfile; p != "" && !filepath.IsAbs(p) {
		c.Metrics.Textfile = filepath.Join(dir, p)
	}
}
