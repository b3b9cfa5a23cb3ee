package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment overrides.
const (
	EnvSchemaBase  = "OJS_SCHEMA_BASE"
	EnvJournal     = "OJSCONVERT_JOURNAL"
	EnvMetricsFile = "OJSCONVERT_METRICS_FILE"
)

// envFiles are loaded in order; a variable already set, by the process or an earlier
// file, is never overwritten.
var envFiles = []string{".env.local", ".env"}

// loadEnvFiles loads the dotenv files that exist in dir and returns their paths.
func loadEnvFiles(dir string) ([]string, error) {
	var loaded []string
	for _, name := range envFiles {
		path := name
		if dir != "" {
			path = dir + string(os.PathSeparator) + name
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, err
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// applyEnv copies the environment overrides onto cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvSchemaBase); v != "" {
		cfg.Schema.BaseDirs = append(cfg.Schema.BaseDirs, v)
	}
	if v := os.Getenv(EnvJournal); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv(EnvMetricsFile); v != "" {
		cfg.Metrics.Textfile = v
	}
}
