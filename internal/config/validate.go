package config

import (
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/ojsconvert/internal/foundation"
	"git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
)

var configRules = foundation.Rules[*Config]{
	func(c *Config) []foundation.FieldError {
		f := c.Schema.File
		if f != filepath.Base(f) || !strings.HasSuffix(f, ".xsd") {
			return foundation.Problem("schema.file", "format", "must be a bare .xsd file name, got %q", f)
		}
		return nil
	},
	func(c *Config) []foundation.FieldError {
		var problems []foundation.FieldError
		for i, d := range c.Schema.BaseDirs {
			if strings.TrimSpace(d) == "" {
				problems = append(problems, foundation.Problem("schema.base_dirs", "blank", "entry %d is empty", i)...)
			}
		}
		return problems
	},
	notDirectory("journal.path", func(c *Config) string { return c.Journal.Path }),
	notDirectory("metrics.textfile", func(c *Config) string { return c.Metrics.Textfile }),
}

func notDirectory(field string, get func(*Config) string) foundation.Rule[*Config] {
	return func(c *Config) []foundation.FieldError {
		p := get(c)
		if p == "" {
			return nil
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return foundation.Problem(field, "is_dir", "%s is a directory", p)
		}
		return nil
	}
}

// Validate reports every setting that cannot be used.
func (c *Config) Validate() error {
	return configRules.Err(errors.CategoryConfig, "invalid configuration", c)
}
