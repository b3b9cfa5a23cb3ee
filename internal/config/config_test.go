package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
)

// chdir moves into a fresh temp dir for the duration of the test.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvSchemaBase, EnvJournal, EnvMetricsFile, "OJS_TEST_ROOT"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	chdir(t)
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Source)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
	assert.Equal(t, "native.xsd", cfg.Schema.File)
	assert.False(t, cfg.Pipeline.Strict)
	assert.Empty(t, cfg.Journal.Path)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	chdir(t)
	clearEnv(t)

	_, err := Load("nope.yaml")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoad_YAMLWithExpansion(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)
	t.Setenv("OJS_TEST_ROOT", "/srv/ojs")

	yaml := `
schema:
  base_dirs: ["${OJS_TEST_ROOT}/schemas", "local"]
pipeline:
  strict: true
logging:
  level: WARNING
  format: json
journal:
  path: runs.db
metrics:
  textfile: /var/lib/node_exporter/ojsconvert.prom
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFilename), []byte(yaml), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultFilename, cfg.Source)
	assert.Equal(t, []string{"/srv/ojs/schemas", "local"}, cfg.Schema.BaseDirs)
	assert.True(t, cfg.Pipeline.Strict)
	assert.Equal(t, LogLevelWarn, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, "runs.db", cfg.Journal.Path)
	assert.Equal(t, "/var/lib/node_exporter/ojsconvert.prom", cfg.Metrics.Textfile)
}

func TestLoad_RelativePathsAnchoredAtFile(t *testing.T) {
	chdir(t)
	clearEnv(t)
	sub := filepath.Join(t.TempDir(), "conf")
	require.NoError(t, os.MkdirAll(sub, 0o750))
	path := filepath.Join(sub, "ojsconvert.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schema:\n  base_dirs: [xsd]\njournal:\n  path: runs.db\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(sub, "xsd")}, cfg.Schema.BaseDirs)
	assert.Equal(t, filepath.Join(sub, "runs.db"), cfg.Journal.Path)
}

func TestLoad_InvalidLevel(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFilename), []byte("logging:\n  level: chatty\n"), 0o600))

	_, err := Load("")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.Contains(t, err.Error(), "logging.level")
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFilename), []byte("schema: [unclosed\n"), 0o600))

	_, err := Load("")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)
	t.Setenv(EnvJournal, "/tmp/journal.db")
	t.Setenv(EnvSchemaBase, "/opt/ojs")
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFilename), []byte("journal:\n  path: file.db\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/journal.db", cfg.Journal.Path)
	assert.Contains(t, cfg.Schema.BaseDirs, "/opt/ojs")
}

func TestLoad_DotenvPrecedence(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OJSCONVERT_JOURNAL=from-env.db\nOJSCONVERT_METRICS_FILE=metrics.prom\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("OJSCONVERT_JOURNAL=from-local.db\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv(EnvJournal)
		_ = os.Unsetenv(EnvMetricsFile)
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{".env.local", ".env"}, cfg.EnvFiles)
	assert.Equal(t, "from-local.db", cfg.Journal.Path)
	assert.Equal(t, "metrics.prom", cfg.Metrics.Textfile)
}

func TestLoad_ProcessEnvBeatsDotenv(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)
	t.Setenv(EnvJournal, "process.db")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OJSCONVERT_JOURNAL=dotenv.db\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "process.db", cfg.Journal.Path)
}

func TestNormalizeHelpers(t *testing.T) {
	assert.Equal(t, LogLevelDebug, NormalizeLogLevel(" DEBUG "))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("bogus"))
	assert.Equal(t, LogFormatJSON, NormalizeLogFormat("Json"))
	assert.Equal(t, LogFormatText, NormalizeLogFormat(""))
}

func TestLoggingConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggingConfig{Level: LogLevelWarn, Format: LogFormatJSON}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "key", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"schema file with directory", func(c *Config) { c.Schema.File = "plugins/native.xsd" }, "schema.file"},
		{"schema file not xsd", func(c *Config) { c.Schema.File = "native.dtd" }, "schema.file"},
		{"blank base dir", func(c *Config) { c.Schema.BaseDirs = []string{"/srv", " "} }, "schema.base_dirs"},
		{"journal is a directory", func(c *Config) { c.Journal.Path = dir }, "journal.path"},
		{"textfile is a directory", func(c *Config) { c.Metrics.Textfile = dir }, "metrics.textfile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
