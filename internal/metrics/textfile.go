package metrics

import (
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
)

// WriteTextfile writes every metric gathered from g to path in the text exposition
// format, creating the parent directory if needed. The file is replaced atomically.
func WriteTextfile(path string, g prom.Gatherer) error {
	if g == nil {
		return errors.ConfigError("no metrics registry to write").Build()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.FileSystemError("failed to create metrics directory").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	if err := prom.WriteToTextfile(path, g); err != nil {
		return errors.FileSystemError("failed to write metrics textfile").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return nil
}
