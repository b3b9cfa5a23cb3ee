package hopgraph

import (
	"log/slog"

	"github.com/beevik/etree"
)

// Stage rewrites a document valid for one version into the shape of the next.
// Implementations are deterministic and keep no state between calls; everything a later
// hop needs travels inside the document.
type Stage interface {
	Name() string
	Transform(doc *etree.Document, log *slog.Logger) *etree.Document
}

// StageFunc adapts a plain function to the Stage interface.
type StageFunc struct {
	Label string
	Fn    func(doc *etree.Document, log *slog.Logger) *etree.Document
}

// Name returns the stage label.
func (f StageFunc) Name() string { return f.Label }

// Transform calls the wrapped function.
func (f StageFunc) Transform(doc *etree.Document, log *slog.Logger) *etree.Document {
	return f.Fn(doc, log)
}
