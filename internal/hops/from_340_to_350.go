package hops

import (
	"log/slog"

	"github.com/beevik/etree"

	"git.home.luguber.info/inful/ojsconvert/internal/logfields"
	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

// From340To350 wraps author affiliations in a name element again.
type From340To350 struct{}

func (From340To350) Name() string { return V340 + "->" + V350 }

func (From340To350) Transform(doc *etree.Document, log *slog.Logger) *etree.Document {
	wrapped := 0
	for _, aff := range xmltree.Descendants(doc.Root(), "affiliation") {
		author := aff.Parent()
		if author == nil || author.Tag != "author" {
			continue
		}
		if p := author.Parent(); p == nil || p.Tag != "authors" {
			continue
		}
		if wrapAffiliation(aff) {
			wrapped++
		}
	}
	if wrapped > 0 {
		log.Debug("Wrapped affiliations", logfields.Count(wrapped))
	}
	return doc
}
