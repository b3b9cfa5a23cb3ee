package hops

import (
	"log/slog"

	"github.com/beevik/etree"

	"git.home.luguber.info/inful/ojsconvert/internal/logfields"
	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

// From320To330 drops the submission file id child, flattens affiliation names and
// normalizes orders. 3.3.0 no longer accepts a nested affiliation name.
type From320To330 struct{}

func (From320To330) Name() string { return V320 + "->" + V330 }

func (From320To330) Transform(doc *etree.Document, log *slog.Logger) *etree.Document {
	root := doc.Root()

	removed := 0
	for _, sf := range xmltree.Descendants(root, "submission_file") {
		removed += xmltree.RemoveChildren(sf, "id")
		xmltree.ReorderChildren(sf, submissionFileOrder330)
	}
	if removed > 0 {
		log.Debug("Removed submission_file ids", logfields.Count(removed))
	}

	unwrapped := 0
	for _, aff := range xmltree.Descendants(root, "affiliation") {
		if unwrapAffiliation(aff) {
			unwrapped++
		}
	}
	if unwrapped > 0 {
		log.Debug("Flattened affiliation names", logfields.Count(unwrapped))
	}

	for _, pub := range xmltree.Descendants(root, "publication") {
		xmltree.ReorderChildren(pub, publicationOrder)
	}
	for _, article := range xmltree.Descendants(root, "article") {
		xmltree.ReorderChildren(article, articleOrder320)
	}
	return doc
}
