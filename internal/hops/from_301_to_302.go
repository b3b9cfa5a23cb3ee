package hops

import (
	"log/slog"

	"github.com/beevik/etree"

	"git.home.luguber.info/inful/ojsconvert/internal/logfields"
	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

// From301To302 removes the elements 3.0.2 no longer accepts.
type From301To302 struct{}

func (From301To302) Name() string { return V301 + "->" + V302 }

func (From301To302) Transform(doc *etree.Document, log *slog.Logger) *etree.Document {
	for _, name := range []string{"hide_about", "comments_to_editor"} {
		removed := 0
		for _, el := range xmltree.Descendants(doc.Root(), name) {
			if el.Parent() != nil {
				xmltree.Detach(el)
				removed++
			}
		}
		if removed > 0 {
			log.Debug("Removed forbidden elements", logfields.Element(name), logfields.Count(removed))
		}
	}
	return doc
}
