package hops

import (
	"log/slog"

	"github.com/beevik/etree"

	"git.home.luguber.info/inful/ojsconvert/internal/instruction"
	"git.home.luguber.info/inful/ojsconvert/internal/logfields"
	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

// From300To301 gathers issue identification fields, wraps issue covers and restores the
// pages stashed by the 2.4.8 hop.
type From300To301 struct{}

func (From300To301) Name() string { return V300 + "->" + V301 }

func (From300To301) Transform(doc *etree.Document, log *slog.Logger) *etree.Document {
	for _, issue := range xmltree.Descendants(doc.Root(), "issue") {
		ident := xmltree.EnsureChild(issue, "issue_identification")

		// Attributes win over same-named child elements.
		for _, name := range []string{"volume", "number", "year"} {
			if xmltree.PromoteAttrToChild(issue, name, ident, name) {
				xmltree.RemoveChildren(issue, name)
				log.Debug("Moved issue attribute into issue_identification", logfields.Element(name))
			}
		}
		for _, name := range []string{"title", "number", "volume", "year"} {
			moved, dropped := 0, 0
			for _, c := range xmltree.Children(issue, name) {
				if holds(ident, name, xmltree.AttrValue(c, "locale")) {
					issue.RemoveChild(c)
					dropped++
					continue
				}
				ident.AddChild(c)
				moved++
			}
			if moved > 0 {
				log.Debug("Moved issue children into issue_identification", logfields.Element(name), logfields.Count(moved))
			}
			if dropped > 0 {
				log.Debug("Dropped issue children already in issue_identification", logfields.Element(name), logfields.Count(dropped))
			}
		}
		xmltree.ReorderChildren(ident, identificationOrder)

		for _, name := range []string{"show_volume", "show_number", "show_year", "show_title"} {
			xmltree.RemoveChildren(issue, name)
		}

		if covers := xmltree.Children(issue, "issue_cover"); len(covers) > 0 {
			wrap := xmltree.EnsureChild(issue, "issue_covers")
			for _, cover := range covers {
				wrap.AddChild(xmltree.RenameElement(cover, "cover"))
			}
			log.Debug("Wrapped issue covers", logfields.Count(len(covers)))
		}

		xmltree.ReorderChildren(issue, issueOrder301)
	}

	for _, article := range xmltree.Descendants(doc.Root(), "article") {
		if pages, ok := instruction.Fetch(article, keyPages); ok && pages != "" {
			xmltree.AppendElement(article, "pages", pages)
			log.Debug("Restored pages", articleAttr(article))
		}
		xmltree.ReorderChildren(article, articleOrder301)
	}
	return doc
}

// holds reports whether parent has a name child in the given locale.
func holds(parent *etree.Element, name, locale string) bool {
	for _, c := range xmltree.Children(parent, name) {
		if xmltree.AttrValue(c, "locale") == locale {
			return true
		}
	}
	return false
}
