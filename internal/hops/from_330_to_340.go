package hops

import (
	"log/slog"
	"regexp"

	"github.com/beevik/etree"

	"git.home.luguber.info/inful/ojsconvert/internal/logfields"
	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

var (
	// regionalLocale matches xx_YY with an optional @variant; it coarsens to xx.
	regionalLocale = regexp.MustCompile(`^[a-z]{2}_[A-Z]{2}(@[a-z]+)?$`)
	// validLocale is what 3.4.0 accepts on a locale attribute.
	validLocale = regexp.MustCompile(`^[a-z]{2}(_[A-Z]{2})?(@[a-z]+)?$`)
)

// From330To340 flattens affiliation names back to text and moves to two-letter locales.
type From330To340 struct{}

func (From330To340) Name() string { return V330 + "->" + V340 }

func (From330To340) Transform(doc *etree.Document, log *slog.Logger) *etree.Document {
	root := doc.Root()

	unwrapped := 0
	for _, aff := range xmltree.Descendants(root, "affiliation") {
		if unwrapAffiliation(aff) {
			unwrapped++
		}
	}
	if unwrapped > 0 {
		log.Debug("Flattened affiliation names", logfields.Count(unwrapped))
	}

	for _, el := range xmltree.Descendants(root, "") {
		if a := el.SelectAttr("locale"); a != nil {
			old := a.Value
			if coarse, ok := coarsenLocale(old); ok {
				el.CreateAttr("locale", coarse)
				log.Debug("Coarsened locale", logfields.Element(el.Tag), slog.String("from", old), slog.String("to", coarse))
			} else if !validLocale.MatchString(old) {
				el.RemoveAttr("locale")
				log.Debug("Removed invalid locale", logfields.Element(el.Tag), slog.String("locale", old))
			}
		}
		if a := el.SelectAttr("primary_locale"); a != nil {
			if coarse, ok := coarsenLocale(a.Value); ok {
				el.CreateAttr("primary_locale", coarse)
			}
		}
	}
	return doc
}

// coarsenLocale maps pt_BR (or pt_BR@variant) to pt.
func coarsenLocale(v string) (string, bool) {
	if !regionalLocale.MatchString(v) {
		return v, false
	}
	return v[:2], true
}
