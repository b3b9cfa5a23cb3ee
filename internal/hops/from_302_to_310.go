package hops

import (
	"log/slog"
	"strings"

	"github.com/beevik/etree"

	"git.home.luguber.info/inful/ojsconvert/internal/instruction"
	"git.home.luguber.info/inful/ojsconvert/internal/logfields"
	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

// From302To310 rebuilds licensing fields from the permissions block stashed by the
// 2.4.8 hop.
type From302To310 struct{}

func (From302To310) Name() string { return V302 + "->" + V310 }

type holder struct {
	text   string
	locale string
}

type permissions struct {
	licenseURL string
	year       string
	holders    []holder
}

func (From302To310) Transform(doc *etree.Document, log *slog.Logger) *etree.Document {
	for _, article := range xmltree.Descendants(doc.Root(), "article") {
		var perm permissions
		if raw, ok := instruction.Fetch(article, keyPermissions); ok {
			perm = parsePermissions(raw)
			log.Debug("Fetched permissions", articleAttr(article), logfields.Key(keyPermissions))
		}
		if perm.licenseURL == "" {
			perm.licenseURL = fetchFirst(article, "licenseUrl", "license_url")
		}
		if perm.year == "" {
			perm.year = fetchFirst(article, "copyrightYear", "copyright_year")
		}

		if perm.licenseURL != "" && xmltree.FirstChild(article, "licenseUrl") == nil {
			xmltree.AppendElement(article, "licenseUrl", perm.licenseURL)
		}
		if perm.year != "" && xmltree.FirstChild(article, "copyrightYear") == nil {
			xmltree.AppendElement(article, "copyrightYear", perm.year)
		}
		if xmltree.FirstChild(article, "copyrightHolder") == nil {
			for _, h := range perm.holders {
				el := xmltree.AppendElement(article, "copyrightHolder", h.text)
				if h.locale != "" {
					el.CreateAttr("locale", h.locale)
				}
			}
		}

		xmltree.RemoveChildren(article, "permissions")
		xmltree.ReorderChildren(article, articleOrder310)
	}
	return doc
}

// parsePermissions reads a serialized <permissions> block. Malformed input yields nothing.
func parsePermissions(raw string) permissions {
	var out permissions
	if strings.TrimSpace(raw) == "" {
		return out
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString(raw); err != nil {
		return out
	}
	root := doc.Root()
	if root == nil || !strings.EqualFold(root.Tag, "permissions") {
		return out
	}

	if els := xmltree.Descendants(root, "license_url"); len(els) > 0 {
		out.licenseURL = strings.TrimSpace(xmltree.TextContent(els[0]))
	}
	if els := xmltree.Descendants(root, "copyright_year"); len(els) > 0 {
		out.year = strings.TrimSpace(xmltree.TextContent(els[0]))
	}
	for _, el := range xmltree.Descendants(root, "copyright_holder") {
		if text := strings.TrimSpace(xmltree.TextContent(el)); text != "" {
			out.holders = append(out.holders, holder{text: text, locale: xmltree.AttrValue(el, "locale")})
		}
	}
	return out
}

// fetchFirst consumes every listed key and returns the first non-empty value.
func fetchFirst(e *etree.Element, keys ...string) string {
	found := ""
	for _, k := range keys {
		if v, ok := instruction.Fetch(e, k); ok && found == "" {
			found = strings.TrimSpace(v)
		}
	}
	return found
}
