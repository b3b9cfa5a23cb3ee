package hops

import (
	"log/slog"
	"strings"

	"github.com/beevik/etree"

	"git.home.luguber.info/inful/ojsconvert/internal/logfields"
	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

// defaultSectionRef is used when no enclosing section offers an abbreviation.
const defaultSectionRef = "ART"

// From310To311 fixes the discipline typo, guarantees section_ref, derives ORCID ids and
// splits author names into givenname/familyname.
type From310To311 struct{}

func (From310To311) Name() string { return V310 + "->" + V311 }

func (h From310To311) Transform(doc *etree.Document, log *slog.Logger) *etree.Document {
	root := doc.Root()

	for _, el := range xmltree.Descendants(root, "disciplin") {
		xmltree.RenameElement(el, "discipline")
		log.Debug("Renamed disciplin to discipline")
	}

	for _, article := range xmltree.Descendants(root, "article") {
		if strings.TrimSpace(xmltree.AttrValue(article, "section_ref")) != "" {
			continue
		}
		ref := defaultSectionRef
		if section := xmltree.Ancestor(article, "section"); section != nil {
			if _, abbrev := xmltree.FirstNonEmpty(xmltree.Children(section, "abbrev"), nil); abbrev != "" {
				ref = abbrev
			}
		}
		article.CreateAttr("section_ref", ref)
		log.Debug("Added section_ref", articleAttr(article), slog.String("section_ref", ref))
	}

	for _, author := range xmltree.Descendants(root, "author") {
		if p := author.Parent(); p == nil || p.Tag != "authors" {
			continue
		}
		h.author(author, log)
	}

	for _, rev := range xmltree.Descendants(root, "revision") {
		if p := rev.Parent(); p != nil && p.Tag == "submission_file" && rev.RemoveAttr("user_group_ref") != nil {
			log.Debug("Removed revision@user_group_ref")
		}
	}
	return doc
}

func (From310To311) author(author *etree.Element, log *slog.Logger) {
	if strings.TrimSpace(xmltree.AttrValue(author, "user_group_ref")) == "" {
		author.CreateAttr("user_group_ref", "Author")
	}

	if xmltree.FirstChild(author, "orcid") == nil {
		for _, url := range xmltree.Children(author, "url") {
			if v, ok := detectORCID(xmltree.TextContent(url)); ok {
				xmltree.InsertAfter(url, xmltree.NewElement("orcid", v))
				log.Debug("Derived orcid from url", slog.String("orcid", v))
				break
			}
		}
	}

	firstnames := xmltree.Children(author, "firstname")
	middlenames := xmltree.Children(author, "middlename")
	lastnames := xmltree.Children(author, "lastname")

	fallback := ""
	for _, el := range append(append([]*etree.Element{}, firstnames...), middlenames...) {
		if fallback = strings.TrimSpace(xmltree.TextContent(el)); fallback != "" {
			break
		}
	}

	// Middle names per locale; each is merged into at most one given name.
	middle := make(map[string]string)
	for _, el := range middlenames {
		txt := strings.TrimSpace(xmltree.TextContent(el))
		if txt == "" {
			continue
		}
		loc := xmltree.AttrValue(el, "locale")
		if middle[loc] != "" {
			middle[loc] += " " + txt
		} else {
			middle[loc] = txt
		}
	}

	for _, el := range firstnames {
		loc := xmltree.AttrValue(el, "locale")
		parts := []string{}
		if txt := strings.TrimSpace(xmltree.TextContent(el)); txt != "" {
			parts = append(parts, txt)
		}
		if m := middle[loc]; m != "" {
			parts = append(parts, m)
			middle[loc] = ""
		}
		if given := strings.Join(parts, " "); given != "" {
			xmltree.InsertBefore(el, localized("givenname", given, loc))
		}
		author.RemoveChild(el)
	}
	for _, el := range middlenames {
		author.RemoveChild(el)
	}
	for _, el := range lastnames {
		family := localized("familyname", strings.TrimSpace(xmltree.TextContent(el)), xmltree.AttrValue(el, "locale"))
		xmltree.InsertBefore(el, family)
		author.RemoveChild(el)
	}

	if xmltree.FirstChild(author, "givenname") == nil {
		if fallback == "" {
			_, fallback = xmltree.FirstNonEmpty(xmltree.Children(author, "familyname"), nil)
		}
		if fallback != "" {
			xmltree.AppendElement(author, "givenname", fallback)
			log.Debug("Synthesized fallback givenname", logfields.Element("author"))
		}
	}

	xmltree.ReorderChildren(author, authorOrder311)
}

func localized(name, text, locale string) *etree.Element {
	el := xmltree.NewElement(name, text)
	if locale != "" {
		el.CreateAttr("locale", locale)
	}
	return el
}
