package hops

import (
	"strings"

	"github.com/beevik/etree"

	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

// wrapAffiliation turns <affiliation locale="x">Text</affiliation> into
// <affiliation><name locale="x">Text</name></affiliation>. Affiliations that already hold
// a name are left untouched. Reports whether the element changed.
func wrapAffiliation(aff *etree.Element) bool {
	if xmltree.FirstChild(aff, "name") != nil {
		return false
	}
	text := strings.TrimSpace(xmltree.TextContent(aff))
	locale := xmltree.AttrValue(aff, "locale")

	xmltree.SetText(aff, "")
	name := xmltree.AppendElement(aff, "name", text)
	if locale != "" {
		name.CreateAttr("locale", locale)
		aff.RemoveAttr("locale")
	}
	return true
}

// unwrapAffiliation flattens <affiliation><name locale="x">Text</name></affiliation> back
// to plain text, moving the locale onto the affiliation when it has none. Each further
// localized name becomes a sibling affiliation. Reports whether the element changed.
func unwrapAffiliation(aff *etree.Element) bool {
	names := xmltree.Children(aff, "name")
	if len(names) == 0 {
		return false
	}

	anchor := aff
	for i, name := range names {
		text := strings.TrimSpace(xmltree.TextContent(name))
		locale := xmltree.AttrValue(name, "locale")

		target := aff
		if i > 0 {
			target = etree.NewElement("affiliation")
			xmltree.InsertAfter(anchor, target)
			anchor = target
		}
		if locale != "" {
			xmltree.SetAttrIfAbsent(target, "locale", locale)
		}
		xmltree.SetText(target, text)
	}
	return true
}
