package xmltree

import (
	"strings"

	"github.com/beevik/etree"
)

// ReorderChildren regroups the child elements of e by local name, emitting the groups in
// order. Elements keep their relative order within a group; names missing from order are
// appended afterwards in their original relative order. Non-element tokens stay ahead of
// the reordered elements. Applying the same order twice is a no-op.
func ReorderChildren(e *etree.Element, order []string) {
	if e == nil {
		return
	}
	rank := make(map[string]int, len(order))
	for i, name := range order {
		if _, dup := rank[name]; !dup {
			rank[name] = i
		}
	}

	elements := e.ChildElements()
	buckets := make([][]*etree.Element, len(order))
	var rest []*etree.Element
	for _, c := range elements {
		if i, known := rank[c.Tag]; known {
			buckets[i] = append(buckets[i], c)
		} else {
			rest = append(rest, c)
		}
	}

	for _, c := range elements {
		e.RemoveChild(c)
	}
	for _, bucket := range buckets {
		for _, c := range bucket {
			e.AddChild(c)
		}
	}
	for _, c := range rest {
		e.AddChild(c)
	}
}

// RenameElement changes the local name of e, keeping its attributes, children, markers
// and sibling position. Callers must continue with the returned element.
func RenameElement(e *etree.Element, name string) *etree.Element {
	e.Tag = name
	return e
}

// PromoteChildToAttr folds every direct childName child of parent into the attribute attr.
// The first non-blank value wins; an attribute that is already present is never
// overwritten. All matching children are removed. Reports whether attr was written.
func PromoteChildToAttr(parent *etree.Element, childName, attr string) bool {
	written := false
	for _, c := range Children(parent, childName) {
		val := strings.TrimSpace(TextContent(c))
		if val != "" && !HasAttr(parent, attr) {
			parent.CreateAttr(attr, val)
			written = true
		}
		parent.RemoveChild(c)
	}
	return written
}

// PromoteAttrToChild moves the attribute attr of owner into a childName child of dest.
// An existing non-blank child in dest is never overwritten. The attribute is always
// removed. Reports whether a child value was written.
func PromoteAttrToChild(owner *etree.Element, attr string, dest *etree.Element, childName string) bool {
	a := owner.SelectAttr(attr)
	if a == nil {
		return false
	}
	val := strings.TrimSpace(a.Value)
	owner.RemoveAttr(attr)
	if val == "" {
		return false
	}
	if c := FirstChild(dest, childName); c != nil && strings.TrimSpace(TextContent(c)) != "" {
		return false
	}
	EnsureScalarChild(dest, childName, val)
	return true
}

// MoveAllChildren appends every direct child of from named name to to, preserving their
// relative order. Returns the number of moved elements.
func MoveAllChildren(from, to *etree.Element, name string) int {
	moved := 0
	for _, c := range Children(from, name) {
		to.AddChild(c)
		moved++
	}
	return moved
}

// Wrap groups elements under a new element named name, inserted where the first element
// used to be. Returns nil when elements is empty.
func Wrap(elements []*etree.Element, name string) *etree.Element {
	if len(elements) == 0 {
		return nil
	}
	first := elements[0]
	wrapper := etree.NewElement(name)
	if parent := first.Parent(); parent != nil {
		parent.InsertChildAt(first.Index(), wrapper)
	}
	for _, el := range elements {
		wrapper.AddChild(el)
	}
	return wrapper
}

// FirstNonEmpty returns the first candidate whose text, after NormalizeSpace, is non-empty,
// together with that normalized text. textOf defaults to TextContent. It returns nil and ""
// when every candidate is blank.
func FirstNonEmpty(candidates []*etree.Element, textOf func(*etree.Element) string) (*etree.Element, string) {
	if textOf == nil {
		textOf = TextContent
	}
	for _, c := range candidates {
		if txt := NormalizeSpace(textOf(c)); txt != "" {
			return c, txt
		}
	}
	return nil, ""
}
