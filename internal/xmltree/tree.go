package xmltree

import (
	"strings"

	"github.com/beevik/etree"
)

// Children returns the direct child elements of e with the given local name.
// An empty name matches every child element.
func Children(e *etree.Element, name string) []*etree.Element {
	if e == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if name == "" || c.Tag == name {
			out = append(out, c)
		}
	}
	return out
}

// FirstChild returns the first direct child element with the given local name, or nil.
func FirstChild(e *etree.Element, name string) *etree.Element {
	if e == nil {
		return nil
	}
	for _, c := range e.ChildElements() {
		if c.Tag == name {
			return c
		}
	}
	return nil
}

// Descendants returns e and every element below it with the given local name, in
// document order. The result is a snapshot, so callers may mutate the tree while ranging.
func Descendants(e *etree.Element, name string) []*etree.Element {
	if e == nil {
		return nil
	}
	var out []*etree.Element
	var walk func(*etree.Element)
	walk = func(n *etree.Element) {
		if name == "" || n.Tag == name {
			out = append(out, n)
		}
		for _, c := range n.ChildElements() {
			walk(c)
		}
	}
	walk(e)
	return out
}

// Ancestor returns the nearest enclosing element with the given local name, or nil.
func Ancestor(e *etree.Element, name string) *etree.Element {
	if e == nil {
		return nil
	}
	for p := e.Parent(); p != nil; p = p.Parent() {
		if p.Tag == name {
			return p
		}
	}
	return nil
}

// TextContent returns the concatenated character data of e and all its descendants.
func TextContent(e *etree.Element) string {
	if e == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*etree.Element)
	walk = func(n *etree.Element) {
		for _, t := range n.Child {
			switch c := t.(type) {
			case *etree.CharData:
				sb.WriteString(c.Data)
			case *etree.Element:
				walk(c)
			}
		}
	}
	walk(e)
	return sb.String()
}

// SetText replaces the text and child elements of e with a single text node.
// Processing instructions attached to e are kept.
func SetText(e *etree.Element, text string) {
	for _, t := range append([]etree.Token(nil), e.Child...) {
		switch t.(type) {
		case *etree.CharData, *etree.Element:
			e.RemoveChild(t)
		}
	}
	if text != "" {
		e.AddChild(etree.NewCharData(text))
	}
}

// HasAttr reports whether e carries the attribute key.
func HasAttr(e *etree.Element, key string) bool {
	return e != nil && e.SelectAttr(key) != nil
}

// AttrValue returns the value of the attribute key, or "" when absent.
func AttrValue(e *etree.Element, key string) string {
	if e == nil {
		return ""
	}
	return e.SelectAttrValue(key, "")
}

// SetAttrIfAbsent sets key=value unless the attribute already exists.
func SetAttrIfAbsent(e *etree.Element, key, value string) bool {
	if HasAttr(e, key) {
		return false
	}
	e.CreateAttr(key, value)
	return true
}

// NewElement creates a detached element with optional text.
func NewElement(name, text string) *etree.Element {
	el := etree.NewElement(name)
	if text != "" {
		el.AddChild(etree.NewCharData(text))
	}
	return el
}

// AppendElement creates a child element with optional text as the last child of parent.
func AppendElement(parent *etree.Element, name, text string) *etree.Element {
	el := NewElement(name, text)
	parent.AddChild(el)
	return el
}

// EnsureChild returns the first child named name, appending an empty one if none exists.
func EnsureChild(parent *etree.Element, name string) *etree.Element {
	if c := FirstChild(parent, name); c != nil {
		return c
	}
	return AppendElement(parent, name, "")
}

// EnsureScalarChild makes sure parent has a name child carrying text. An existing child
// is only populated when its text is blank.
func EnsureScalarChild(parent *etree.Element, name, text string) *etree.Element {
	if c := FirstChild(parent, name); c != nil {
		if strings.TrimSpace(TextContent(c)) == "" {
			SetText(c, text)
		}
		return c
	}
	return AppendElement(parent, name, text)
}

// RemoveChildren removes every direct child with the given local name.
func RemoveChildren(parent *etree.Element, name string) int {
	removed := 0
	for _, c := range Children(parent, name) {
		parent.RemoveChild(c)
		removed++
	}
	return removed
}

// Detach removes e from its parent, if any.
func Detach(e *etree.Element) {
	if p := e.Parent(); p != nil {
		p.RemoveChild(e)
	}
}

// InsertAfter places e immediately after ref in ref's parent.
func InsertAfter(ref, e *etree.Element) {
	Detach(e)
	ref.Parent().InsertChildAt(ref.Index()+1, e)
}

// InsertBefore places e immediately before ref in ref's parent.
func InsertBefore(ref, e *etree.Element) {
	Detach(e)
	ref.Parent().InsertChildAt(ref.Index(), e)
}
