// Package instruction carries values across hops inside the document itself.
//
// A value is stored as a processing instruction attached to one element:
//
//	<?ojs-instr k="permissions" v="b64:PHBlcm1pc3Npb25z..."?>
//
// Validators ignore processing instructions, so a marker can ride along through versions
// whose grammar has no place for the value until a later hop fetches it. Markers are
// inserted as the element's first child token and never affect element ordering.
package instruction

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

// Target is the processing instruction target used for markers.
const Target = "ojs-instr"

const valuePrefix = "b64:"

var pairPattern = regexp.MustCompile(`(\w+)\s*=\s*"([^"]*)"`)

// Marker is a live instruction found in a document.
type Marker struct {
	Element *etree.Element
	Key     string
	Value   string
}

// Store attaches key=value to e, overwriting any marker with the same key.
func Store(e *etree.Element, key, value string) {
	if pi := find(e, key); pi != nil {
		pi.Inst = format(key, value)
		return
	}
	e.InsertChildAt(0, etree.NewProcInst(Target, format(key, value)))
}

// Fetch returns the value stored under key on e and removes the marker.
func Fetch(e *etree.Element, key string) (string, bool) {
	pi := find(e, key)
	if pi == nil {
		return "", false
	}
	e.RemoveChild(pi)
	return decode(parse(pi.Inst)["v"]), true
}

// Pending lists every live marker on root and its descendants, in document order,
// without consuming any.
func Pending(root *etree.Element) []Marker {
	if root == nil {
		return nil
	}
	var out []Marker
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, pi := range markers(e) {
			kv := parse(pi.Inst)
			out = append(out, Marker{Element: e, Key: unescape(kv["k"]), Value: decode(kv["v"])})
		}
		for _, c := range e.ChildElements() {
			walk(c)
		}
	}
	walk(root)
	return out
}

func markers(e *etree.Element) []*etree.ProcInst {
	if e == nil {
		return nil
	}
	var out []*etree.ProcInst
	for _, t := range e.Child {
		if pi, ok := t.(*etree.ProcInst); ok && pi.Target == Target {
			out = append(out, pi)
		}
	}
	return out
}

func find(e *etree.Element, key string) *etree.ProcInst {
	want := escape(key)
	for _, pi := range markers(e) {
		if parse(pi.Inst)["k"] == want {
			return pi
		}
	}
	return nil
}

func format(key, value string) string {
	return `k="` + escape(key) + `" v="` + escape(encode(value)) + `"`
}

func parse(inst string) map[string]string {
	out := make(map[string]string, 2)
	for _, m := range pairPattern.FindAllStringSubmatch(inst, -1) {
		out[m[1]] = m[2]
	}
	return out
}

func encode(value string) string {
	return valuePrefix + base64.RawURLEncoding.EncodeToString([]byte(value))
}

// decode accepts both encoded values and plain legacy values. Padded input is tolerated.
func decode(v string) string {
	raw, ok := strings.CutPrefix(v, valuePrefix)
	if !ok {
		return v
	}
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
	if err != nil {
		return ""
	}
	return string(data)
}

// escape keeps a key from terminating the processing instruction or its quoted pair.
func escape(s string) string {
	s = strings.ReplaceAll(s, "?>", "?&gt;")
	return strings.ReplaceAll(s, `"`, "&quot;")
}

func unescape(s string) string {
	s = strings.ReplaceAll(s, "&quot;", `"`)
	return strings.ReplaceAll(s, "?&gt;", "?>")
}
