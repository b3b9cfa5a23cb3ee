package hops

import (
	"log/slog"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/ojsconvert/internal/hopgraph"
	"git.home.luguber.info/inful/ojsconvert/internal/instruction"
	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

var discard = slog.New(slog.DiscardHandler)

func parse(t *testing.T, xml string) *etree.Document {
	t.Helper()
	doc, err := xmltree.Parse([]byte(xml))
	require.NoError(t, err)
	return doc
}

func apply(t *testing.T, stage hopgraph.Stage, xml string) *etree.Document {
	t.Helper()
	return stage.Transform(parse(t, xml), discard)
}

// at follows a chain of first children by local name.
func at(t *testing.T, e *etree.Element, path ...string) *etree.Element {
	t.Helper()
	for _, name := range path {
		next := xmltree.FirstChild(e, name)
		require.NotNil(t, next, "missing <%s> under <%s>", name, e.Tag)
		e = next
	}
	return e
}

func names(e *etree.Element) []string {
	var out []string
	for _, c := range e.ChildElements() {
		out = append(out, c.Tag)
	}
	return out
}

func text(e *etree.Element) string {
	return xmltree.TextContent(e)
}

// markerOn returns the value of the live marker key attached directly to e.
func markerOn(e *etree.Element, key string) (string, bool) {
	for _, m := range instruction.Pending(e) {
		if m.Element == e && m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}

// markerKeys lists the keys of the live markers attached directly to e.
func markerKeys(e *etree.Element) []string {
	var keys []string
	for _, m := range instruction.Pending(e) {
		if m.Element == e {
			keys = append(keys, m.Key)
		}
	}
	return keys
}
