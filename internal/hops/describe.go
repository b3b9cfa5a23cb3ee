package hops

import (
	"log/slog"
	"strings"

	"github.com/beevik/etree"

	"git.home.luguber.info/inful/ojsconvert/internal/logfields"
	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

// describeArticle renders a short label for trace output: [title="..." id=type:value].
func describeArticle(article *etree.Element) string {
	_, title := xmltree.FirstNonEmpty(xmltree.Children(article, "title"), nil)

	id := ""
	for _, el := range xmltree.Children(article, "id") {
		if v := strings.TrimSpace(xmltree.TextContent(el)); v != "" {
			id = v
			if typ := xmltree.AttrValue(el, "type"); typ != "" {
				id = typ + ":" + v
			}
			break
		}
	}

	var bits []string
	if title != "" {
		bits = append(bits, `title="`+title+`"`)
	}
	if id != "" {
		bits = append(bits, "id="+id)
	}
	if len(bits) == 0 {
		return "(untitled)"
	}
	return "[" + strings.Join(bits, " ") + "]"
}

func articleAttr(article *etree.Element) slog.Attr {
	return slog.String(logfields.KeyElement, "article "+describeArticle(article))
}
