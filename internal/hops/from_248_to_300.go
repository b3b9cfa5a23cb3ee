package hops

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"git.home.luguber.info/inful/ojsconvert/internal/instruction"
	"git.home.luguber.info/inful/ojsconvert/internal/logfields"
	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

// Instruction keys stashed by this hop.
const (
	keyPermissions = "permissions"
	keyPages       = "pages"
)

var sectionDefaults = [][2]string{
	{"seq", "1"},
	{"editor_restricted", "0"},
	{"meta_indexed", "1"},
	{"meta_reviewed", "1"},
	{"abstracts_not_required", "0"},
	{"hide_title", "0"},
	{"hide_author", "0"},
	{"abstract_word_count", "0"},
}

var pathSeparators = regexp.MustCompile(`[/\\\r\n\t]+`)

// From248To300 lifts the legacy 2.4.8 issue layout into the 3.0.0 native shape: section
// and article collections, section_ref cross references, submission files and galleys.
type From248To300 struct{}

func (From248To300) Name() string { return V248 + "->" + V300 }

func (h From248To300) Transform(doc *etree.Document, log *slog.Logger) *etree.Document {
	if xmltree.DropDoctype(doc) {
		log.Debug("Removed document type declaration")
	}
	for _, issue := range xmltree.Descendants(doc.Root(), "issue") {
		h.issue(issue, log)
	}
	return doc
}

func (h From248To300) issue(issue *etree.Element, log *slog.Logger) {
	for _, attr := range []string{"published", "current"} {
		a := issue.SelectAttr(attr)
		if a == nil {
			continue
		}
		if v, ok := xmltree.NormalizeBool(a.Value); ok {
			log.Debug("Normalized issue flag", slog.String("attr", attr), slog.String("from", a.Value), slog.String("to", v))
			issue.CreateAttr(attr, v)
		}
	}

	if issue.RemoveAttr("identification") != nil {
		log.Debug("Removed issue@identification")
	}

	for _, name := range []string{"volume", "number", "year"} {
		if xmltree.PromoteChildToAttr(issue, name, name) {
			log.Debug("Moved issue child to attribute", logfields.Element(name))
		}
	}

	if n := xmltree.RemoveChildren(issue, "open_access"); n > 0 {
		log.Debug("Removed legacy issue open_access", logfields.Count(n))
	}

	sections := xmltree.EnsureChild(issue, "sections")
	articles := xmltree.EnsureChild(issue, "articles")

	// Section refs captured before anything moves, used for the final backfill.
	captured := make(map[*etree.Element]string)

	legacy := xmltree.Children(issue, "section")
	log.Debug("Lifting legacy sections", logfields.Count(len(legacy)))
	for _, sec := range legacy {
		_, ref := xmltree.FirstNonEmpty(xmltree.Children(sec, "abbrev"), nil)

		out := etree.NewElement("section")
		for _, kv := range sectionDefaults {
			out.CreateAttr(kv[0], kv[1])
		}
		for _, name := range sectionOrder300 {
			for _, c := range xmltree.Children(sec, name) {
				out.AddChild(c.Copy())
			}
		}
		sections.AddChild(out)

		if ref == "" {
			_, ref = xmltree.FirstNonEmpty(xmltree.Children(out, "abbrev"), nil)
		}

		for _, art := range xmltree.Children(sec, "article") {
			switch {
			case xmltree.HasAttr(art, "section_ref"):
				log.Debug("Article already has section_ref", articleAttr(art))
			case ref != "":
				art.CreateAttr("section_ref", ref)
			default:
				log.Debug("No section abbrev to derive section_ref from", articleAttr(art))
			}
			if ref != "" {
				captured[art] = ref
			}
			articles.AddChild(art)
		}
		issue.RemoveChild(sec)
	}

	for _, art := range xmltree.Children(issue, "article") {
		log.Warn("Moved article without enclosing section; no section_ref available", articleAttr(art))
		articles.AddChild(art)
	}

	all := xmltree.Children(articles, "article")
	nextFileID := 0
	for _, art := range all {
		h.article(art, &nextFileID, log)
	}

	for _, art := range all {
		if ref, ok := captured[art]; ok && xmltree.SetAttrIfAbsent(art, "section_ref", ref) {
			log.Debug("Backfilled section_ref", articleAttr(art), slog.String("section_ref", ref))
		}
	}
	for _, art := range all {
		if !xmltree.HasAttr(art, "section_ref") {
			log.Warn("Article missing section_ref", articleAttr(art))
		}
	}

	xmltree.ReorderChildren(issue, issueOrder300)
}

func (h From248To300) article(article *etree.Element, nextFileID *int, log *slog.Logger) {
	if direct := xmltree.Children(article, "author"); len(direct) > 0 {
		xmltree.Wrap(direct, "authors")
		log.Debug("Wrapped direct authors", articleAttr(article), logfields.Count(len(direct)))
	}
	for _, author := range xmltree.Descendants(article, "author") {
		xmltree.SetAttrIfAbsent(author, "user_group_ref", "Author")
	}

	xmltree.SetAttrIfAbsent(article, "stage", "submission")
	xmltree.PromoteChildToAttr(article, "date_published", "date_published")

	for _, perm := range xmltree.Children(article, "permissions") {
		if outer := outerXML(perm); strings.TrimSpace(outer) != "" {
			instruction.Store(article, keyPermissions, outer)
			log.Debug("Stashed permissions", articleAttr(article), logfields.Key(keyPermissions))
		}
		article.RemoveChild(perm)
	}

	for _, galley := range xmltree.Children(article, "galley") {
		locale := xmltree.AttrValue(galley, "locale")
		for _, file := range xmltree.Children(galley, "file") {
			*nextFileID++
			emitSubmissionFile(article, file, *nextFileID, locale, log)
		}
		article.RemoveChild(galley)
	}

	for _, p := range xmltree.Children(article, "pages") {
		if v := strings.TrimSpace(xmltree.TextContent(p)); v != "" {
			instruction.Store(article, keyPages, v)
			log.Debug("Stashed pages", articleAttr(article), logfields.Key(keyPages))
		}
		article.RemoveChild(p)
	}

	xmltree.RemoveChildren(article, "indexing")
	xmltree.RemoveChildren(article, "open_access")

	xmltree.ReorderChildren(article, articleOrder300)
}

// emitSubmissionFile converts one legacy galley file into a submission_file holding a
// single revision and an article_galley pointing back at it.
func emitSubmissionFile(article, file *etree.Element, id int, galleyLocale string, log *slog.Logger) {
	idStr := strconv.Itoa(id)

	sf := xmltree.AppendElement(article, "submission_file", "")
	sf.CreateAttr("stage", "submission")
	sf.CreateAttr("id", idStr)

	rev := xmltree.AppendElement(sf, "revision", "")
	rev.CreateAttr("number", "1")
	rev.CreateAttr("genre", "Article Text")
	rev.CreateAttr("user_group_ref", "Author")

	embed := xmltree.FirstChild(file, "embed")
	href := xmltree.FirstChild(file, "href")
	switch {
	case embed != nil:
		filename := xmltree.AttrValue(embed, "filename")
		if filename == "" {
			filename = "file"
		}
		filetype := xmltree.AttrValue(embed, "mime_type")
		size := embedSize(embed)

		rev.CreateAttr("filename", filename)
		if filetype != "" {
			rev.CreateAttr("filetype", filetype)
		}
		rev.CreateAttr("filesize", strconv.Itoa(size))
		if galleyLocale != "" {
			xmltree.AppendElement(rev, "name", filename).CreateAttr("locale", galleyLocale)
		}

		for _, a := range append([]etree.Attr(nil), embed.Attr...) {
			if a.Key != "encoding" {
				embed.RemoveAttr(a.FullKey())
			}
		}
		rev.AddChild(embed)
		log.Debug("Built embedded submission file", slog.String("id", idStr), slog.String("filename", filename), slog.Int("filesize", size))

	case href != nil:
		src := xmltree.AttrValue(href, "src")
		filename := filenameFromSrc(src)
		if filename == "" {
			filename = "file"
		}
		filetype := xmltree.AttrValue(href, "mime_type")

		rev.CreateAttr("filename", filename)
		if filetype != "" {
			rev.CreateAttr("filetype", filetype)
		}
		rev.CreateAttr("filesize", "0")
		name := xmltree.AppendElement(rev, "name", filename)
		if galleyLocale != "" {
			name.CreateAttr("locale", galleyLocale)
		}

		out := xmltree.AppendElement(rev, "href", "")
		if src != "" {
			out.CreateAttr("src", src)
		}
		log.Debug("Built linked submission file", slog.String("id", idStr), slog.String("src", src))

	default:
		rev.CreateAttr("filename", "file")
		rev.CreateAttr("filetype", "application/octet-stream")
		rev.CreateAttr("filesize", "0")
		log.Debug("Built placeholder submission file", slog.String("id", idStr))
	}

	galley := xmltree.AppendElement(article, "article_galley", "")
	locale := galleyLocale
	if locale == "" {
		locale = "en_US"
	}
	xmltree.AppendElement(galley, "name", "PDF").CreateAttr("locale", locale)
	xmltree.AppendElement(galley, "seq", "0")
	ref := xmltree.AppendElement(galley, "submission_file_ref", "")
	ref.CreateAttr("id", idStr)
	ref.CreateAttr("revision", "1")
}

// embedSize returns the decoded byte size of embedded content. Base64 payloads are
// measured without decoding.
func embedSize(embed *etree.Element) int {
	data := strings.Join(strings.Fields(xmltree.TextContent(embed)), "")
	if data == "" {
		return 0
	}
	if !strings.EqualFold(xmltree.AttrValue(embed, "encoding"), "base64") {
		return len(data)
	}
	pad := 0
	if strings.HasSuffix(data, "==") {
		pad = 2
	} else if strings.HasSuffix(data, "=") {
		pad = 1
	}
	return max(0, len(data)*3/4-pad)
}

// filenameFromSrc returns the last path segment of a link target.
func filenameFromSrc(src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	parts := pathSeparators.Split(src, -1)
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return ""
}

func outerXML(e *etree.Element) string {
	doc := etree.NewDocument()
	doc.SetRoot(e.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}
