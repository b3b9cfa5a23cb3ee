package hops

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"git.home.luguber.info/inful/ojsconvert/internal/logfields"
	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

// From311To320 introduces publications: article metadata moves into a versioned
// publication child, authors get ids and a primary contact, affiliations get a name
// wrapper and submission files collapse their revisions into a single file element.
type From311To320 struct{}

func (From311To320) Name() string { return V311 + "->" + V320 }

func (h From311To320) Transform(doc *etree.Document, log *slog.Logger) *etree.Document {
	root := doc.Root()

	// Revision requested by each galley, keyed by submission file id. Read before the
	// refs lose their revision attribute below.
	wantedRevision := make(map[string]string)
	for _, ref := range xmltree.Descendants(root, "submission_file_ref") {
		id := xmltree.AttrValue(ref, "id")
		if rev := xmltree.AttrValue(ref, "revision"); id != "" && rev != "" {
			wantedRevision[id] = rev
		}
	}

	nextPublicationID := 1
	for _, article := range xmltree.Descendants(root, "article") {
		h.article(article, nextPublicationID, log)
		nextPublicationID++
	}

	for _, sf := range xmltree.Descendants(root, "submission_file") {
		h.submissionFile(sf, wantedRevision, log)
	}

	for _, ref := range xmltree.Descendants(root, "submission_file_ref") {
		ref.RemoveAttr("revision")
	}
	return doc
}

func (From311To320) article(article *etree.Element, publicationID int, log *slog.Logger) {
	if strings.TrimSpace(xmltree.AttrValue(article, "status")) == "" {
		article.CreateAttr("status", "1")
	}
	if lang := article.SelectAttr("language"); lang != nil {
		xmltree.SetAttrIfAbsent(article, "locale", lang.Value)
		article.RemoveAttr("language")
	}

	firstAuthorID, primaryContactID := "", ""
	for _, authors := range xmltree.Children(article, "authors") {
		for i, author := range xmltree.Children(authors, "author") {
			pos := strconv.Itoa(i + 1)
			xmltree.SetAttrIfAbsent(author, "id", pos)
			xmltree.SetAttrIfAbsent(author, "seq", pos)
			id := xmltree.AttrValue(author, "id")
			if firstAuthorID == "" {
				firstAuthorID = id
			}
			if primaryContactID == "" && xmltree.IsTruthy(xmltree.AttrValue(author, "primary_contact")) {
				primaryContactID = id
			}
			for _, aff := range xmltree.Children(author, "affiliation") {
				wrapAffiliation(aff)
			}
		}
	}

	pub := etree.NewElement("publication")
	contact := primaryContactID
	if contact == "" {
		contact = firstAuthorID
	}
	if contact != "" {
		pub.CreateAttr("primary_contact_id", contact)
	}
	for _, attr := range publicationAttrs {
		if a := article.SelectAttr(attr); a != nil {
			pub.CreateAttr(attr, a.Value)
			article.RemoveAttr(attr)
		}
	}
	for _, name := range publicationMetadata {
		xmltree.MoveAllChildren(article, pub, name)
	}
	for _, name := range publicationExtension {
		xmltree.MoveAllChildren(article, pub, name)
	}

	idStr := strconv.Itoa(publicationID)
	internalID := xmltree.NewElement("id", idStr)
	internalID.CreateAttr("type", "internal")
	internalID.CreateAttr("advice", "ignore")
	pub.InsertChildAt(0, internalID)
	article.CreateAttr("current_publication_id", idStr)

	pub.CreateAttr("version", "1")
	xmltree.SetAttrIfAbsent(pub, "status", "1")

	xmltree.ReorderChildren(pub, publicationOrder)
	article.AddChild(pub)
	xmltree.ReorderChildren(article, articleOrder320)

	log.Debug("Created publication", articleAttr(article),
		slog.String("publication_id", idStr), slog.String("primary_contact_id", contact))
	if !xmltree.HasAttr(pub, "section_ref") {
		log.Warn("Publication has no section_ref", articleAttr(article))
	}
}

func (From311To320) submissionFile(sf *etree.Element, wantedRevision map[string]string, log *slog.Logger) {
	sfID := xmltree.AttrValue(sf, "id")
	if sfID == "" {
		sfID = strings.TrimSpace(xmltree.TextContent(xmltree.FirstChild(sf, "id")))
	}

	var chosen *etree.Element
	revisions := xmltree.Children(sf, "revision")
	if wanted := wantedRevision[sfID]; wanted != "" {
		for _, rev := range revisions {
			if xmltree.AttrValue(rev, "number") == wanted {
				chosen = rev
				break
			}
		}
	}
	if chosen == nil && len(revisions) > 0 {
		chosen = revisions[len(revisions)-1]
	}

	if chosen != nil && xmltree.FirstChild(sf, "name") == nil {
		if n := xmltree.MoveAllChildren(chosen, sf, "name"); n > 0 {
			log.Debug("Promoted revision name", slog.String("submission_file", sfID))
		}
	}

	file := xmltree.FirstChild(sf, "file")
	if file == nil {
		file = etree.NewElement("file")
	} else {
		for _, name := range []string{"embed", "href"} {
			xmltree.RemoveChildren(file, name)
		}
		file.RemoveAttr("filename")
		file.RemoveAttr("mime_type")
	}

	if chosen != nil {
		if size, ok := revisionFilesize(chosen); ok {
			file.CreateAttr("filesize", strconv.FormatInt(size, 10))
		}
		ext := resolveExtension(chosen)
		file.CreateAttr("extension", ext)
		log.Debug("Resolved file extension", slog.String("submission_file", sfID), slog.String("extension", ext))

		for _, data := range xmltree.Children(chosen, "") {
			switch data.Tag {
			case "remote":
				file.AddChild(xmltree.RenameElement(data, "href"))
			case "embed", "href":
				file.AddChild(data)
			}
		}
	}

	xmltree.RemoveChildren(sf, "revision")
	for _, name := range []string{"embed", "href", "remote"} {
		xmltree.RemoveChildren(sf, name)
	}

	if file.Parent() == nil {
		sf.AddChild(file)
	}
	xmltree.ReorderChildren(sf, submissionFileOrder320)
	log.Debug("Collapsed revisions into file", slog.String("submission_file", sfID), logfields.Count(len(revisions)))
}

// revisionFilesize reads the size from the filesize attribute, else the filesize child.
// Only numeric values within int64 range are accepted; fractional values are truncated.
func revisionFilesize(rev *etree.Element) (int64, bool) {
	raw := strings.TrimSpace(xmltree.AttrValue(rev, "filesize"))
	if raw == "" {
		raw = strings.TrimSpace(xmltree.TextContent(xmltree.FirstChild(rev, "filesize")))
	}
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
