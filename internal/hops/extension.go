package hops

import (
	"path"
	"strings"

	"github.com/beevik/etree"

	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

// fallbackExtension is used when nothing better can be derived.
const fallbackExtension = "bin"

var mimeExact = map[string]string{
	"application/pdf":    "pdf",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   "docx",
	"application/vnd.ms-excel":                                                  "xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         "xlsx",
	"application/vnd.ms-powerpoint":                                             "ppt",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": "pptx",
	"application/zip":                                "zip",
	"image/jpeg":                                     "jpg",
	"image/jpg":                                      "jpg",
	"image/png":                                      "png",
	"text/xml":                                       "xml",
	"application/xml":                                "xml",
	"text/plain":                                     "txt",
	"application/rtf":                                "rtf",
	"application/vnd.oasis.opendocument.text":        "odt",
	"application/vnd.oasis.opendocument.spreadsheet": "ods",
}

// mimeLoose is checked in order; the first substring hit wins.
var mimeLoose = [][2]string{
	{"pdf", "pdf"},
	{"msword", "doc"},
	{"wordprocessingml", "docx"},
	{"vnd.ms-excel", "xls"},
	{"spreadsheetml", "xlsx"},
	{"vnd.ms-powerpoint", "ppt"},
	{"presentationml", "pptx"},
	{"zip", "zip"},
	{"jpeg", "jpg"},
	{"jpg", "jpg"},
	{"png", "png"},
	{"xml", "xml"},
	{"plain", "txt"},
	{"rtf", "rtf"},
	{"opendocument.text", "odt"},
	{"opendocument.spreadsheet", "ods"},
}

var extensionAliases = map[string]string{
	"jpeg": "jpg",
	"tif":  "tiff",
}

// resolveExtension derives a file extension for a revision: extension child, extension
// attribute, filename suffix, filetype MIME (exact then substring), mimetype child, then
// the fallback.
func resolveExtension(rev *etree.Element) string {
	ext := ""
	if el := xmltree.FirstChild(rev, "extension"); el != nil {
		ext = strings.ToLower(strings.TrimSpace(xmltree.TextContent(el)))
	}
	if ext == "" {
		ext = strings.ToLower(strings.TrimSpace(xmltree.AttrValue(rev, "extension")))
	}
	if ext == "" {
		ext = extensionFromFilename(xmltree.AttrValue(rev, "filename"))
	}
	if ext == "" {
		ext = extensionFromMIME(xmltree.AttrValue(rev, "filetype"))
	}
	if ext == "" {
		if el := xmltree.FirstChild(rev, "mimetype"); el != nil {
			ext = extensionFromMIME(xmltree.TextContent(el))
		}
	}
	if alias, ok := extensionAliases[ext]; ok {
		ext = alias
	}
	if ext == "" {
		ext = fallbackExtension
	}
	return ext
}

func extensionFromFilename(name string) string {
	ext := path.Ext(strings.TrimSpace(name))
	if len(ext) < 2 {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// extensionFromMIME maps a media type, parameters ignored, to an extension.
func extensionFromMIME(mime string) string {
	mt, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(mime)), ";")
	mt = strings.TrimSpace(mt)
	if mt == "" {
		return ""
	}
	if ext, ok := mimeExact[mt]; ok {
		return ext
	}
	for _, kv := range mimeLoose {
		if strings.Contains(mt, kv[0]) {
			return kv[1]
		}
	}
	return ""
}
