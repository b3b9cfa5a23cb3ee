package xmltree

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	ferrors "git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
)

var (
	// ErrLoad marks a document that could not be read or parsed.
	ErrLoad = errors.New("document could not be loaded")
	// ErrWrite marks a document that could not be serialized or written.
	ErrWrite = errors.New("document could not be written")
)

const xmlDeclaration = `version="1.0" encoding="UTF-8"`

// Parse builds a document from raw XML.
func Parse(data []byte) (*etree.Document, error) {
	return parse(data, "")
}

// ReadFile loads and parses the document at path.
func ReadFile(path string) (*etree.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, loadError(fmt.Errorf("%w: %w", ErrLoad, err), "read document", path)
	}
	return parse(data, path)
}

func parse(data []byte, path string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, loadError(fmt.Errorf("%w: %w", ErrLoad, err), "parse document", path)
	}
	if doc.Root() == nil {
		return nil, loadError(ErrLoad, "document has no root element", path)
	}
	return doc, nil
}

func loadError(cause error, msg, path string) error {
	b := ferrors.WrapError(cause, ferrors.CategoryFileSystem, msg)
	if path != "" {
		b = b.WithContext("path", path)
	}
	return b.Build()
}

// Serialize pretty-prints doc with two-space indentation. Insignificant whitespace is
// dropped and an XML declaration is added when missing.
func Serialize(doc *etree.Document) ([]byte, error) {
	if !hasDeclaration(doc) {
		doc.InsertChildAt(0, etree.NewProcInst("xml", xmlDeclaration))
	}
	doc.Indent(2)
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, ferrors.WrapError(fmt.Errorf("%w: %w", ErrWrite, err), ferrors.CategoryFileSystem, "serialize document").
			Build()
	}
	return data, nil
}

// WriteFile serializes doc and atomically replaces path with the result.
func WriteFile(path string, doc *etree.Document) error {
	data, err := Serialize(doc)
	if err != nil {
		return err
	}

	wrap := func(err error, msg string) error {
		return ferrors.WrapError(fmt.Errorf("%w: %w", ErrWrite, err), ferrors.CategoryFileSystem, msg).
			WithContext("path", path).
			Build()
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return wrap(err, "create output directory")
		}
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil { //nolint:gosec // converted documents are not sensitive
		return wrap(err, "write temporary output")
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return wrap(err, "replace output")
	}
	return nil
}

// DropDoctype removes any document type declaration. Reports whether one was removed.
func DropDoctype(doc *etree.Document) bool {
	removed := false
	for _, t := range append([]etree.Token(nil), doc.Child...) {
		if d, ok := t.(*etree.Directive); ok && strings.HasPrefix(strings.TrimSpace(d.Data), "DOCTYPE") {
			doc.RemoveChild(d)
			removed = true
		}
	}
	return removed
}

// EnsureRootNamespace stamps the native namespace, the xsi binding and a schemaLocation on
// the root element when they are missing. Existing values are left as they are.
func EnsureRootNamespace(doc *etree.Document, schemaFile string) {
	root := doc.Root()
	if root == nil {
		return
	}
	if schemaFile == "" {
		schemaFile = DefaultSchemaFile
	}
	if root.Space == "" && root.SelectAttr("xmlns") == nil {
		root.CreateAttr("xmlns", Namespace)
	}
	if root.SelectAttrValue("xmlns:xsi", "") != XSINamespace {
		root.CreateAttr("xmlns:xsi", XSINamespace)
	}
	if root.SelectAttr("xsi:schemaLocation") == nil {
		root.CreateAttr("xsi:schemaLocation", Namespace+" "+schemaFile)
	}
}

func hasDeclaration(doc *etree.Document) bool {
	for _, t := range doc.Child {
		if p, ok := t.(*etree.ProcInst); ok && p.Target == "xml" {
			return true
		}
	}
	return false
}
