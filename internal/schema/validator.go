package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/lestrrat-go/libxml2"
	"github.com/lestrrat-go/libxml2/xsd"

	ferrors "git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
	"git.home.luguber.info/inful/ojsconvert/internal/logfields"
	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

// ErrValidation marks a document rejected by its grammar.
var ErrValidation = errors.New("schema validation failed")

var (
	lineRe   = regexp.MustCompile(`(?i)\bline (\d+)`)
	columnRe = regexp.MustCompile(`(?i)\bcolumn (\d+)`)
)

// Violation is one grammar violation. XSD violations carry the line and column libxml2
// reported, when it did. DTD violations carry the element path instead.
type Violation struct {
	Message string
	Line    int
	Column  int
	Path    string
}

func (v Violation) String() string {
	switch {
	case v.Line > 0 && v.Column > 0:
		return fmt.Sprintf("%s (line %d, column %d)", v.Message, v.Line, v.Column)
	case v.Line > 0:
		return fmt.Sprintf("%s (line %d)", v.Message, v.Line)
	case v.Path != "":
		return fmt.Sprintf("%s (at %s)", v.Message, v.Path)
	default:
		return v.Message
	}
}

// Failure lists every violation found for one version. It unwraps to ErrValidation.
type Failure struct {
	Version    string
	Schema     string
	Violations []Violation
}

func (f *Failure) Error() string {
	lines := make([]string, 0, len(f.Violations))
	for _, v := range f.Violations {
		lines = append(lines, v.String())
	}
	return fmt.Sprintf("%s for %s:\n%s", ErrValidation, f.Version, strings.Join(lines, "\n"))
}

func (f *Failure) Unwrap() error { return ErrValidation }

// Violations returns the violations carried by err, if any.
func Violations(err error) []Violation {
	var f *Failure
	if errors.As(err, &f) {
		return f.Violations
	}
	return nil
}

// Validator checks documents against the grammar the Locator finds for each version.
// Every call compiles the schema and parses the document afresh and frees both.
type Validator struct {
	locator *Locator
}

// NewValidator returns a Validator backed by locator.
func NewValidator(locator *Locator) *Validator {
	return &Validator{locator: locator}
}

// Validate checks doc against the grammar of version, XSD or DTD. It returns an error
// wrapping ErrNoGrammar when no grammar exists, a config error when the grammar is broken
// and a validation error carrying a *Failure when the document is rejected.
func (v *Validator) Validate(ctx context.Context, doc *etree.Document, version string, log *slog.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	g, err := v.locator.GrammarFor(version)
	if err != nil {
		return err
	}
	if g.Kind == KindNone {
		log.Debug("Skipping validation; no grammar found", logfields.Version(version), slog.Any("roots", v.locator.Roots()))
		return fmt.Errorf("%w for %s", ErrNoGrammar, version)
	}

	log.Debug("Validating document", logfields.Version(version), logfields.Path(g.Path), slog.String("grammar", g.Kind))
	if g.Kind == KindDTD {
		err = validateDTD(g.Path, doc, version)
	} else {
		var data []byte
		if data, err = xmltree.Serialize(doc); err != nil {
			return err
		}
		err = validateXSD(g.Path, data, version)
	}
	if err != nil {
		log.Debug("Validation failed", logfields.Version(version), logfields.Count(len(Violations(err))))
		return err
	}
	log.Debug("Document is valid", logfields.Version(version))
	return nil
}

func validateXSD(schemaPath string, data []byte, version string) error {
	// Includes resolve against the schema file's own location.
	s, err := xsd.ParseFromFile(schemaPath)
	if err != nil {
		return ferrors.ConfigError("failed to compile schema for "+version).
			WithCause(err).
			WithContext("version", version).
			WithContext("path", schemaPath).
			Build()
	}
	defer s.Free()

	d, err := libxml2.Parse(data)
	if err != nil {
		return ferrors.ValidationError("document is not well-formed").
			WithCause(fmt.Errorf("%w: %w", ErrValidation, err)).
			WithContext("version", version).
			Build()
	}
	defer d.Free()

	if err := s.Validate(d); err != nil {
		return rejected(version, schemaPath, violationsOf(err))
	}
	return nil
}

// validateDTD checks the tree directly. The libxml2 binding parses without a base URL
// and frees the parser context before its validity flag can be read, so DTD validity
// is not observable through it.
func validateDTD(dtdPath string, doc *etree.Document, version string) error {
	grammar, err := loadDTD(dtdPath)
	if err != nil {
		return ferrors.ConfigError("failed to compile DTD for "+version).
			WithCause(err).
			WithContext("version", version).
			WithContext("path", dtdPath).
			Build()
	}
	root := doc.Root()
	if root == nil {
		return ferrors.ValidationError("document has no root element").
			WithCause(ErrValidation).
			WithContext("version", version).
			Build()
	}
	if violations := grammar.validate(root); len(violations) > 0 {
		return rejected(version, dtdPath, violations)
	}
	return nil
}

func rejected(version, grammarPath string, violations []Violation) error {
	failure := &Failure{Version: version, Schema: grammarPath, Violations: violations}
	return ferrors.ValidationError(fmt.Sprintf("schema validation failed for %s (%d violations)", version, len(violations))).
		WithCause(failure).
		WithContext("version", version).
		WithContext("path", grammarPath).
		Build()
}

func violationsOf(err error) []Violation {
	var sve xsd.SchemaValidationError
	if !errors.As(err, &sve) || len(sve.Errors()) == 0 {
		return []Violation{parseViolation(err.Error())}
	}
	out := make([]Violation, 0, len(sve.Errors()))
	for _, e := range sve.Errors() {
		out = append(out, parseViolation(e.Error()))
	}
	return out
}

func parseViolation(msg string) Violation {
	v := Violation{Message: strings.TrimSpace(msg)}
	if m := lineRe.FindStringSubmatch(msg); m != nil {
		v.Line, _ = strconv.Atoi(m[1])
	}
	if m := columnRe.FindStringSubmatch(msg); m != nil {
		v.Column, _ = strconv.Atoi(m[1])
	}
	return v
}
