package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
	"git.home.luguber.info/inful/ojsconvert/internal/xmltree"
)

const fixtureGrammars = "../../test/testdata/grammars"

const invalidLegacyExport = `<?xml version="1.0" encoding="UTF-8"?>
<issues>
  <issue published="maybe">
    <volume>1</volume>
    <title locale="en_US">Out of order</title>
    <section>
      <title locale="en_US">Articles</title>
      <article>
        <title locale="en_US">Nobody wrote this</title>
        <galley>
          <label>PDF</label>
          <file>
            <embed encoding="base64">AA==</embed>
          </file>
        </galley>
        <reviewer>Anonymous</reviewer>
      </article>
    </section>
  </issue>
</issues>`

func writeDTD(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "xsd", "2.4.8")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "native.dtd"), []byte(body), 0o644))
	return root
}

func messages(violations []Violation) string {
	out := make([]string, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Message)
	}
	return strings.Join(out, "\n")
}

func TestValidate_DTDAcceptsLegacyExport(t *testing.T) {
	doc, err := xmltree.ReadFile("../../test/testdata/exports/issue-2.4.8.xml")
	require.NoError(t, err)

	err = NewValidator(NewLocator(fixtureGrammars)).Validate(t.Context(), doc, "2.4.8", nil)
	assert.NoError(t, err)
}

func TestValidate_DTDRejectsInvalidLegacyExport(t *testing.T) {
	doc, err := xmltree.Parse([]byte(invalidLegacyExport))
	require.NoError(t, err)

	err = NewValidator(NewLocator(fixtureGrammars)).Validate(t.Context(), doc, "2.4.8", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	violations := Violations(err)
	require.Len(t, violations, 5)
	for _, v := range violations {
		assert.NotEmpty(t, v.Path, v.Message)
	}

	all := messages(violations)
	assert.Contains(t, all, "Element issue content does not follow the DTD")
	assert.Contains(t, all, `Value "maybe" for attribute published of issue is not among the enumerated set`)
	assert.Contains(t, all, "Element article content does not follow the DTD")
	assert.Contains(t, all, "Element embed does not carry attribute filename")
	assert.Contains(t, all, "No declaration for element reviewer")

	assert.Equal(t, "/issues/issue", violations[0].Path)
	assert.Equal(t, "/issues/issue/section/article/galley/file/embed", violations[3].Path)

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "2.4.8", f.Version)
	assert.Equal(t, filepath.Join(fixtureGrammars, "xsd", "2.4.8", "native.dtd"), f.Schema)
}

func TestValidate_EmptyDTDDeclaresNothing(t *testing.T) {
	doc, err := xmltree.Parse([]byte(`<issue/>`))
	require.NoError(t, err)

	err = NewValidator(NewLocator(writeDTD(t, ""))).Validate(t.Context(), doc, "2.4.8", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "No declaration for element issue", messages(Violations(err)))
}

func TestValidate_BrokenDTDIsConfigError(t *testing.T) {
	doc, err := xmltree.Parse([]byte(`<issues/>`))
	require.NoError(t, err)

	err = NewValidator(NewLocator(writeDTD(t, `<!ELEMENT issues (issue+>`))).Validate(t.Context(), doc, "2.4.8", nil)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestCompileModel(t *testing.T) {
	tests := []struct {
		model    string
		children string
		match    bool
	}{
		{"(a, (b | c)*, d?)", "a b c d ", true},
		{"(a, (b | c)*, d?)", "a ", true},
		{"(a, (b | c)*, d?)", "b ", false},
		{"(a, (b | c)*, d?)", "a d b ", false},
		{"(a+)", "a a ", true},
		{"(a+)", "", false},
		{"(a | b)", "b ", true},
		{"(a | b)", "a b ", false},
		{"(ab, a)", "a a ", false},
	}
	for _, tt := range tests {
		t.Run(tt.model+" "+tt.children, func(t *testing.T) {
			re, err := compileModel(tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.match, re.MatchString(tt.children))
		})
	}
}

func TestParseDTD_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"mixed separators", `<!ELEMENT a (b, c | d)>`, "mixes"},
		{"unterminated model", `<!ELEMENT a (b, c>`, "unterminated"},
		{"undefined entity", `<!ATTLIST a x %nope;>`, "undefined parameter entity"},
		{"external entity", `<!ENTITY % ext SYSTEM "other.dtd">`, "external parameter entities"},
		{"conditional section", `<![INCLUDE[<!ELEMENT a EMPTY>]]>`, "conditional sections"},
		{"duplicate element", `<!ELEMENT a EMPTY><!ELEMENT a ANY>`, "declared twice"},
		{"unknown attribute type", `<!ATTLIST a x STRING #IMPLIED>`, "unknown type"},
		{"stray text", `<!ELEMENT a EMPTY> junk`, "unexpected text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseDTD(tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDTD_Attributes(t *testing.T) {
	d, err := parseDTD(`
<!ENTITY % common "kind NMTOKEN #IMPLIED">
<!ELEMENT doc (item*)>
<!ATTLIST doc version CDATA #FIXED "1">
<!ELEMENT item EMPTY>
<!ATTLIST item
	id ID #REQUIRED
	next IDREF #IMPLIED
	%common;>
<!ATTLIST item id CDATA #IMPLIED>`)
	require.NoError(t, err)
	assert.Equal(t, "ID", d.attr("item", "id").typ)

	doc, err := xmltree.Parse([]byte(`<doc version="2" xmlns:x="urn:x">
  <item id="a" next="b" kind="x y"/>
  <item id="a" next="zz"/>
  <item id="c" colour="red">text</item>
</doc>`))
	require.NoError(t, err)

	all := messages(d.validate(doc.Root()))
	assert.Contains(t, all, `Value for attribute version of doc is different from default "1"`)
	assert.Contains(t, all, "Syntax of value for attribute kind of item is not valid")
	assert.Contains(t, all, "ID a already defined")
	assert.Contains(t, all, "No declaration for attribute colour of element item")
	assert.Contains(t, all, "Element item was declared EMPTY this one has content")
	assert.Contains(t, all, `IDREF attribute next references an unknown ID "b"`)
	assert.Contains(t, all, `IDREF attribute next references an unknown ID "zz"`)
	assert.NotContains(t, all, "xmlns")
}

func TestDTD_MixedContent(t *testing.T) {
	d, err := parseDTD(`<!ELEMENT p (#PCDATA | em)*><!ELEMENT em (#PCDATA)>`)
	require.NoError(t, err)

	doc, err := xmltree.Parse([]byte(`<p>Some <em>mixed</em> text <strong>here</strong> and <strong>there</strong></p>`))
	require.NoError(t, err)

	violations := d.validate(doc.Root())
	require.Len(t, violations, 3)
	assert.Equal(t, "Element strong is not declared in p list of possible children", violations[0].Message)
	assert.Equal(t, "/p", violations[0].Path)
	assert.Equal(t, "No declaration for element strong", violations[1].Message)
	assert.Equal(t, "/p/strong", violations[1].Path)
}
