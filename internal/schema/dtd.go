package schema

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/beevik/etree"
)

const maxEntityDepth = 16

var (
	dtdComment      = regexp.MustCompile(`(?s)<!--.*?-->`)
	dtdPI           = regexp.MustCompile(`(?s)<\?.*?\?>`)
	internalPE      = regexp.MustCompile(`<!ENTITY\s+%\s+([A-Za-z_:][-\w.:]*)\s+("[^"]*"|'[^']*')\s*>`)
	externalPE      = regexp.MustCompile(`<!ENTITY\s+%`)
	peReference     = regexp.MustCompile(`%([A-Za-z_:][-\w.:]*);`)
	xmlName         = regexp.MustCompile(`^[A-Za-z_:][-\w.:]*$`)
	nmtoken         = regexp.MustCompile(`^[-\w.:]+$`)
	knownAttrTypes  = []string{"CDATA", "ID", "IDREF", "IDREFS", "ENTITY", "ENTITIES", "NMTOKEN", "NMTOKENS"}
	errUnterminated = errors.New("unterminated declaration")
)

type contentKind int

const (
	contentEmpty contentKind = iota
	contentAny
	contentMixed
	contentChildren
)

// dtd holds the element and attribute-list declarations of one grammar file.
type dtd struct {
	elements map[string]*elementDecl
	attrs    map[string][]*attrDecl
}

type elementDecl struct {
	name  string
	kind  contentKind
	model string
	mixed map[string]bool
	// re matches the child element names of an element-only node, each followed by a space.
	re *regexp.Regexp
}

type attrDecl struct {
	name   string
	typ    string
	values []string
	mode   string
	value  string
}

func loadDTD(path string) (*dtd, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseDTD(string(data))
}

func parseDTD(src string) (*dtd, error) {
	body := dtdComment.ReplaceAllString(src, "")
	body = dtdPI.ReplaceAllString(body, "")
	body, err := expandParameterEntities(body)
	if err != nil {
		return nil, err
	}
	decls, err := splitDecls(body)
	if err != nil {
		return nil, err
	}

	d := &dtd{elements: map[string]*elementDecl{}, attrs: map[string][]*attrDecl{}}
	for _, decl := range decls {
		keyword, rest := nextWord(decl)
		switch keyword {
		case "ELEMENT":
			el, err := parseElementDecl(rest)
			if err != nil {
				return nil, err
			}
			if _, dup := d.elements[el.name]; dup {
				return nil, fmt.Errorf("element %s declared twice", el.name)
			}
			d.elements[el.name] = el
		case "ATTLIST":
			elem, list, err := parseAttlist(rest)
			if err != nil {
				return nil, err
			}
			for _, a := range list {
				// The first declaration of an attribute binds.
				if d.attr(elem, a.name) == nil {
					d.attrs[elem] = append(d.attrs[elem], a)
				}
			}
		case "ENTITY", "NOTATION":
		default:
			return nil, fmt.Errorf("unsupported declaration <!%s", keyword)
		}
	}
	return d, nil
}

func (d *dtd) attr(elem, name string) *attrDecl {
	for _, a := range d.attrs[elem] {
		if a.name == name {
			return a
		}
	}
	return nil
}

// expandParameterEntities inlines internal parameter entities, padding each
// replacement with spaces.
func expandParameterEntities(body string) (string, error) {
	entities := map[string]string{}
	for _, m := range internalPE.FindAllStringSubmatch(body, -1) {
		if _, ok := entities[m[1]]; !ok {
			entities[m[1]] = m[2][1 : len(m[2])-1]
		}
	}
	body = internalPE.ReplaceAllString(body, "")
	if externalPE.MatchString(body) {
		return "", errors.New("external parameter entities are not supported")
	}

	for depth := 0; peReference.MatchString(body); depth++ {
		if depth == maxEntityDepth {
			return "", errors.New("parameter entities nest too deeply")
		}
		var unknown string
		body = peReference.ReplaceAllStringFunc(body, func(ref string) string {
			name := ref[1 : len(ref)-1]
			v, ok := entities[name]
			if !ok {
				unknown = name
			}
			return " " + v + " "
		})
		if unknown != "" {
			return "", fmt.Errorf("undefined parameter entity %%%s;", unknown)
		}
	}
	return body, nil
}

// splitDecls returns the text between "<!" and the closing ">" of every declaration.
func splitDecls(body string) ([]string, error) {
	var decls []string
	for {
		start := strings.Index(body, "<!")
		if start < 0 {
			if s := strings.TrimSpace(body); s != "" {
				return nil, fmt.Errorf("unexpected text %q", abbreviate(s))
			}
			return decls, nil
		}
		if s := strings.TrimSpace(body[:start]); s != "" {
			return nil, fmt.Errorf("unexpected text %q", abbreviate(s))
		}
		if strings.HasPrefix(body[start:], "<![") {
			return nil, errors.New("conditional sections are not supported")
		}
		end := declEnd(body, start+2)
		if end < 0 {
			return nil, errUnterminated
		}
		decls = append(decls, body[start+2:end])
		body = body[end+1:]
	}
}

func declEnd(s string, from int) int {
	var quote byte
	for i := from; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i
		}
	}
	return -1
}

func parseElementDecl(s string) (*elementDecl, error) {
	name, rest := nextWord(s)
	if !xmlName.MatchString(name) {
		return nil, fmt.Errorf("invalid element name %q", name)
	}
	spec := strings.TrimSpace(rest)
	el := &elementDecl{name: name, model: spec}

	switch {
	case spec == "EMPTY":
		el.kind = contentEmpty
	case spec == "ANY":
		el.kind = contentAny
	case strings.Contains(spec, "#PCDATA"):
		el.kind = contentMixed
		el.mixed = map[string]bool{}
		inner := strings.TrimSpace(strings.TrimSuffix(spec, "*"))
		if !strings.HasPrefix(inner, "(") || !strings.HasSuffix(inner, ")") {
			return nil, fmt.Errorf("element %s: malformed mixed content %s", name, spec)
		}
		for _, part := range strings.Split(inner[1:len(inner)-1], "|") {
			part = strings.TrimSpace(part)
			if part == "#PCDATA" {
				continue
			}
			if !xmlName.MatchString(part) {
				return nil, fmt.Errorf("element %s: invalid name %q in mixed content", name, part)
			}
			el.mixed[part] = true
		}
	default:
		re, err := compileModel(spec)
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", name, err)
		}
		el.kind, el.re = contentChildren, re
	}
	return el, nil
}

type modelParser struct {
	toks []string
	pos  int
}

// compileModel turns a children content model such as (a, (b | c)*, d?) into a regexp
// over space-terminated child names.
func compileModel(spec string) (*regexp.Regexp, error) {
	p := &modelParser{toks: tokenizeModel(spec)}
	expr, err := p.particle()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, fmt.Errorf("unexpected %q in content model %s", p.toks[p.pos], spec)
	}
	return regexp.Compile("^" + expr + "$")
}

func tokenizeModel(s string) []string {
	const punct = "(),|?*+"
	var toks []string
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case isSpace(c):
			i++
		case strings.IndexByte(punct, c) >= 0:
			toks = append(toks, string(c))
			i++
		default:
			j := i
			for j < len(s) && !isSpace(s[j]) && strings.IndexByte(punct, s[j]) < 0 {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks
}

func (p *modelParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *modelParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *modelParser) particle() (string, error) {
	var expr string
	switch tok := p.next(); {
	case tok == "(":
		g, err := p.group()
		if err != nil {
			return "", err
		}
		expr = g
	case xmlName.MatchString(tok):
		expr = "(?:" + regexp.QuoteMeta(tok) + " )"
	case tok == "":
		return "", errors.New("unterminated content model")
	default:
		return "", fmt.Errorf("unexpected %q in content model", tok)
	}
	switch p.peek() {
	case "?", "*", "+":
		expr += p.next()
	}
	return expr, nil
}

// group parses a choice or sequence whose opening parenthesis was consumed.
func (p *modelParser) group() (string, error) {
	first, err := p.particle()
	if err != nil {
		return "", err
	}
	parts := []string{first}
	var sep string
	for {
		switch tok := p.next(); tok {
		case ")":
			if sep == "|" {
				return "(?:" + strings.Join(parts, "|") + ")", nil
			}
			return "(?:" + strings.Join(parts, "") + ")", nil
		case "|", ",":
			if sep != "" && sep != tok {
				return "", errors.New("content model group mixes ',' and '|'")
			}
			sep = tok
			part, err := p.particle()
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		case "":
			return "", errors.New("unterminated content model")
		default:
			return "", fmt.Errorf("unexpected %q in content model", tok)
		}
	}
}

func parseAttlist(s string) (string, []*attrDecl, error) {
	toks, err := attlistTokens(s)
	if err != nil {
		return "", nil, err
	}
	if len(toks) == 0 || !xmlName.MatchString(toks[0]) {
		return "", nil, errors.New("ATTLIST without an element name")
	}
	elem := toks[0]

	var out []*attrDecl
	for i := 1; i < len(toks); {
		a := &attrDecl{name: toks[i]}
		i++
		if i >= len(toks) {
			return "", nil, fmt.Errorf("attribute %s of %s has no type", a.name, elem)
		}
		typ := toks[i]
		i++
		switch {
		case strings.HasPrefix(typ, "("):
			a.typ, a.values = "ENUM", enumValues(typ)
		case typ == "NOTATION":
			if i >= len(toks) || !strings.HasPrefix(toks[i], "(") {
				return "", nil, fmt.Errorf("attribute %s of %s: NOTATION without values", a.name, elem)
			}
			a.typ, a.values = typ, enumValues(toks[i])
			i++
		case slices.Contains(knownAttrTypes, typ):
			a.typ = typ
		default:
			return "", nil, fmt.Errorf("attribute %s of %s: unknown type %s", a.name, elem, typ)
		}

		if i >= len(toks) {
			return "", nil, fmt.Errorf("attribute %s of %s has no default", a.name, elem)
		}
		switch def := toks[i]; {
		case def == "#REQUIRED" || def == "#IMPLIED":
			a.mode = def
			i++
		case def == "#FIXED":
			if i+1 >= len(toks) || !isLiteral(toks[i+1]) {
				return "", nil, fmt.Errorf("attribute %s of %s: #FIXED without a value", a.name, elem)
			}
			a.mode, a.value = def, toks[i+1][1:len(toks[i+1])-1]
			i += 2
		case isLiteral(def):
			a.value = def[1 : len(def)-1]
			i++
		default:
			return "", nil, fmt.Errorf("attribute %s of %s: invalid default %s", a.name, elem, def)
		}
		out = append(out, a)
	}
	return elem, out, nil
}

func attlistTokens(s string) ([]string, error) {
	var toks []string
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case isSpace(c):
			i++
		case c == '"' || c == '\'':
			j := strings.IndexByte(s[i+1:], c)
			if j < 0 {
				return nil, errUnterminated
			}
			toks = append(toks, s[i:i+j+2])
			i += j + 2
		case c == '(':
			j := strings.IndexByte(s[i:], ')')
			if j < 0 {
				return nil, errUnterminated
			}
			toks = append(toks, s[i:i+j+1])
			i += j + 1
		default:
			j := i
			for j < len(s) && !isSpace(s[j]) && !strings.ContainsRune(`("'`, rune(s[j])) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks, nil
}

func enumValues(group string) []string {
	var out []string
	for _, v := range strings.Split(strings.Trim(group, "()"), "|") {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

func isLiteral(s string) bool {
	return len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func nextWord(s string) (string, string) {
	s = strings.TrimLeft(s, " \t\r\n")
	if i := strings.IndexAny(s, " \t\r\n"); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

func abbreviate(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

type idref struct {
	el    *etree.Element
	attr  string
	value string
}

type dtdChecker struct {
	dtd  *dtd
	ids  map[string]bool
	refs []idref
	out  []Violation
}

// validate walks the tree from root and returns every violation in document order,
// followed by dangling IDREFs.
func (d *dtd) validate(root *etree.Element) []Violation {
	c := &dtdChecker{dtd: d, ids: map[string]bool{}}
	c.element(root)
	for _, r := range c.refs {
		if !c.ids[r.value] {
			c.report(r.el, "IDREF attribute %s references an unknown ID %q", r.attr, r.value)
		}
	}
	return c.out
}

func (c *dtdChecker) report(e *etree.Element, format string, args ...any) {
	c.out = append(c.out, Violation{Message: fmt.Sprintf(format, args...), Path: e.GetPath()})
}

func (c *dtdChecker) element(e *etree.Element) {
	name := qualifiedName(e.Space, e.Tag)
	if decl := c.dtd.elements[name]; decl == nil {
		c.report(e, "No declaration for element %s", name)
	} else {
		c.content(e, decl)
	}
	c.attributes(e, name)
	for _, child := range e.ChildElements() {
		c.element(child)
	}
}

func (c *dtdChecker) content(e *etree.Element, decl *elementDecl) {
	var kids []string
	text := false
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.Element:
			kids = append(kids, qualifiedName(t.Space, t.Tag))
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				text = true
			}
		}
	}

	switch decl.kind {
	case contentEmpty:
		if len(kids) > 0 || text {
			c.report(e, "Element %s was declared EMPTY this one has content", decl.name)
		}
	case contentMixed:
		reported := map[string]bool{}
		for _, k := range kids {
			if !decl.mixed[k] && !reported[k] {
				reported[k] = true
				c.report(e, "Element %s is not declared in %s list of possible children", k, decl.name)
			}
		}
	case contentChildren:
		if text {
			c.report(e, "Element %s content does not follow the DTD, text not allowed", decl.name)
		}
		var seq strings.Builder
		for _, k := range kids {
			seq.WriteString(k)
			seq.WriteByte(' ')
		}
		if !decl.re.MatchString(seq.String()) {
			c.report(e, "Element %s content does not follow the DTD, expecting %s, got (%s)",
				decl.name, decl.model, strings.Join(kids, " "))
		}
	}
}

func (c *dtdChecker) attributes(e *etree.Element, name string) {
	present := map[string]bool{}
	for _, a := range e.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		key := qualifiedName(a.Space, a.Key)
		present[key] = true
		decl := c.dtd.attr(name, key)
		if decl == nil {
			c.report(e, "No declaration for attribute %s of element %s", key, name)
			continue
		}
		c.attrValue(e, name, decl, a.Value)
	}
	for _, decl := range c.dtd.attrs[name] {
		if decl.mode == "#REQUIRED" && !present[decl.name] {
			c.report(e, "Element %s does not carry attribute %s", name, decl.name)
		}
	}
}

func (c *dtdChecker) attrValue(e *etree.Element, elem string, decl *attrDecl, v string) {
	if decl.typ != "CDATA" {
		v = strings.Join(strings.Fields(v), " ")
	}
	switch decl.typ {
	case "ENUM", "NOTATION":
		if !slices.Contains(decl.values, v) {
			c.report(e, "Value %q for attribute %s of %s is not among the enumerated set", v, decl.name, elem)
		}
	case "ID":
		switch {
		case !xmlName.MatchString(v):
			c.report(e, "Syntax of value for attribute %s of %s is not valid", decl.name, elem)
		case c.ids[v]:
			c.report(e, "ID %s already defined", v)
		default:
			c.ids[v] = true
		}
	case "IDREF":
		c.refs = append(c.refs, idref{el: e, attr: decl.name, value: v})
	case "IDREFS":
		for _, f := range strings.Fields(v) {
			c.refs = append(c.refs, idref{el: e, attr: decl.name, value: f})
		}
	case "NMTOKEN":
		if !nmtoken.MatchString(v) {
			c.report(e, "Syntax of value for attribute %s of %s is not valid", decl.name, elem)
		}
	case "NMTOKENS":
		for _, f := range strings.Fields(v) {
			if !nmtoken.MatchString(f) {
				c.report(e, "Syntax of value for attribute %s of %s is not valid", decl.name, elem)
				break
			}
		}
	}
	if decl.mode == "#FIXED" && v != decl.value {
		c.report(e, "Value for attribute %s of %s is different from default %q", decl.name, elem, decl.value)
	}
}

func qualifiedName(space, local string) string {
	if space == "" {
		return local
	}
	return space + ":" + local
}
