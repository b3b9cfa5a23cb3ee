package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	ferrors "git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
)

// EnvSchemaBase names an extra candidate root.
const EnvSchemaBase = "OJS_SCHEMA_BASE"

var (
	// ErrNoGrammar is returned when no usable grammar exists for a version.
	ErrNoGrammar = errors.New("no grammar available")
	// ErrMissingInclude is returned when native.xsd exists but its pkp-native.xsd include does not.
	ErrMissingInclude = errors.New("missing required schema include")
)

var versionChars = regexp.MustCompile(`[^0-9.]`)

// Grammar kinds.
const (
	KindNone = "none"
	KindXSD  = "xsd"
	KindDTD  = "dtd"
)

// Grammar is the grammar file resolved for one version.
type Grammar struct {
	Version    string
	Kind       string
	Path       string
	VersionDir string
}

// Locator resolves grammars below a list of candidate roots, first match wins.
type Locator struct {
	roots []string
}

// NewLocator returns a locator searching roots in order.
func NewLocator(roots ...string) *Locator {
	return &Locator{roots: dedupe(roots)}
}

// DefaultRoots returns the configured roots followed by $OJS_SCHEMA_BASE and the working
// directory.
func DefaultRoots(configured ...string) []string {
	roots := append([]string{}, configured...)
	if base := os.Getenv(EnvSchemaBase); base != "" {
		roots = append(roots, base)
	}
	if wd, err := os.Getwd(); err == nil {
		roots = append(roots, wd)
	}
	return dedupe(roots)
}

// Roots returns the candidate roots in search order.
func (l *Locator) Roots() []string {
	return append([]string(nil), l.roots...)
}

// VersionDir returns the first existing version directory for version.
func (l *Locator) VersionDir(version string) (string, bool) {
	ver := versionChars.ReplaceAllString(version, "")
	if ver == "" {
		ver = version
	}
	for _, root := range l.roots {
		for _, dir := range []string{filepath.Join(root, "xsd", ver), filepath.Join(root, ver)} {
			if isDir(dir) {
				return dir, true
			}
		}
	}
	return "", false
}

// GrammarFor resolves the grammar of version. A version without any grammar yields a
// Grammar of KindNone and no error. A native.xsd without its required include is a
// configuration error.
func (l *Locator) GrammarFor(version string) (Grammar, error) {
	g := Grammar{Version: version, Kind: KindNone}
	dir, ok := l.VersionDir(version)
	if !ok {
		return g, nil
	}
	g.VersionDir = dir

	native := filepath.Join(dir, "plugins", "importexport", "native", "native.xsd")
	fallback := filepath.Join(dir, "lib", "pkp", "xml", "importexport.xsd")
	dtd := filepath.Join(dir, "native.dtd")

	switch {
	case isFile(native):
		include := filepath.Join(dir, "lib", "pkp", "plugins", "importexport", "native", "pkp-native.xsd")
		if !isFile(include) {
			return g, ferrors.WrapError(fmt.Errorf("%w: %s", ErrMissingInclude, include), ferrors.CategoryConfig,
				"missing required include for "+version).
				WithContext("version", version).
				WithContext("path", include).
				Build()
		}
		g.Kind, g.Path = KindXSD, native
	case isFile(fallback):
		g.Kind, g.Path = KindXSD, fallback
	case isFile(dtd):
		g.Kind, g.Path = KindDTD, dtd
	}
	return g, nil
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
