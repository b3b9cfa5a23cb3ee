package xmltree

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"git.home.luguber.info/inful/ojsconvert/internal/foundation/normalization"
)

// invisible strips format characters (zero-width spaces, byte order marks) that make a
// visually empty label look non-empty.
var invisible = runes.Remove(runes.In(unicode.Cf))

var boolValues = normalization.NewNormalizer("boolean", map[string]string{
	"true":  "1",
	"false": "0",
}, "")

var truthyValues = normalization.NewNormalizer("flag", map[string]bool{
	"true": true,
	"1":    true,
	"yes":  true,
}, false)

// NormalizeSpace collapses whitespace runs (including the no-break space) to a single
// space and trims both ends.
func NormalizeSpace(s string) string {
	if cleaned, _, err := transform.String(invisible, s); err == nil {
		s = cleaned
	}
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeBool maps "true"/"false" (any case, surrounding whitespace ignored) to "1"/"0".
// Any other value is returned unchanged with ok=false.
func NormalizeBool(v string) (string, bool) {
	if out, ok := boolValues.Lookup(v); ok {
		return out, true
	}
	return v, false
}

// IsTruthy reports whether v is one of "true", "1" or "yes", ignoring case and whitespace.
func IsTruthy(v string) bool {
	return truthyValues.Normalize(v)
}
