package hops

import (
	"regexp"
	"strings"
)

var (
	orcidURL = regexp.MustCompile(`(?i)^https?://(?:www\.)?(?:sandbox\.)?orcid\.org/\S+`)
	orcidID  = regexp.MustCompile(`^[0-9]{4}-[0-9]{4}-[0-9]{4}-[0-9]{3}[0-9xX]$`)
)

// detectORCID returns the ORCID value carried by a free-text link. Profile URLs are kept
// verbatim; bare identifiers are upper-cased so a checksum x becomes X.
func detectORCID(v string) (string, bool) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return "", false
	case orcidURL.MatchString(v):
		return v, true
	case orcidID.MatchString(v):
		return strings.ToUpper(v), true
	default:
		return "", false
	}
}
