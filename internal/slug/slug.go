// Package slug turns issue keys and titles into filesystem and branch safe
// identifiers.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9]+`)
	stripMarks = runes.Remove(runes.In(unicode.Mn))
)

// Make lower-cases s, folds accented letters to their base letter and joins
// the remaining alphanumeric runs with single hyphens.
//
//	Make("ABC-123")              == "abc-123"
//	Make("Fix the Café login!")  == "fix-the-cafe-login"
func Make(s string) string {
	t := transform.Chain(norm.NFKD, stripMarks, norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = strings.NewReplacer("'", "", "’", "").Replace(folded)
	return strings.Trim(nonAlnum.ReplaceAllString(folded, "-"), "-")
}
