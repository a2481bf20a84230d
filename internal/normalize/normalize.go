// Package normalize turns a market's free-text question into the stable,
// comparable fields the matcher and detectors key on.
package normalize

import (
	"regexp"
	"strings"
)

var (
	nonAlnumExceptComparator = regexp.MustCompile(`[^a-z0-9><=\s]`)
	whitespaceRun            = regexp.MustCompile(`\s+`)
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "will": {}, "is": {}, "are": {}, "be": {},
	"by": {}, "of": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {},
	"this": {}, "that": {}, "it": {}, "as": {}, "or": {}, "and": {},
}

// Normalize lowercases, strips punctuation (keeping comparator glyphs), and
// collapses whitespace.
func Normalize(s string) string {
	lower := strings.ToLower(s)
	stripped := nonAlnumExceptComparator.ReplaceAllString(lower, " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(stripped, " "))
}

// StableKey tokenizes the normalized text, drops stopwords, sorts the
// remaining tokens, and rejoins them — so "Will BTC hit 100k?" and "BTC:
// will it hit 100k" collapse to the same key.
func StableKey(s string) string {
	tokens := strings.Fields(Normalize(s))
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		kept = append(kept, tok)
	}
	sortStrings(kept)
	return strings.Join(kept, " ")
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
