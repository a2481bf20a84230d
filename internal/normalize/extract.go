package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var thresholdPattern = regexp.MustCompile(
	`(?i)(above|over|at least|greater than or equal to|>=|gte|below|under|at most|less than or equal to|<=|lte|exceed[s]?|reach(?:es)?)\s*\$?([0-9][0-9,]*\.?[0-9]*)\s*(k|m)?`,
)

var comparatorSynonyms = map[string]string{
	"above": ">", "over": ">", "exceed": ">", "exceeds": ">", "reach": ">=", "reaches": ">=",
	"greater than or equal to": ">=", ">=": ">=", "gte": ">=",
	"below": "<", "under": "<",
	"at most": "<=", "less than or equal to": "<=", "<=": "<=", "lte": "<=",
	"at least": ">=",
}

// ExtractThreshold finds a numeric comparator clause in a question, e.g.
// "Will BTC exceed $100k?" -> (">", 100000, true).
func ExtractThreshold(question string) (comparator string, threshold float64, ok bool) {
	m := thresholdPattern.FindStringSubmatch(question)
	if m == nil {
		return "", 0, false
	}

	word := strings.ToLower(strings.TrimSpace(m[1]))
	comp, known := comparatorSynonyms[word]
	if !known {
		return "", 0, false
	}

	numStr := strings.ReplaceAll(m[2], ",", "")
	val, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return "", 0, false
	}

	switch strings.ToLower(m[3]) {
	case "k":
		val *= 1_000
	case "m":
		val *= 1_000_000
	}

	return comp, val, true
}

var tickerPattern = regexp.MustCompile(`\b[A-Z]{2,5}\b`)

// ExtractEntity picks the most likely subject of a question: the first
// ticker-shaped uppercase token, falling back to the first non-stopword
// token lowercased.
func ExtractEntity(question string) string {
	if m := tickerPattern.FindString(question); m != "" {
		return strings.ToLower(m)
	}

	for _, tok := range strings.Fields(Normalize(question)) {
		if _, stop := stopwords[tok]; !stop {
			return tok
		}
	}
	return ""
}

var dateLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"01/02/2006",
}

// ExtractExpiry attempts to fuzzy-parse a deadline mentioned in question
// text. It never errors — ok=false signals no date was found.
func ExtractExpiry(question string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		// Scan sliding windows sized to the layout to tolerate surrounding words.
		words := strings.Fields(question)
		layoutWords := len(strings.Fields(layout))
		for i := 0; i+layoutWords <= len(words); i++ {
			candidate := strings.Join(words[i:i+layoutWords], " ")
			if t, err := time.Parse(layout, candidate); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
