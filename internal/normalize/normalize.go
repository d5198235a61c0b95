// Package normalize canonicalizes business names and street addresses so
// the same venue reported by different feeds produces byte-equal keys.
// All functions are pure and total: empty or garbage input yields "".
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// stopWords are tokens dropped from names before comparison. Corporate
// suffixes plus the literal words "restaurant" and "bar", which would
// otherwise dominate matching.
var stopWords = map[string]struct{}{
	"llc": {}, "inc": {}, "co": {}, "company": {}, "restaurant": {},
	"bar": {}, "ltd": {}, "corp": {}, "corporation": {},
}

// streetExpansions maps whole-token street-suffix abbreviations to their
// expanded forms. A trailing period on the abbreviation is tolerated.
var streetExpansions = map[string]string{
	"ste":  "suite",
	"st":   "street",
	"rd":   "road",
	"ave":  "avenue",
	"blvd": "boulevard",
	"dr":   "drive",
	"ln":   "lane",
	"ct":   "court",
	"pkwy": "parkway",
}

// Name normalizes a raw business name for identity matching: lowercase,
// delete punctuation ("Joe's" becomes "joes"), drop stop words, rejoin
// with single spaces. Idempotent.
func Name(raw string) string {
	if raw == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n':
			b.WriteByte(' ')
		}
	}
	var kept []string
	for _, tok := range strings.Fields(b.String()) {
		if _, stop := stopWords[tok]; !stop {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

// Address normalizes a raw street address: lowercase, expand street
// suffix abbreviations token-wise (bounded by whitespace, trailing period
// tolerated), collapse whitespace. House numbers and unit designators are
// otherwise left alone. Idempotent.
func Address(raw string) string {
	if raw == "" {
		return ""
	}
	toks := strings.Fields(strings.ToLower(raw))
	for i, tok := range toks {
		bare := strings.TrimSuffix(tok, ".")
		if exp, ok := streetExpansions[bare]; ok {
			toks[i] = exp
		}
	}
	return strings.Join(toks, " ")
}

var cityCaser = cases.Title(language.AmericanEnglish)

// City folds a free-text city name to consistent title case so "DALLAS",
// "Dallas" and "dallas" collapse to one value. Small connectives stay
// lowercased mid-name.
func City(raw string) string {
	s := cityCaser.String(strings.ToLower(strings.TrimSpace(raw)))
	s = strings.ReplaceAll(s, " Of ", " of ")
	s = strings.ReplaceAll(s, " The ", " the ")
	return s
}
