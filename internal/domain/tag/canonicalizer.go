// Package tag normalizes the free-form tag strings reported by upstream
// merchant stores into a small fixed vocabulary of delivery-company tags.
//
// Upstream tag text is entered by hand and arrives in inconsistent shapes:
// comma-separated lists, whitespace-separated words, mixed case, common
// misspellings, and tags split across two adjacent words ("12 livery").
package tag

import (
	"sort"
	"strings"
)

// variants maps every known spelling, lowercased, to its canonical tag.
// "sandy" historically also appeared as "meta" in some revisions of this
// table; "sand" is the spelling the fulfillment team settled on.
var variants = map[string]string{
	"fast":     "fast",
	"k":        "k",
	"big":      "big",
	"12livery": "12livery",
	"12livrey": "12livery",
	"oscario":  "oscario",
	"sand":     "sand",
	"sandy":    "sand",
}

// Tokenize splits a raw tag string into tokens. When the string contains a
// comma it is treated as a comma-separated list and each piece is trimmed,
// preserving internal spaces. Otherwise it splits on runs of whitespace.
func Tokenize(raw string) []string {
	if strings.Contains(raw, ",") {
		parts := strings.Split(raw, ",")
		tokens := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				tokens = append(tokens, t)
			}
		}
		return tokens
	}
	return strings.Fields(raw)
}

// canonical resolves a single token against the variant table. Matching is
// whole-token and case-insensitive; a token that merely contains a known
// variant as a substring does not match.
func canonical(token string) (string, bool) {
	c, ok := variants[strings.ToLower(token)]
	return c, ok
}

// DetectFirst returns the first canonical delivery tag found scanning the
// token sequence left to right, or "" when no token matches. A token that
// does not match on its own is retried concatenated with the following
// token, recovering tags that upstream splits across two words.
func DetectFirst(raw string) string {
	tokens := Tokenize(raw)
	for i := 0; i < len(tokens); i++ {
		if c, ok := canonical(tokens[i]); ok {
			return c
		}
		if i+1 < len(tokens) {
			if c, ok := canonical(tokens[i] + tokens[i+1]); ok {
				return c
			}
		}
	}
	return ""
}

// ExtractAll walks the full token sequence and returns every canonical tag
// found, in order. A two-token match consumes both tokens so a pair is never
// double-counted. Tokens with no mapping are ignored.
func ExtractAll(raw string) []string {
	tokens := Tokenize(raw)
	var found []string
	for i := 0; i < len(tokens); i++ {
		if c, ok := canonical(tokens[i]); ok {
			found = append(found, c)
			continue
		}
		if i+1 < len(tokens) {
			if c, ok := canonical(tokens[i] + tokens[i+1]); ok {
				found = append(found, c)
				i++
				continue
			}
		}
	}
	return found
}

// Canonical reports all canonical tags the vocabulary can produce.
// Useful for building zeroed summary maps.
func Canonical() []string {
	seen := make(map[string]struct{}, len(variants))
	var out []string
	for _, c := range variants {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
