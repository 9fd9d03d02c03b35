package upstream

import "strings"

const (
	phoneMinDigits = 10
	phoneMaxDigits = 12
)

// NormalizePhone strips every non-digit character and keeps the trailing 12
// digits at most. Numbers with fewer than 10 digits are not usable as a
// customer identity and normalize to "".
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > phoneMaxDigits {
		digits = digits[len(digits)-phoneMaxDigits:]
	}
	if len(digits) < phoneMinDigits {
		return ""
	}
	return digits
}

// FirstPhone returns the first candidate that normalizes to a non-empty
// phone, scanning in the given precedence order.
func FirstPhone(candidates ...string) string {
	for _, c := range candidates {
		if p := NormalizePhone(c); p != "" {
			return p
		}
	}
	return ""
}
