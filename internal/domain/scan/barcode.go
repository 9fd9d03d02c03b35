package scan

import (
	"strings"

	"github.com/chafiq1992/order-scanner/internal/domain/shared"
)

// ErrInvalidBarcode is returned when a scanned barcode yields no usable
// order number. No upstream or storage interaction happens for it.
var ErrInvalidBarcode = shared.NewDomainError("INVALID_BARCODE", "Invalid barcode")

// DefaultMaxDigits bounds the digit count of a cleaned order number.
const DefaultMaxDigits = 6

// CleanBarcode normalizes a raw scanned barcode into a canonical order name
// of the form "#"+digits. Merchant label printers prefix the order number
// with a store id and a dash, so when a dash is present only the portion
// after the last dash is considered. All non-digits are discarded and
// leading zeros stripped. Returns ErrInvalidBarcode when nothing remains or
// more than maxDigits digits do.
func CleanBarcode(raw string, maxDigits int) (string, error) {
	if maxDigits <= 0 {
		maxDigits = DefaultMaxDigits
	}
	if i := strings.LastIndexByte(raw, '-'); i >= 0 {
		raw = raw[i+1:]
	}

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := strings.TrimLeft(b.String(), "0")
	if digits == "" || len(digits) > maxDigits {
		return "", ErrInvalidBarcode
	}
	return "#" + digits, nil
}
