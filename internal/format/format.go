// Package format normalizes raw keystrokes into the display forms used by the
// payment form. Every function is idempotent.
package format

import "strings"

const (
	MaxCardDigits   = 16
	MaxExpiryDigits = 4
	MaxCVVDigits    = 4
)

// Digits drops every non-digit rune and keeps at most limit digits
// (limit <= 0 means no limit).
func Digits(raw string, limit int) string {
	var b strings.Builder
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		if limit > 0 && b.Len() >= limit {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatCardNumber groups up to 16 digits in blocks of four.
func FormatCardNumber(raw string) string {
	digits := Digits(raw, MaxCardDigits)

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatExpiry renders up to four digits as MM/YY. The slash appears once a
// third digit is typed so that deleting back past it works.
func FormatExpiry(raw string) string {
	digits := Digits(raw, MaxExpiryDigits)
	if len(digits) <= 2 {
		return digits
	}
	return digits[:2] + "/" + digits[2:]
}

func FormatCVV(raw string) string {
	return Digits(raw, MaxCVVDigits)
}

// CardNumberForSubmit strips the display spaces from a card number.
func CardNumberForSubmit(raw string) string {
	return strings.ReplaceAll(raw, " ", "")
}
