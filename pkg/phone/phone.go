// Package phone canonicalises Korean mobile numbers to a digits-only form.
package phone

import "strings"

const (
	minDigits = 10
	maxDigits = 11
)

// Normalize strips everything but ASCII digits.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid reports whether raw normalises to 10 or 11 digits.
func Valid(raw string) bool {
	n := len(Normalize(raw))
	return n >= minDigits && n <= maxDigits
}

// Format renders 01012345678 as 010-1234-5678 and 0101234567 as 010-123-4567.
// Anything else is returned trimmed and unchanged.
func Format(raw string) string {
	p := Normalize(raw)
	switch len(p) {
	case maxDigits:
		return p[:3] + "-" + p[3:7] + "-" + p[7:]
	case minDigits:
		return p[:3] + "-" + p[3:6] + "-" + p[6:]
	default:
		return strings.TrimSpace(raw)
	}
}

// Mask hides the middle block, e.g. 010-****-5678.
func Mask(raw string) string {
	f := Format(raw)
	parts := strings.Split(f, "-")
	if len(parts) != 3 {
		return f
	}
	return parts[0] + "-" + strings.Repeat("*", len(parts[1])) + "-" + parts[2]
}
