package destination

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone keeps only the digits of a phone number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HashEmail returns the SHA-256 hex digest of the normalized email, or ""
// when nothing is left after normalization.
func HashEmail(email string) string {
	return hashNormalized(NormalizeEmail(email))
}

// HashPhone returns the SHA-256 hex digest of the phone digits, or "".
func HashPhone(phone string) string {
	return hashNormalized(NormalizePhone(phone))
}

// HashName returns the SHA-256 hex digest of a trimmed, lower-cased name
// part, or "".
func HashName(name string) string {
	return hashNormalized(strings.ToLower(strings.TrimSpace(name)))
}

func hashNormalized(s string) string {
	if s == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SplitName splits a full name into the first token and the remaining
// tokens joined by single spaces. A single token yields an empty last name.
func SplitName(full string) (first, last string) {
	parts := strings.FieldsFunc(full, unicode.IsSpace)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
