package util

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeSlug folds a slug into the form used for lookups: NFC
// normalised, trimmed and lower-cased, so that "Téléphones" typed with
// combining accents matches the precomposed stored value.
func NormalizeSlug(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}
