package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NameKey returns the merge key of a product name: trimmed, NFC-normalized and
// case-folded, so "Rice", "rice" and "RICE " are the same product.
func NameKey(name string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}
