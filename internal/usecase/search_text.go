package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/simplespend/backend/internal/domain"
)

// maxSearchTextLength bounds the search text, in characters
const maxSearchTextLength = 100

var multipleSpacesRegex = regexp.MustCompile(`\s+`)

// cleanSearchText trims and collapses whitespace. Text longer than
// maxSearchTextLength is rejected rather than shortened.
func cleanSearchText(s string) (string, error) {
	cleaned := strings.TrimSpace(multipleSpacesRegex.ReplaceAllString(s, " "))

	if utf8.RuneCountInString(cleaned) > maxSearchTextLength {
		return "", fmt.Errorf("%w: search query exceeds %d characters", domain.ErrInvalidInput, maxSearchTextLength)
	}
	return cleaned, nil
}
