package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/kurabe/internal/models"
)

// extractPlain returns content as a single page, validating it is valid UTF-8.
// Invalid UTF-8 sequences are replaced with the replacement character.
func extractPlain(content []byte) ([]models.Page, error) {
	if !utf8.Valid(content) {
		content = []byte(strings.ToValidUTF8(string(content), "�"))
	}
	return singlePage(string(content)), nil
}
