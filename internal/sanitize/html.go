package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes.
var StrictPolicy = bluemonday.StrictPolicy()

// Text strips all HTML tags and returns plain text. Entities escaped by the
// policy are decoded again because values are stored and served as JSON,
// never rendered as markup by this service.
func Text(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(StrictPolicy.Sanitize(input)))
}

// OptionalText applies Text to a non-nil pointer value.
func OptionalText(input *string) *string {
	if input == nil {
		return nil
	}
	cleaned := Text(*input)
	return &cleaned
}
