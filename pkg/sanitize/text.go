// Package sanitize strips markup from user-supplied text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag and attribute.
var strict = bluemonday.StrictPolicy()

// ampersands keeps "&" literal through the tokenizer, so typed entities such
// as "&amp;" survive as text instead of being decoded.
var ampersands = strings.NewReplacer("&", "&amp;")

// Text strips all HTML and surrounding whitespace and returns plain text
// exactly as typed. Callers that render HTML escape on output.
// Use for: event names, locations, notification content, usernames.
func Text(input string) string {
	out := strict.Sanitize(ampersands.Replace(input))
	return strings.TrimSpace(html.UnescapeString(out))
}
