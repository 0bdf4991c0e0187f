// Package strcase converts Go identifiers to the snake_case used in JSON
// payloads and error field maps.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts s to lower snake_case. Initialisms stay one word, so
// "APIKeyID" becomes "api_key_id" and "HTTPServer" becomes "http_server".
func ToLowerSnake(s string) string {
	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && wordStartsAt(runes, i) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// wordStartsAt reports whether the upper-case rune at i begins a new word:
// either it follows a lower-case letter or digit, or it is the last capital
// of an initialism that runs into a lower-case word.
func wordStartsAt(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
