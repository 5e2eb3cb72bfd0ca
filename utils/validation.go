package utils

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"
)

var (
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
	jsEventRegex = regexp.MustCompile(`on\w+="[^"]*"`)
	dataURIRegex = regexp.MustCompile(`data:[^;]+;base64,[^"']+`)
)

// SanitizeString removes HTML tags, inline event handlers and data URIs
func SanitizeString(input string) string {
	sanitized := htmlTagRegex.ReplaceAllString(input, "")
	sanitized = jsEventRegex.ReplaceAllString(sanitized, "")
	sanitized = dataURIRegex.ReplaceAllString(sanitized, "")
	return strings.TrimSpace(html.EscapeString(sanitized))
}

// ValidateStringLength validates string length
func ValidateStringLength(str string, min, max int) error {
	length := len([]rune(strings.TrimSpace(str)))
	if length < min {
		return fmt.Errorf("must be at least %d characters long", min)
	}
	if length > max {
		return fmt.Errorf("must not exceed %d characters", max)
	}
	return nil
}

// Title converts the first letter of each word to uppercase and the rest to lowercase.
func Title(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		for j := 1; j < len(runes); j++ {
			runes[j] = unicode.ToLower(runes[j])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
