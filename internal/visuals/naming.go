package visuals

import (
	"fmt"
	"strings"
	"unicode"
)

// BuildQuery joins the keywords and the location into one search query.
func BuildQuery(keywords []string, location string) string {
	return strings.TrimSpace(strings.Join(keywords, " ") + " " + location)
}

// LocationPrefix derives a file-name prefix from a location: the part before
// the first comma, lower-cased, with spaces and path-unsafe runes replaced
// by underscores. An empty result becomes "unknown".
func LocationPrefix(location string) string {
	head, _, _ := strings.Cut(location, ",")
	head = strings.ToLower(strings.TrimSpace(head))

	prefix := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '.', r == '_':
			return r
		default:
			return '_'
		}
	}, head)
	if strings.Trim(prefix, "._") == "" {
		return "unknown"
	}
	return prefix
}

// FileName is the stored name of the index-th search result for a location.
func FileName(prefix string, index int, ext string) string {
	return fmt.Sprintf("%s_image_%d.%s", prefix, index, ext)
}
