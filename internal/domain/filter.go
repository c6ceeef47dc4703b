package domain

import (
	"strings"
)

// ContentFilter rejects free text holding one of the banned substrings,
// which are mostly link prefixes and URL shorteners.
type ContentFilter struct {
	banned []string
}

func NewContentFilter(banned []string) *ContentFilter {
	normalized := make([]string, 0, len(banned))
	for _, b := range banned {
		b = strings.ToLower(strings.TrimSpace(b))
		if b != "" {
			normalized = append(normalized, b)
		}
	}

	return &ContentFilter{banned: normalized}
}

// Match returns the first banned substring found in any of texts.
func (f *ContentFilter) Match(texts ...string) (string, bool) {
	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, b := range f.banned {
			if strings.Contains(lower, b) {
				return b, true
			}
		}
	}

	return "", false
}
