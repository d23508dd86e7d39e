package data

import (
	"regexp"
	"strings"
)

var markupPattern = regexp.MustCompile(`<[^>]*>`)

// StripMarkup removes localized-string wrapper elements and any remaining
// angle-bracket markup from harvested text. Applying it twice yields the
// same result as applying it once.
func StripMarkup(text string) string {
	return strings.TrimSpace(markupPattern.ReplaceAllString(text, ""))
}

// SplitList splits delimiter-separated text into an ordered set: elements
// are trimmed, empties dropped, and duplicates removed case-sensitively
// while preserving first-seen order.
func SplitList(text, delimiter string) []string {
	var out []string
	seen := make(map[string]struct{})

	for _, part := range strings.Split(text, delimiter) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}

	return out
}

// JoinList is the inverse of SplitList for a given delimiter:
// SplitList(JoinList(items, d), d) reproduces items.
func JoinList(items []string, delimiter string) string {
	return strings.Join(items, delimiter+" ")
}

// MergeTags appends incoming tags onto existing ones with case-insensitive
// dedupe, preserving first-seen order. Existing tags are never removed.
func MergeTags(existing, incoming []string) []string {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))

	for _, group := range [][]string{existing, incoming} {
		for _, tag := range group {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, tag)
		}
	}

	return out
}
