// Package crossref finds references to GitHub issues in free text.
package crossref

import (
	"regexp"
	"strconv"
)

// issueRefPattern matches "#123" style issue references. The reference
// must not be preceded by a word character, so "abc#1" and "&#39;" are
// ignored.
var issueRefPattern = regexp.MustCompile(`(?:^|[^\w&])#(\d+)\b`)

// ExtractIssueRefs extracts all issue numbers referenced in text.
// Returns a deduplicated list preserving the order of first occurrence.
func ExtractIssueRefs(text string) []int {
	matches := issueRefPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[int]bool)
	var result []int
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 || seen[n] {
			continue
		}
		seen[n] = true
		result = append(result, n)
	}
	return result
}

// FirstIssueRef returns the first issue referenced by a task's title or
// description. If known is non-nil, only numbers present in known count.
func FirstIssueRef(
	title string,
	description string,
	known map[int]bool,
) (int, bool) {
	for _, n := range ExtractIssueRefs(title + " " + description) {
		if known == nil || known[n] {
			return n, true
		}
	}
	return 0, false
}
