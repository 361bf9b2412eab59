package keywords

import (
	"regexp"
	"sort"
	"strings"
)

// Highlighter wraps every case-insensitive occurrence of each active keyword
// between Open and Close markers. Matches are not exclusive: overlapping
// keywords each contribute their own markers, so "cat" and "category" both
// wrap inside the same span.
type Highlighter struct {
	Open  string
	Close string
}

func (h Highlighter) Highlight(text string, kws []Keyword) string {
	if len(kws) == 0 || text == "" {
		return text
	}

	opensAt := make(map[int]int)
	closesAt := make(map[int]int)
	matched := false

	for _, kw := range kws {
		if !kw.IsActive || kw.Word == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(kw.Word))
		for _, span := range re.FindAllStringIndex(text, -1) {
			opensAt[span[0]]++
			closesAt[span[1]]++
			matched = true
		}
	}
	if !matched {
		return text
	}

	positions := make([]int, 0, len(opensAt)+len(closesAt))
	seen := make(map[int]bool)
	for p := range opensAt {
		if !seen[p] {
			positions = append(positions, p)
			seen[p] = true
		}
	}
	for p := range closesAt {
		if !seen[p] {
			positions = append(positions, p)
			seen[p] = true
		}
	}
	sort.Ints(positions)

	var b strings.Builder
	last := 0
	for _, p := range positions {
		b.WriteString(text[last:p])
		// A span ending here closes before one starting here opens.
		for i := 0; i < closesAt[p]; i++ {
			b.WriteString(h.Close)
		}
		for i := 0; i < opensAt[p]; i++ {
			b.WriteString(h.Open)
		}
		last = p
	}
	b.WriteString(text[last:])
	return b.String()
}
