package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const blockSeparator = "\n---\n"

// Assemble concatenates retrieved chunks into a single context block, in rank
// order, staying within maxChars (runes). A chunk whose block would push the
// context over the budget is skipped whole, never truncated; later, smaller
// chunks may still fit. Returns the assembled text and the subset of results
// actually included so callers can report accurate sources.
func Assemble(results []SearchResult, maxChars int, includeMetadata bool) (string, []SearchResult) {
	if len(results) == 0 || maxChars <= 0 {
		return "", nil
	}

	var sb strings.Builder
	var included []SearchResult
	used := 0

	for _, r := range results {
		block := r.Content
		if includeMetadata {
			block = fmt.Sprintf("[Document: %s | chunk %d]\n%s", r.DocumentTitle, r.ChunkIndex, r.Content)
		}
		cost := utf8.RuneCountInString(block)
		if len(included) > 0 {
			cost += utf8.RuneCountInString(blockSeparator)
		}
		if used+cost > maxChars {
			continue
		}
		if len(included) > 0 {
			sb.WriteString(blockSeparator)
		}
		sb.WriteString(block)
		used += cost
		included = append(included, r)
	}
	return sb.String(), included
}
