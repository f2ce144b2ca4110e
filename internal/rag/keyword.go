package rag

import "strings"

// QueryTerms extracts the searchable terms of an utterance for the keyword
// fallback path: lowercased, punctuation-trimmed words of three runes or
// more. Short function words carry no signal for a substring match.
func QueryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `.,;:!?"'()[]{}`)
		if len([]rune(f)) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}

// KeywordScore counts term occurrences in content, case-insensitively. Used
// to rank chunks when semantic search is unavailable.
func KeywordScore(content string, terms []string) int {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	score := 0
	for _, t := range terms {
		score += strings.Count(lower, t)
	}
	return score
}
