package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryTerms(t *testing.T) {
	assert.Equal(t, []string{"termination", "clause", "contract"},
		QueryTerms("What is the termination clause in the contract?"))
}

func TestQueryTermsDropsShortWords(t *testing.T) {
	terms := QueryTerms("is it in an up to me")
	assert.Empty(t, terms)
}

func TestQueryTermsTrimsPunctuation(t *testing.T) {
	assert.Equal(t, []string{"revenue", "profit"}, QueryTerms(`"revenue", (profit)!`))
}

func TestKeywordScore(t *testing.T) {
	content := "The contract defines termination. Termination requires notice per the contract."
	terms := []string{"termination", "contract"}
	assert.Equal(t, 4, KeywordScore(content, terms))
}

func TestKeywordScoreCaseInsensitive(t *testing.T) {
	assert.Equal(t, 1, KeywordScore("REVENUE grew", []string{"revenue"}))
}

func TestKeywordScoreNoTerms(t *testing.T) {
	assert.Equal(t, 0, KeywordScore("anything", nil))
}
