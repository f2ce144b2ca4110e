package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyGreetings(t *testing.T) {
	for _, q := range []string{
		"hello",
		"Hi!",
		"hey",
		"Good morning",
		"how are you?",
		"what's up",
	} {
		assert.Equal(t, CategoryGreeting, Classify(q), "utterance %q", q)
	}
}

func TestClassifyCasual(t *testing.T) {
	for _, q := range []string{
		"can you hear me?",
		"are you there",
		"anybody home?",
	} {
		assert.Equal(t, CategoryCasual, Classify(q), "utterance %q", q)
	}
}

func TestClassifySystemMeta(t *testing.T) {
	for _, q := range []string{
		"what can you do?",
		"What are your capabilities",
		"how does this work",
		"what formats do you support",
		"how do i upload a document",
		"who are you",
	} {
		assert.Equal(t, CategorySystemMeta, Classify(q), "utterance %q", q)
	}
}

func TestClassifyDocumentSeeking(t *testing.T) {
	for _, q := range []string{
		"what is the termination clause in the contract?",
		"summarize the quarterly revenue figures",
		"when does the lease expire",
		"",
		"   ",
	} {
		assert.Equal(t, CategoryDocumentSeeking, Classify(q), "utterance %q", q)
	}
}

func TestClassifyLongestMatchWins(t *testing.T) {
	// "hello" alone is a greeting, but "what can you do" is the longer
	// match and pulls the utterance into system meta.
	assert.Equal(t, CategorySystemMeta, Classify("hello, what can you do?"))
}

func TestClassifyIsDeterministic(t *testing.T) {
	q := "hey, how are you doing today"
	first := Classify(q)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(q))
	}
}

func TestReplyStablePerUtterance(t *testing.T) {
	first := Reply(CategoryGreeting, "hello")
	assert.NotEmpty(t, first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Reply(CategoryGreeting, "hello"))
	}
}

func TestReplyDocumentSeekingIsEmpty(t *testing.T) {
	assert.Empty(t, Reply(CategoryDocumentSeeking, "what is in the report?"))
}

func TestIsConversational(t *testing.T) {
	assert.True(t, CategoryGreeting.IsConversational())
	assert.True(t, CategoryCasual.IsConversational())
	assert.True(t, CategorySystemMeta.IsConversational())
	assert.False(t, CategoryDocumentSeeking.IsConversational())
}
