package rag

import (
	"hash/fnv"
	"regexp"
	"strings"
)

// Category of a user utterance. Everything that is not recognised as
// conversational is DocumentSeeking and goes through retrieval.
type Category string

const (
	CategoryGreeting        Category = "greeting"
	CategoryCasual          Category = "casual"
	CategorySystemMeta      Category = "system_meta"
	CategoryDocumentSeeking Category = "document_seeking"
)

// IsConversational reports whether retrieval can be skipped for c.
func (c Category) IsConversational() bool {
	return c != CategoryDocumentSeeking
}

type patternFamily struct {
	category Category
	patterns []*regexp.Regexp
}

// Families are ordered most-specific first; when two families match text of
// the same length, the earlier family wins. Longer matches always beat
// shorter ones regardless of family order.
var conversationFamilies = []patternFamily{
	{
		category: CategorySystemMeta,
		patterns: compileAll(
			`\b(what\s+can\s+you\s+do|what\s+are\s+your\s+capabilities|help\s+me)\b`,
			`\b(how\s+does\s+this\s+work|what\s+is\s+this|explain\s+the\s+system)\b`,
			`\b(what\s+are\s+you|who\s+are\s+you|tell\s+me\s+about\s+yourself)\b`,
			`\b(what\s+models|which\s+ai|available\s+models|list\s+models)\b`,
			`\b(what\s+formats|file\s+types|supported\s+files|upload\s+types)\b`,
			`\b(how\s+to\s+upload|upload\s+documents|add\s+files|how\s+do\s+i\s+upload)\b`,
		),
	},
	{
		category: CategoryCasual,
		patterns: compileAll(
			`\b(can\s+you\s+hear\s+me|are\s+you\s+there|are\s+you\s+listening)\b`,
			`\b(hello\s+there|anybody\s+home|respond\s+if\s+you\s+can)\b`,
		),
	},
	{
		category: CategoryGreeting,
		patterns: compileAll(
			`\b(hello|hi|hey|greetings|good\s+(morning|afternoon|evening))\b`,
			`\b(what'?s\s+up|how\s+are\s+you|how\s+do\s+you\s+do)\b`,
		),
	},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		res = append(res, regexp.MustCompile(e))
	}
	return res
}

// Classify decides whether an utterance is conversational or needs document
// retrieval. Matching is case-insensitive over the whole utterance; the
// longest matched fragment wins when several families apply. Pure and
// deterministic: the same utterance always yields the same category.
func Classify(utterance string) Category {
	text := strings.ToLower(strings.TrimSpace(utterance))
	if text == "" {
		return CategoryDocumentSeeking
	}

	best := CategoryDocumentSeeking
	bestLen := 0
	for _, family := range conversationFamilies {
		for _, re := range family.patterns {
			if m := re.FindString(text); len(m) > bestLen {
				best = family.category
				bestLen = len(m)
			}
		}
	}
	return best
}

var greetingReplies = []string{
	"Hello! I'm your document assistant. Upload documents and ask me questions about them, and I'll find the answers with source citations.",
	"Hi there! I can search your uploaded documents and answer questions about their content. What would you like to know?",
	"Hey! Ready to help you dig through your documents. Ask me anything about the files you've uploaded.",
}

var casualReplies = []string{
	"Yes, I can hear you! Ask me a question about your uploaded documents and I'll search them for an answer.",
	"Loud and clear. I'm here to search your documents and answer questions about them. What can I look up for you?",
	"I'm listening! Once you've uploaded some documents, ask away and I'll find the relevant passages.",
}

var systemMetaReplies = []string{
	"I answer questions from your uploaded documents: I split them into searchable passages, find the most relevant ones for your question, and generate an answer with source citations. I handle PDF, plain text, Markdown, CSV and JSON files.",
	"Here's how this works: upload a document, I index its text for semantic search, then ask questions in natural language. I'll retrieve matching passages and answer from them, citing the source document.",
}

// Reply returns the canned response for a conversational category. The pick
// is keyed off the utterance hash so the same question always gets the same
// reply. DocumentSeeking has no canned reply and returns "".
func Reply(category Category, utterance string) string {
	var pool []string
	switch category {
	case CategoryGreeting:
		pool = greetingReplies
	case CategoryCasual:
		pool = casualReplies
	case CategorySystemMeta:
		pool = systemMetaReplies
	default:
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(utterance))))
	return pool[h.Sum32()%uint32(len(pool))]
}
