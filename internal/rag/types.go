package rag

// SearchResult is one retrieved chunk with its similarity score. The struct
// is flat on purpose: everything a caller needs for attribution lives at the
// top level, with no nested wrappers to reach through.
type SearchResult struct {
	ChunkID       uint    `json:"chunk_id"`
	DocumentID    uint    `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	ChunkIndex    int     `json:"chunk_index"`
	StartChar     int     `json:"start_char"`
	EndChar       int     `json:"end_char"`
	Content       string  `json:"content"`
	Similarity    float64 `json:"similarity"`
}
