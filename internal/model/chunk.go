package model

import "time"

// Chunk is a bounded substring of a document's extracted text, the unit of
// retrieval. StartChar/EndChar are rune offsets into Document.Content; chunks
// sorted by ChunkIndex reconstruct the source with bounded overlap.
type Chunk struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index;uniqueIndex:uniq_doc_chunk,priority:1" json:"document_id"`
	ChunkIndex int       `gorm:"not null;uniqueIndex:uniq_doc_chunk,priority:2" json:"chunk_index"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	StartChar  int       `gorm:"not null" json:"start_char"`
	EndChar    int       `gorm:"not null" json:"end_char"`
	WordCount  int       `json:"word_count"`
	CreatedAt  time.Time `json:"created_at"`
}
