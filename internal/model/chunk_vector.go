package model

import (
	"encoding/json"
	"time"
)

// ChunkVector is a vector store row: chunk text, its embedding, the owning
// document reference and position metadata, denormalized so a similarity
// search never needs a join. The auto-increment ID doubles as insertion
// order, the tie-break key for equal similarity scores.
// Vector is stored as a JSON array of float32 for portability.
type ChunkVector struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ChunkID       uint      `gorm:"not null;uniqueIndex" json:"chunk_id"`
	DocumentID    uint      `gorm:"not null;index" json:"document_id"`
	DocumentTitle string    `gorm:"size:256" json:"document_title"`
	ChunkIndex    int       `json:"chunk_index"`
	StartChar     int       `json:"start_char"`
	EndChar       int       `json:"end_char"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	Vector        string    `gorm:"type:mediumtext" json:"-"`
	ModelName     string    `gorm:"size:128;not null;index" json:"model_name"`
	Dimensions    int       `gorm:"not null" json:"dimensions"`
	CreatedAt     time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed vector; empty on parse error.
func (v *ChunkVector) EmbeddingVector() []float32 {
	if v.Vector == "" {
		return nil
	}
	var vec []float32
	_ = json.Unmarshal([]byte(v.Vector), &vec)
	return vec
}

// SetEmbedding stores the vector as JSON and records its dimension.
func (v *ChunkVector) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		v.Vector = "[]"
		v.Dimensions = 0
		return
	}
	b, _ := json.Marshal(vec)
	v.Vector = string(b)
	v.Dimensions = len(vec)
}
