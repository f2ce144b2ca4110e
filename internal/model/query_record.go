package model

import (
	"encoding/json"
	"time"
)

// QueryRecord is the append-only audit log of one query: the question, the
// produced answer, which chunks grounded it, and the timing breakdown.
// Never mutated after creation.
type QueryRecord struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Owner               string    `gorm:"size:128;index" json:"owner"`
	QueryText           string    `gorm:"type:text;not null" json:"query_text"`
	ResponseText        string    `gorm:"type:text" json:"response_text"`
	Grounded            bool      `json:"grounded"`
	GenerationFailed    bool      `json:"generation_failed"`
	FallbackUsed        bool      `json:"fallback_used"`
	ChunksFound         int       `json:"chunks_found"`
	SimilarityThreshold float64   `json:"similarity_threshold"`
	SourceChunkIDs      string    `gorm:"type:text" json:"-"`
	LLMModel            string    `gorm:"size:128;index" json:"llm_model"`
	PromptTokens        int       `json:"prompt_tokens"`
	CompletionTokens    int       `json:"completion_tokens"`
	EmbeddingTimeMS     int64     `json:"embedding_time_ms"`
	SearchTimeMS        int64     `json:"search_time_ms"`
	LLMTimeMS           int64     `json:"llm_time_ms"`
	TotalTimeMS         int64     `json:"total_time_ms"`
	CreatedAt           time.Time `gorm:"index" json:"created_at"`
}

func (r *QueryRecord) SourceChunks() []uint {
	if r.SourceChunkIDs == "" {
		return nil
	}
	var ids []uint
	_ = json.Unmarshal([]byte(r.SourceChunkIDs), &ids)
	return ids
}

func (r *QueryRecord) SetSourceChunks(ids []uint) {
	if len(ids) == 0 {
		r.SourceChunkIDs = "[]"
		return
	}
	b, _ := json.Marshal(ids)
	r.SourceChunkIDs = string(b)
}
