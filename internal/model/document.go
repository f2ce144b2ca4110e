package model

import "time"

const (
	DocumentStatusPending    = "pending"
	DocumentStatusProcessing = "processing"
	DocumentStatusProcessed  = "processed"
	DocumentStatusFailed     = "failed"
)

// Document holds an uploaded file's extracted text and processing state.
// Status is owned by the ingest pipeline: pending -> processing -> processed|failed.
type Document struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Owner           string     `gorm:"size:128;index" json:"owner"`
	Title           string     `gorm:"size:256;not null" json:"title"`
	FileName        string     `gorm:"size:256;not null" json:"file_name"`
	FileType        string     `gorm:"size:32;not null" json:"file_type"`
	SizeBytes       int64      `json:"size_bytes"`
	ContentHash     string     `gorm:"size:64;not null;uniqueIndex" json:"content_hash"`
	Content         string     `gorm:"type:longtext" json:"-"`
	ChunkCount      int        `json:"chunk_count"`
	Status          string     `gorm:"size:20;not null;index;default:pending" json:"status"`
	ProcessingError string     `gorm:"type:text" json:"processing_error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
}
