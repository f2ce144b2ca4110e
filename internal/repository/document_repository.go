package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"docuquery/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

// GetByContentHash finds an existing document with identical content, used
// for upload dedup.
func (r *DocumentRepository) GetByContentHash(hash string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("content_hash = ?", hash).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document by hash failed: %w", err)
	}
	return &doc, nil
}

// ListByOwner lists documents; empty owner lists all.
func (r *DocumentRepository) ListByOwner(owner string) ([]model.Document, error) {
	q := r.db.Order("created_at DESC")
	if owner != "" {
		q = q.Where("owner = ?", owner)
	}
	var list []model.Document
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

// TitlesByIDs returns a document id -> title map for attribution.
func (r *DocumentRepository) TitlesByIDs(ids []uint) (map[uint]string, error) {
	if len(ids) == 0 {
		return map[uint]string{}, nil
	}
	var docs []model.Document
	if err := r.db.Select("id", "title").Where("id IN ?", ids).Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list document titles failed: %w", err)
	}
	titles := make(map[uint]string, len(docs))
	for _, d := range docs {
		titles[d.ID] = d.Title
	}
	return titles, nil
}

func (r *DocumentRepository) UpdateStatus(id uint, status, processingError string) error {
	updates := map[string]interface{}{
		"status":           status,
		"processing_error": processingError,
	}
	if status == model.DocumentStatusProcessed {
		now := time.Now()
		updates["processed_at"] = &now
	}
	if err := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update document status failed: %w", err)
	}
	return nil
}

// UpdateProcessed records the extraction result and chunk count in one shot.
func (r *DocumentRepository) UpdateProcessed(id uint, content string, chunkCount int) error {
	now := time.Now()
	updates := map[string]interface{}{
		"content":          content,
		"chunk_count":      chunkCount,
		"status":           model.DocumentStatusProcessed,
		"processing_error": "",
		"processed_at":     &now,
	}
	if err := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update processed document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Document{}, id).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}
