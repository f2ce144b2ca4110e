package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"docuquery/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) CreateBatch(chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.Create(&chunks).Error; err != nil {
		return fmt.Errorf("create chunks batch failed: %w", err)
	}
	return nil
}

func (r *ChunkRepository) ListByDocumentID(documentID uint) ([]model.Chunk, error) {
	var chunks []model.Chunk
	if err := r.db.Where("document_id = ?", documentID).Order("chunk_index ASC").Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list chunks failed: %w", err)
	}
	return chunks, nil
}

func (r *ChunkRepository) DeleteByDocumentID(documentID uint) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.Chunk{}).Error; err != nil {
		return fmt.Errorf("delete chunks by document failed: %w", err)
	}
	return nil
}

// SearchByTerms is the text-only fallback when semantic search is down: a
// LIKE match over stored chunk text for any of the terms, optionally
// restricted to a document set (nil = all, empty = none). Ranking happens in
// the caller; rows come back in insertion order for determinism.
func (r *ChunkRepository) SearchByTerms(terms []string, docIDs []uint, limit int) ([]model.Chunk, error) {
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}
	if docIDs != nil && len(docIDs) == 0 {
		return nil, nil
	}

	q := r.db.Order("id ASC").Limit(limit)
	if docIDs != nil {
		q = q.Where("document_id IN ?", docIDs)
	}

	var conds []string
	var args []interface{}
	for _, t := range terms {
		conds = append(conds, "content LIKE ?")
		args = append(args, "%"+escapeLike(t)+"%")
	}
	q = q.Where(strings.Join(conds, " OR "), args...)

	var chunks []model.Chunk
	if err := q.Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("keyword chunk search failed: %w", err)
	}
	return chunks, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
