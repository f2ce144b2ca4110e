package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docuquery/internal/model"
	"docuquery/internal/rag"
)

var (
	// ErrStore wraps backend failures so the query path can fall back to
	// keyword search instead of failing the whole request.
	ErrStore = errors.New("vector store failure")

	ErrDimensionMismatch = errors.New("vector store dimension mismatch")
)

// Store is a MySQL-backed vector index over chunk embeddings. Reads are
// concurrent-safe through the database; writes rely on the unique chunk_id
// index for idempotency. All rows carry the embedding model name and a
// search only ever considers rows from the store's configured model, so
// mixed-model comparison is impossible by construction.
type Store struct {
	db        *gorm.DB
	modelName string
	dim       int
}

func New(db *gorm.DB, modelName string, dim int) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: configured dimension %d must be positive", ErrDimensionMismatch, dim)
	}
	return &Store{db: db, modelName: modelName, dim: dim}, nil
}

func (s *Store) Dimension() int { return s.dim }

// Upsert persists one chunk's vector tuple, idempotently by chunk ID.
func (s *Store) Upsert(ctx context.Context, entry *model.ChunkVector) error {
	if len(entry.EmbeddingVector()) != s.dim {
		return fmt.Errorf("%w: vector has %d dimensions, store expects %d",
			ErrDimensionMismatch, len(entry.EmbeddingVector()), s.dim)
	}
	entry.ModelName = s.modelName
	entry.Dimensions = s.dim

	var existing model.ChunkVector
	err := s.db.WithContext(ctx).Where("chunk_id = ?", entry.ChunkID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
			return fmt.Errorf("%w: create chunk vector failed: %v", ErrStore, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("%w: lookup chunk vector failed: %v", ErrStore, err)
	default:
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
		if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
			return fmt.Errorf("%w: update chunk vector failed: %v", ErrStore, err)
		}
		return nil
	}
}

// Search returns the topK nearest chunks by cosine similarity, descending,
// ties broken by insertion order. docIDs restricts the candidate set: nil
// means no restriction, an empty set means search nothing. No threshold
// filtering happens here; that is the retriever's job.
func (s *Store) Search(ctx context.Context, query []float32, docIDs []uint, topK int) ([]rag.SearchResult, error) {
	if topK <= 0 {
		return nil, nil
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, store expects %d",
			ErrDimensionMismatch, len(query), s.dim)
	}
	if docIDs != nil && len(docIDs) == 0 {
		return nil, nil
	}

	q := s.db.WithContext(ctx).Where("model_name = ?", s.modelName)
	if docIDs != nil {
		q = q.Where("document_id IN ?", docIDs)
	}
	var rows []model.ChunkVector
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: load chunk vectors failed: %v", ErrStore, err)
	}

	return rankCandidates(query, rows, topK), nil
}

func (s *Store) DeleteByDocumentID(ctx context.Context, documentID uint) error {
	if err := s.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.ChunkVector{}).Error; err != nil {
		return fmt.Errorf("%w: delete chunk vectors failed: %v", ErrStore, err)
	}
	return nil
}

// CountForeignModel counts stored vectors produced by a different embedding
// model. A non-zero count means the corpus needs wholesale re-embedding
// before those documents become searchable again.
func (s *Store) CountForeignModel(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.ChunkVector{}).
		Where("model_name <> ?", s.modelName).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%w: count foreign model vectors failed: %v", ErrStore, err)
	}
	return n, nil
}
