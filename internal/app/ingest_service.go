package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"docuquery/internal/model"
	"docuquery/internal/rag"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrEmptyDocument    = errors.New("document content is empty")
)

// IngestJob is the queue payload for background document processing. The
// raw bytes travel with the job so extraction failures land on the worker,
// where they can mark the document failed instead of failing the upload
// request.
type IngestJob struct {
	DocumentID   uint   `json:"document_id"`
	FileName     string `json:"file_name"`
	DeclaredType string `json:"declared_type"`
	Payload      []byte `json:"payload"`
}

// IngestPublisher enqueues ingest jobs for the background worker.
type IngestPublisher interface {
	Publish(ctx context.Context, job IngestJob) error
}

// Embedder turns text into fixed-dimension vectors.
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelName() string
}

// VectorIndex is the vector store as the services see it.
type VectorIndex interface {
	Upsert(ctx context.Context, entry *model.ChunkVector) error
	Search(ctx context.Context, query []float32, docIDs []uint, topK int) ([]rag.SearchResult, error)
	DeleteByDocumentID(ctx context.Context, documentID uint) error
}

// TextExtractor is the ingestion collaborator: raw bytes in, plain text out.
type TextExtractor func(data []byte, declaredType string) (string, error)

// DocumentStore is document persistence as ingestion sees it, satisfied by
// repository.DocumentRepository.
type DocumentStore interface {
	Create(doc *model.Document) error
	GetByID(id uint) (*model.Document, error)
	GetByContentHash(hash string) (*model.Document, error)
	ListByOwner(owner string) ([]model.Document, error)
	UpdateStatus(id uint, status, processingError string) error
	UpdateProcessed(id uint, content string, chunkCount int) error
	Delete(id uint) error
}

// ChunkStore is chunk persistence as ingestion sees it, satisfied by
// repository.ChunkRepository.
type ChunkStore interface {
	CreateBatch(chunks []model.Chunk) error
	DeleteByDocumentID(documentID uint) error
}

type IngestService struct {
	docRepo       DocumentStore
	chunkRepo     ChunkStore
	settings      RAGConfigProvider
	embedder      Embedder
	vectors       VectorIndex
	publisher     IngestPublisher
	extract       TextExtractor
	upsertRetries int
}

func NewIngestService(
	docRepo DocumentStore,
	chunkRepo ChunkStore,
	settings RAGConfigProvider,
	embedder Embedder,
	vectors VectorIndex,
	publisher IngestPublisher,
	extract TextExtractor,
	upsertRetries int,
) *IngestService {
	if upsertRetries <= 0 {
		upsertRetries = 3
	}
	return &IngestService{
		docRepo:       docRepo,
		chunkRepo:     chunkRepo,
		settings:      settings,
		embedder:      embedder,
		vectors:       vectors,
		publisher:     publisher,
		extract:       extract,
		upsertRetries: upsertRetries,
	}
}

type SubmitInput struct {
	Owner        string
	Title        string
	FileName     string
	DeclaredType string
	Data         []byte
}

type SubmitResult struct {
	Document  model.Document `json:"document"`
	Duplicate bool           `json:"duplicate"`
}

// Submit registers an upload and enqueues it for background processing.
// Identical bytes map to the already-ingested document: the content hash is
// the document's identity for dedup purposes.
func (s *IngestService) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	if len(input.Data) == 0 {
		return nil, ErrInvalidInput
	}
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, ErrInvalidInput
	}

	hash := contentHash(input.Data)
	if existing, err := s.docRepo.GetByContentHash(hash); err != nil {
		return nil, err
	} else if existing != nil {
		return &SubmitResult{Document: *existing, Duplicate: true}, nil
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = strings.TrimSuffix(fileName, filepath.Ext(fileName))
		if title == "" {
			title = "Untitled"
		}
	}
	declaredType := strings.TrimSpace(input.DeclaredType)
	if declaredType == "" {
		declaredType = strings.TrimPrefix(filepath.Ext(fileName), ".")
	}

	doc := &model.Document{
		Owner:       input.Owner,
		Title:       title,
		FileName:    fileName,
		FileType:    strings.ToLower(declaredType),
		SizeBytes:   int64(len(input.Data)),
		ContentHash: hash,
		Status:      model.DocumentStatusPending,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}

	job := IngestJob{
		DocumentID:   doc.ID,
		FileName:     fileName,
		DeclaredType: doc.FileType,
		Payload:      input.Data,
	}
	if err := s.publisher.Publish(ctx, job); err != nil {
		// The document would sit in pending forever with no job behind it.
		_ = s.docRepo.UpdateStatus(doc.ID, model.DocumentStatusFailed, "enqueue ingest job failed")
		return nil, fmt.Errorf("enqueue ingest job failed: %w", err)
	}
	return &SubmitResult{Document: *doc, Duplicate: false}, nil
}

// Process runs the full ingest pipeline for one job: extract, chunk, embed,
// index. Any failure marks the document failed with the reason; there are no
// partial embeddings left behind for a failed document.
func (s *IngestService) Process(ctx context.Context, job IngestJob) error {
	doc, err := s.docRepo.GetByID(job.DocumentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("%w: id %d", ErrDocumentNotFound, job.DocumentID)
	}

	if err := s.docRepo.UpdateStatus(doc.ID, model.DocumentStatusProcessing, ""); err != nil {
		return err
	}

	text, err := s.extract(job.Payload, job.DeclaredType)
	if err != nil {
		return s.fail(doc.ID, fmt.Errorf("extract text failed: %w", err))
	}

	cfg, err := s.settings.RAGConfig(ctx)
	if err != nil {
		return s.fail(doc.ID, fmt.Errorf("load rag settings failed: %w", err))
	}

	pieces, err := rag.Chunk(text, rag.ChunkOptions{
		Size:         cfg.ChunkSize,
		Overlap:      cfg.ChunkOverlap,
		AllowHardCut: cfg.AllowHardCut,
	})
	if err != nil {
		return s.fail(doc.ID, fmt.Errorf("chunk text failed: %w", err))
	}
	if len(pieces) == 0 {
		return s.fail(doc.ID, ErrEmptyDocument)
	}

	chunks := make([]model.Chunk, len(pieces))
	texts := make([]string, len(pieces))
	for i, p := range pieces {
		chunks[i] = model.Chunk{
			DocumentID: doc.ID,
			ChunkIndex: i,
			Content:    p.Content,
			StartChar:  p.Start,
			EndChar:    p.End,
			WordCount:  rag.WordCount(p.Content),
		}
		texts[i] = p.Content
	}
	if err := s.chunkRepo.CreateBatch(chunks); err != nil {
		return s.fail(doc.ID, fmt.Errorf("persist chunks failed: %w", err))
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		// No numeric fallback on the ingest path: the document fails whole.
		return s.fail(doc.ID, fmt.Errorf("embed chunks failed: %w", err))
	}

	for i := range chunks {
		entry := &model.ChunkVector{
			ChunkID:       chunks[i].ID,
			DocumentID:    doc.ID,
			DocumentTitle: doc.Title,
			ChunkIndex:    chunks[i].ChunkIndex,
			StartChar:     chunks[i].StartChar,
			EndChar:       chunks[i].EndChar,
			Content:       chunks[i].Content,
		}
		entry.SetEmbedding(vectors[i])
		if err := s.upsertWithRetry(ctx, entry); err != nil {
			return s.fail(doc.ID, fmt.Errorf("index chunk %d failed: %w", chunks[i].ChunkIndex, err))
		}
	}

	if err := s.docRepo.UpdateProcessed(doc.ID, text, len(chunks)); err != nil {
		return err
	}
	log.Printf("document %d processed: %d chunks", doc.ID, len(chunks))
	return nil
}

func (s *IngestService) upsertWithRetry(ctx context.Context, entry *model.ChunkVector) error {
	var lastErr error
	for attempt := 0; attempt < s.upsertRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
		}
		if lastErr = s.vectors.Upsert(ctx, entry); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// fail marks the document failed and cleans up partial state so the store
// never serves chunks of a failed document.
func (s *IngestService) fail(documentID uint, cause error) error {
	_ = s.vectors.DeleteByDocumentID(context.Background(), documentID)
	_ = s.chunkRepo.DeleteByDocumentID(documentID)
	if err := s.docRepo.UpdateStatus(documentID, model.DocumentStatusFailed, cause.Error()); err != nil {
		return err
	}
	return cause
}

func (s *IngestService) ListDocuments(owner string) ([]model.Document, error) {
	return s.docRepo.ListByOwner(owner)
}

func (s *IngestService) Status(documentID uint) (*model.Document, error) {
	if documentID == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docRepo.GetByID(documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// Delete removes a document and everything derived from it: chunks and
// vectors go first so the index never references a missing document.
func (s *IngestService) Delete(ctx context.Context, documentID uint) error {
	doc, err := s.Status(documentID)
	if err != nil {
		return err
	}
	if err := s.vectors.DeleteByDocumentID(ctx, doc.ID); err != nil {
		return err
	}
	if err := s.chunkRepo.DeleteByDocumentID(doc.ID); err != nil {
		return err
	}
	return s.docRepo.Delete(doc.ID)
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
