package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuquery/internal/ai"
	"docuquery/internal/model"
	"docuquery/internal/rag"
)

type memDocStore struct {
	docs   map[uint]*model.Document
	nextID uint
}

func newMemDocStore() *memDocStore {
	return &memDocStore{docs: map[uint]*model.Document{}, nextID: 1}
}

func (m *memDocStore) Create(doc *model.Document) error {
	doc.ID = m.nextID
	m.nextID++
	copied := *doc
	m.docs[doc.ID] = &copied
	return nil
}

func (m *memDocStore) GetByID(id uint) (*model.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	copied := *d
	return &copied, nil
}

func (m *memDocStore) GetByContentHash(hash string) (*model.Document, error) {
	for _, d := range m.docs {
		if d.ContentHash == hash {
			copied := *d
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memDocStore) ListByOwner(owner string) ([]model.Document, error) {
	var out []model.Document
	for _, d := range m.docs {
		if owner == "" || d.Owner == owner {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memDocStore) UpdateStatus(id uint, status, processingError string) error {
	if d, ok := m.docs[id]; ok {
		d.Status = status
		d.ProcessingError = processingError
	}
	return nil
}

func (m *memDocStore) UpdateProcessed(id uint, content string, chunkCount int) error {
	if d, ok := m.docs[id]; ok {
		d.Status = model.DocumentStatusProcessed
		d.Content = content
		d.ChunkCount = chunkCount
	}
	return nil
}

func (m *memDocStore) Delete(id uint) error {
	delete(m.docs, id)
	return nil
}

type memChunkStore struct {
	chunks map[uint][]model.Chunk
	nextID uint
}

func newMemChunkStore() *memChunkStore {
	return &memChunkStore{chunks: map[uint][]model.Chunk{}, nextID: 1}
}

func (m *memChunkStore) CreateBatch(chunks []model.Chunk) error {
	for i := range chunks {
		chunks[i].ID = m.nextID
		m.nextID++
		m.chunks[chunks[i].DocumentID] = append(m.chunks[chunks[i].DocumentID], chunks[i])
	}
	return nil
}

func (m *memChunkStore) DeleteByDocumentID(documentID uint) error {
	delete(m.chunks, documentID)
	return nil
}

type capturingPublisher struct {
	jobs []IngestJob
	err  error
}

func (p *capturingPublisher) Publish(ctx context.Context, job IngestJob) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

// memVectorIndex stores upserts by chunk ID; failRemaining makes the first
// N upserts fail to exercise the retry path.
type memVectorIndex struct {
	entries       map[uint]*model.ChunkVector
	upsertErr     error
	failRemaining int
	upsertCalls   int
}

func newMemVectorIndex() *memVectorIndex {
	return &memVectorIndex{entries: map[uint]*model.ChunkVector{}}
}

func (m *memVectorIndex) Upsert(ctx context.Context, entry *model.ChunkVector) error {
	m.upsertCalls++
	if m.failRemaining > 0 {
		m.failRemaining--
		return assert.AnError
	}
	if m.upsertErr != nil {
		return m.upsertErr
	}
	copied := *entry
	m.entries[entry.ChunkID] = &copied
	return nil
}

func (m *memVectorIndex) Search(ctx context.Context, query []float32, docIDs []uint, topK int) ([]rag.SearchResult, error) {
	return nil, nil
}

func (m *memVectorIndex) DeleteByDocumentID(ctx context.Context, documentID uint) error {
	for id, e := range m.entries {
		if e.DocumentID == documentID {
			delete(m.entries, id)
		}
	}
	return nil
}

type ingestFixture struct {
	svc       *IngestService
	docs      *memDocStore
	chunks    *memChunkStore
	vectors   *memVectorIndex
	publisher *capturingPublisher
}

func newIngestFixture(embedder Embedder) *ingestFixture {
	docs := newMemDocStore()
	chunks := newMemChunkStore()
	vectors := newMemVectorIndex()
	publisher := &capturingPublisher{}
	cfg := testRAGConfig()
	cfg.ChunkSize = 40
	cfg.ChunkOverlap = 8
	svc := NewIngestService(
		docs,
		chunks,
		stubConfig{cfg: cfg},
		embedder,
		vectors,
		publisher,
		func(data []byte, declaredType string) (string, error) {
			return strings.TrimSpace(string(data)), nil
		},
		3,
	)
	return &ingestFixture{svc: svc, docs: docs, chunks: chunks, vectors: vectors, publisher: publisher}
}

func sampleText() []byte {
	return []byte(strings.Repeat("the quick brown fox jumps over the lazy dog ", 5))
}

func TestSubmitCreatesPendingDocumentAndEnqueues(t *testing.T) {
	f := newIngestFixture(stubEmbedder{vec: []float32{1, 0}})

	result, err := f.svc.Submit(context.Background(), SubmitInput{
		Owner:        "alice",
		Title:        "Fox Notes",
		FileName:     "fox.txt",
		DeclaredType: "txt",
		Data:         sampleText(),
	})
	require.NoError(t, err)

	assert.False(t, result.Duplicate)
	assert.Equal(t, model.DocumentStatusPending, result.Document.Status)
	assert.Equal(t, "Fox Notes", result.Document.Title)
	assert.NotEmpty(t, result.Document.ContentHash)

	require.Len(t, f.publisher.jobs, 1)
	job := f.publisher.jobs[0]
	assert.Equal(t, result.Document.ID, job.DocumentID)
	assert.Equal(t, sampleText(), job.Payload)
}

func TestSubmitDedupByContentHash(t *testing.T) {
	f := newIngestFixture(stubEmbedder{vec: []float32{1, 0}})
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, SubmitInput{FileName: "a.txt", Data: sampleText()})
	require.NoError(t, err)

	// Same bytes under a different name still map to the first document.
	second, err := f.svc.Submit(ctx, SubmitInput{FileName: "copy.txt", Data: sampleText()})
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Document.ID, second.Document.ID)
	assert.Len(t, f.publisher.jobs, 1, "duplicate must not enqueue a second job")
}

func TestSubmitValidatesInput(t *testing.T) {
	f := newIngestFixture(stubEmbedder{vec: []float32{1, 0}})
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, SubmitInput{FileName: "a.txt"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Submit(ctx, SubmitInput{Data: []byte("content")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSubmitPublishFailureMarksDocumentFailed(t *testing.T) {
	f := newIngestFixture(stubEmbedder{vec: []float32{1, 0}})
	f.publisher.err = assert.AnError

	_, err := f.svc.Submit(context.Background(), SubmitInput{FileName: "a.txt", Data: sampleText()})
	require.Error(t, err)

	docs, _ := f.docs.ListByOwner("")
	require.Len(t, docs, 1)
	assert.Equal(t, model.DocumentStatusFailed, docs[0].Status)
}

func submitAndJob(t *testing.T, f *ingestFixture) IngestJob {
	t.Helper()
	_, err := f.svc.Submit(context.Background(), SubmitInput{FileName: "doc.txt", DeclaredType: "txt", Data: sampleText()})
	require.NoError(t, err)
	require.Len(t, f.publisher.jobs, 1)
	return f.publisher.jobs[0]
}

func TestProcessChunksEmbedsAndIndexes(t *testing.T) {
	f := newIngestFixture(stubEmbedder{vec: []float32{1, 0}})
	job := submitAndJob(t, f)

	require.NoError(t, f.svc.Process(context.Background(), job))

	doc, err := f.svc.Status(job.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusProcessed, doc.Status)
	assert.Greater(t, doc.ChunkCount, 1)

	stored := f.chunks.chunks[job.DocumentID]
	require.Len(t, stored, doc.ChunkCount)
	assert.Len(t, f.vectors.entries, doc.ChunkCount)

	// Every vector row references its chunk and carries position metadata.
	for _, c := range stored {
		entry, ok := f.vectors.entries[c.ID]
		require.True(t, ok, "chunk %d has no vector", c.ID)
		assert.Equal(t, c.Content, entry.Content)
		assert.Equal(t, c.StartChar, entry.StartChar)
		assert.Equal(t, c.EndChar, entry.EndChar)
	}
}

func TestProcessEmbeddingFailureCleansUp(t *testing.T) {
	f := newIngestFixture(stubEmbedder{vec: []float32{1, 0}})
	job := submitAndJob(t, f)

	// Swap in a failing embedder for processing.
	f.svc.embedder = stubEmbedder{err: ai.ErrEmbeddingUnavailable}

	err := f.svc.Process(context.Background(), job)
	assert.ErrorIs(t, err, ai.ErrEmbeddingUnavailable)

	doc, serr := f.svc.Status(job.DocumentID)
	require.NoError(t, serr)
	assert.Equal(t, model.DocumentStatusFailed, doc.Status)
	assert.NotEmpty(t, doc.ProcessingError)

	// No partial chunks or vectors survive a failed ingest.
	assert.Empty(t, f.chunks.chunks[job.DocumentID])
	assert.Empty(t, f.vectors.entries)
}

func TestProcessUpsertRetriesThenSucceeds(t *testing.T) {
	f := newIngestFixture(stubEmbedder{vec: []float32{1, 0}})
	job := submitAndJob(t, f)
	f.vectors.failRemaining = 2

	require.NoError(t, f.svc.Process(context.Background(), job))

	doc, err := f.svc.Status(job.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusProcessed, doc.Status)
}

func TestProcessUnknownDocument(t *testing.T) {
	f := newIngestFixture(stubEmbedder{vec: []float32{1, 0}})
	err := f.svc.Process(context.Background(), IngestJob{DocumentID: 42})
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestProcessEmptyExtractionFailsDocument(t *testing.T) {
	f := newIngestFixture(stubEmbedder{vec: []float32{1, 0}})
	_, err := f.svc.Submit(context.Background(), SubmitInput{FileName: "blank.txt", Data: []byte("   ")})
	require.NoError(t, err)
	job := f.publisher.jobs[0]

	perr := f.svc.Process(context.Background(), job)
	assert.ErrorIs(t, perr, ErrEmptyDocument)

	doc, serr := f.svc.Status(job.DocumentID)
	require.NoError(t, serr)
	assert.Equal(t, model.DocumentStatusFailed, doc.Status)
}

func TestDeleteCascades(t *testing.T) {
	f := newIngestFixture(stubEmbedder{vec: []float32{1, 0}})
	job := submitAndJob(t, f)
	require.NoError(t, f.svc.Process(context.Background(), job))

	require.NoError(t, f.svc.Delete(context.Background(), job.DocumentID))

	_, err := f.svc.Status(job.DocumentID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.Empty(t, f.chunks.chunks[job.DocumentID])
	assert.Empty(t, f.vectors.entries)
}

func TestStatusValidation(t *testing.T) {
	f := newIngestFixture(stubEmbedder{vec: []float32{1, 0}})
	_, err := f.svc.Status(0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
