package app

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"docuquery/internal/ai"
	"docuquery/internal/model"
	"docuquery/internal/rag"
)

// candidateMultiplier widens the raw search beyond max results because
// threshold filtering may discard many candidates.
const candidateMultiplier = 4

// keywordScanLimit caps how many chunks the text-only fallback inspects.
const keywordScanLimit = 200

const systemPrompt = `You are a helpful assistant that answers questions based on the provided context. Follow these guidelines:
1. Answer the question using ONLY the information provided in the context.
2. If the context does not contain enough information to answer the question, say clearly that the information was not found.
3. Cite specific parts of the context when possible, including dates and named entities.
4. Be concise but comprehensive.
5. If multiple documents are referenced, mention which document provides each piece of information.`

const emptyContextNote = "No relevant context found."

// notFoundAnswer is the single canonical reply when neither semantic search
// nor the keyword fallback produced anything to ground an answer on.
const notFoundAnswer = "I couldn't find any relevant information in the uploaded documents to answer your question. Try rephrasing it, or check that the relevant documents have been uploaded and processed."

// apologyAnswer is returned when the LLM collaborator is unreachable. A chat
// surface should degrade gracefully rather than surface transport errors.
const apologyAnswer = "I'm having trouble reaching the language model right now. Please try again in a moment."

// LLMClient is the generation collaborator.
type LLMClient interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (*ai.Completion, error)
}

// RAGConfigProvider supplies the runtime settings snapshot for one query.
type RAGConfigProvider interface {
	RAGConfig(ctx context.Context) (RAGConfig, error)
}

// ChunkSearcher is the text-match search used by the keyword fallback,
// satisfied by repository.ChunkRepository.
type ChunkSearcher interface {
	SearchByTerms(terms []string, docIDs []uint, limit int) ([]model.Chunk, error)
}

// TitleResolver maps document IDs to titles for source attribution,
// satisfied by repository.DocumentRepository.
type TitleResolver interface {
	TitlesByIDs(ids []uint) (map[uint]string, error)
}

// QueryRecordStore is the append-only query log, satisfied by
// repository.QueryRecordRepository.
type QueryRecordStore interface {
	Create(record *model.QueryRecord) error
	ListRecent(limit int) ([]model.QueryRecord, error)
}

type QueryService struct {
	settings   RAGConfigProvider
	embedder   Embedder
	vectors    VectorIndex
	chunkRepo  ChunkSearcher
	docRepo    TitleResolver
	recordRepo QueryRecordStore
	llm        LLMClient
	llmBase    ai.ChatConfig
}

func NewQueryService(
	settings RAGConfigProvider,
	embedder Embedder,
	vectors VectorIndex,
	chunkRepo ChunkSearcher,
	docRepo TitleResolver,
	recordRepo QueryRecordStore,
	llm LLMClient,
	llmBase ai.ChatConfig,
) *QueryService {
	return &QueryService{
		settings:   settings,
		embedder:   embedder,
		vectors:    vectors,
		chunkRepo:  chunkRepo,
		docRepo:    docRepo,
		recordRepo: recordRepo,
		llm:        llm,
		llmBase:    llmBase,
	}
}

type AskInput struct {
	Owner         string
	Question      string
	DocumentIDs   []uint // nil = search all documents
	ModelOverride string
}

type Timings struct {
	EmbeddingMS int64 `json:"embedding_ms"`
	SearchMS    int64 `json:"search_ms"`
	LLMMS       int64 `json:"llm_ms"`
	TotalMS     int64 `json:"total_ms"`
}

// QueryResponse is the uniform terminal shape of every query: every path
// through the orchestrator (conversational, grounded, fallback, apology)
// fills the same fields.
type QueryResponse struct {
	Answer           string             `json:"answer"`
	Sources          []rag.SearchResult `json:"sources"`
	Timings          Timings            `json:"timings"`
	Grounded         bool               `json:"grounded"`
	GenerationFailed bool               `json:"generation_failed"`
	FallbackUsed     bool               `json:"fallback_used"`
	Model            string             `json:"model"`
}

// Answer runs one query through the pipeline: classify, then either a
// conversational short-circuit or retrieve -> assemble -> prompt ->
// generate. Every terminal path logs a query record.
func (s *QueryService) Answer(ctx context.Context, input AskInput) (*QueryResponse, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrInvalidInput
	}

	totalStart := time.Now()

	cfg, err := s.settings.RAGConfig(ctx)
	if err != nil {
		return nil, err
	}
	modelName := cfg.LLMModel
	if override := strings.TrimSpace(input.ModelOverride); override != "" {
		modelName = override
	}

	// Conversational utterances skip retrieval entirely.
	if category := rag.Classify(question); category.IsConversational() {
		resp := &QueryResponse{
			Answer:   rag.Reply(category, question),
			Grounded: false,
			Model:    modelName,
		}
		resp.Timings.TotalMS = msSince(totalStart)
		s.logQuery(input, cfg, resp)
		return resp, nil
	}

	resp := &QueryResponse{Model: modelName}

	embedStart := time.Now()
	queryVec, embedErr := s.embedder.EmbedOne(ctx, question)
	resp.Timings.EmbeddingMS = msSince(embedStart)

	var results []rag.SearchResult
	if embedErr == nil {
		searchStart := time.Now()
		raw, searchErr := s.vectors.Search(ctx, queryVec, input.DocumentIDs, cfg.MaxChunks*candidateMultiplier)
		resp.Timings.SearchMS = msSince(searchStart)
		if searchErr == nil {
			results = filterByThreshold(raw, cfg.SimilarityThreshold, cfg.MaxChunks)
		} else {
			log.Printf("vector search failed, degrading to keyword search: %v", searchErr)
			results, resp.FallbackUsed = s.keywordFallback(question, input.DocumentIDs, cfg.MaxChunks), true
		}
	} else {
		log.Printf("query embedding failed, degrading to keyword search: %v", embedErr)
		results, resp.FallbackUsed = s.keywordFallback(question, input.DocumentIDs, cfg.MaxChunks), true
	}

	if resp.FallbackUsed && len(results) == 0 {
		// Semantic search is down and the text fallback found nothing:
		// there is no grounding to hand the model, answer canonically.
		resp.Answer = notFoundAnswer
		resp.Timings.TotalMS = msSince(totalStart)
		s.logQuery(input, cfg, resp)
		return resp, nil
	}

	contextBlock, included := rag.Assemble(results, cfg.MaxContextChars, cfg.IncludeMetadata)
	if contextBlock == "" {
		// An empty retrieval still goes to the model: the system prompt
		// instructs it to say the information was not found.
		contextBlock = emptyContextNote
	}

	messages := []ai.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: "Context:\n" + contextBlock + "\n\nQuestion: " + question + "\n\nAnswer:"},
	}

	llmCfg := s.llmBase
	llmCfg.Model = modelName
	llmCfg.Temperature = cfg.Temperature
	llmCfg.MaxTokens = cfg.MaxTokens

	llmStart := time.Now()
	completion, llmErr := s.llm.Complete(ctx, llmCfg, messages)
	resp.Timings.LLMMS = msSince(llmStart)

	if llmErr != nil {
		log.Printf("llm generation failed: %v", llmErr)
		resp.Answer = apologyAnswer
		resp.GenerationFailed = true
	} else {
		resp.Answer = strings.TrimSpace(completion.Text)
	}

	resp.Sources = included
	resp.Grounded = len(included) > 0 && !resp.GenerationFailed
	resp.Timings.TotalMS = msSince(totalStart)
	if completion != nil {
		s.logQueryWithUsage(input, cfg, resp, completion.PromptTokens, completion.CompletionTokens)
	} else {
		s.logQuery(input, cfg, resp)
	}
	return resp, nil
}

// filterByThreshold is the retriever's post-filter: drop everything below
// the similarity threshold, keep rank order, cap at maxResults.
func filterByThreshold(results []rag.SearchResult, threshold float64, maxResults int) []rag.SearchResult {
	var kept []rag.SearchResult
	for _, r := range results {
		if r.Similarity < threshold {
			continue
		}
		kept = append(kept, r)
		if len(kept) >= maxResults {
			break
		}
	}
	return kept
}

// keywordFallback is the degraded search path when embeddings or the vector
// store are unavailable: substring matching over stored chunk text, ranked
// by term frequency with chunk ID as the deterministic tie-break.
func (s *QueryService) keywordFallback(question string, docIDs []uint, maxResults int) []rag.SearchResult {
	terms := rag.QueryTerms(question)
	chunks, err := s.chunkRepo.SearchByTerms(terms, docIDs, keywordScanLimit)
	if err != nil {
		log.Printf("keyword fallback search failed: %v", err)
		return nil
	}
	if len(chunks) == 0 {
		return nil
	}

	type scored struct {
		chunk model.Chunk
		score int
	}
	ranked := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		if score := rag.KeywordScore(c.Content, terms); score > 0 {
			ranked = append(ranked, scored{chunk: c, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if maxResults > 0 && len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}

	docSet := make(map[uint]struct{})
	for _, r := range ranked {
		docSet[r.chunk.DocumentID] = struct{}{}
	}
	ids := make([]uint, 0, len(docSet))
	for id := range docSet {
		ids = append(ids, id)
	}
	titles, err := s.docRepo.TitlesByIDs(ids)
	if err != nil {
		log.Printf("resolve document titles failed: %v", err)
		titles = map[uint]string{}
	}

	results := make([]rag.SearchResult, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, rag.SearchResult{
			ChunkID:       r.chunk.ID,
			DocumentID:    r.chunk.DocumentID,
			DocumentTitle: titles[r.chunk.DocumentID],
			ChunkIndex:    r.chunk.ChunkIndex,
			StartChar:     r.chunk.StartChar,
			EndChar:       r.chunk.EndChar,
			Content:       r.chunk.Content,
			Similarity:    0,
		})
	}
	return results
}

func (s *QueryService) logQuery(input AskInput, cfg RAGConfig, resp *QueryResponse) {
	s.logQueryWithUsage(input, cfg, resp, 0, 0)
}

// logQueryWithUsage appends the query record. Logging is best-effort: a
// failed insert never fails the query itself.
func (s *QueryService) logQueryWithUsage(input AskInput, cfg RAGConfig, resp *QueryResponse, promptTokens, completionTokens int) {
	record := &model.QueryRecord{
		Owner:               input.Owner,
		QueryText:           strings.TrimSpace(input.Question),
		ResponseText:        resp.Answer,
		Grounded:            resp.Grounded,
		GenerationFailed:    resp.GenerationFailed,
		FallbackUsed:        resp.FallbackUsed,
		ChunksFound:         len(resp.Sources),
		SimilarityThreshold: cfg.SimilarityThreshold,
		LLMModel:            resp.Model,
		PromptTokens:        promptTokens,
		CompletionTokens:    completionTokens,
		EmbeddingTimeMS:     resp.Timings.EmbeddingMS,
		SearchTimeMS:        resp.Timings.SearchMS,
		LLMTimeMS:           resp.Timings.LLMMS,
		TotalTimeMS:         resp.Timings.TotalMS,
	}
	ids := make([]uint, 0, len(resp.Sources))
	for _, src := range resp.Sources {
		ids = append(ids, src.ChunkID)
	}
	record.SetSourceChunks(ids)

	if err := s.recordRepo.Create(record); err != nil {
		log.Printf("log query record failed: %v", err)
	}
}

// RecentRecords exposes the append-only query log for the analytics surface.
func (s *QueryService) RecentRecords(limit int) ([]model.QueryRecord, error) {
	return s.recordRepo.ListRecent(limit)
}

func msSince(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
