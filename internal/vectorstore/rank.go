package vectorstore

import (
	"math"
	"sort"

	"docuquery/internal/model"
	"docuquery/internal/rag"
)

// CosineSimilarity is 1 - cosine distance: in [-1, 1] generally, [0, 1] in
// practice for normalized text embeddings. Zero-length or mismatched vectors
// score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankCandidates scores rows against the query vector and returns the topK
// best as flat results. rows must already be in insertion order; the stable
// sort preserves that order between equal scores.
func rankCandidates(query []float32, rows []model.ChunkVector, topK int) []rag.SearchResult {
	if len(rows) == 0 {
		return nil
	}

	type scored struct {
		row model.ChunkVector
		sim float64
	}
	candidates := make([]scored, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, scored{row: row, sim: CosineSimilarity(query, row.EmbeddingVector())})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].sim > candidates[j].sim
	})

	if topK > len(candidates) {
		topK = len(candidates)
	}
	results := make([]rag.SearchResult, 0, topK)
	for _, c := range candidates[:topK] {
		results = append(results, rag.SearchResult{
			ChunkID:       c.row.ChunkID,
			DocumentID:    c.row.DocumentID,
			DocumentTitle: c.row.DocumentTitle,
			ChunkIndex:    c.row.ChunkIndex,
			StartChar:     c.row.StartChar,
			EndChar:       c.row.EndChar,
			Content:       c.row.Content,
			Similarity:    c.sim,
		})
	}
	return results
}
