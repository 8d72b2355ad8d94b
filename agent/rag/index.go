package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	contractx "github.com/novabite/assistant/agent/contract"
)

const (
	// DefaultFetchK is the over-fetch pool size handed to the MMR re-ranker.
	DefaultFetchK = 10
	// DefaultMMRLambda balances relevance against diversity when re-ranking.
	DefaultMMRLambda = 0.5
)

type document struct {
	content string
	vector  []float64
}

// Index is an in-memory vector index: cosine similarity over embedded chunks
// with an MMR over-fetch/re-rank retrieval policy. Read-mostly; writes happen
// during ingestion only.
type Index struct {
	mu       sync.RWMutex
	docs     []document
	embedder Embedder

	fetchK int
	lambda float64
}

type IndexOption func(*Index)

func WithFetchK(fetchK int) IndexOption {
	return func(ix *Index) {
		if fetchK > 0 {
			ix.fetchK = fetchK
		}
	}
}

func WithMMRLambda(lambda float64) IndexOption {
	return func(ix *Index) {
		if lambda >= 0 && lambda <= 1 {
			ix.lambda = lambda
		}
	}
}

func NewIndex(embedder Embedder, opts ...IndexOption) (*Index, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", contractx.ErrValidation)
	}

	ix := &Index{
		embedder: embedder,
		fetchK:   DefaultFetchK,
		lambda:   DefaultMMRLambda,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ix)
		}
	}
	return ix, nil
}

var _ contractx.Retriever = (*Index)(nil)

// Add embeds the given chunks and appends them to the index.
func (ix *Index) Add(ctx context.Context, chunks []string) error {
	if len(chunks) == 0 {
		return nil
	}

	vectors, err := ix.embedder.Embed(ctx, chunks)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for i, chunk := range chunks {
		ix.docs = append(ix.docs, document{content: chunk, vector: vectors[i]})
	}
	return nil
}

// Size reports the number of indexed chunks.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Retrieve embeds the query, takes the fetchK most similar chunks, and
// re-ranks them with maximal marginal relevance before truncating to k.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]contractx.Passage, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", contractx.ErrValidation)
	}

	vectors, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", contractx.ErrSchemaViolation)
	}
	queryVec := vectors[0]

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.docs) == 0 {
		return nil, nil
	}

	type scored struct {
		doc   document
		score float64
	}

	pool := make([]scored, len(ix.docs))
	for i, doc := range ix.docs {
		pool[i] = scored{doc: doc, score: cosineSimilarity(queryVec, doc.vector)}
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].score > pool[j].score })

	fetchK := ix.fetchK
	if fetchK > len(pool) {
		fetchK = len(pool)
	}
	pool = pool[:fetchK]

	if k > len(pool) {
		k = len(pool)
	}

	// MMR: greedily pick the candidate maximizing
	// lambda*relevance - (1-lambda)*max similarity to already-selected.
	selected := make([]scored, 0, k)
	remaining := append([]scored(nil), pool...)
	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestVal := math.Inf(-1)
		for i, cand := range remaining {
			redundancy := 0.0
			for _, sel := range selected {
				if sim := cosineSimilarity(cand.doc.vector, sel.doc.vector); sim > redundancy {
					redundancy = sim
				}
			}
			val := ix.lambda*cand.score - (1-ix.lambda)*redundancy
			if val > bestVal {
				bestVal = val
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	passages := make([]contractx.Passage, len(selected))
	for i, s := range selected {
		passages[i] = contractx.Passage{Content: s.doc.content, Score: s.score}
	}
	return passages, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
