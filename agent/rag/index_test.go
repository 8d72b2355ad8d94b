package rag

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/novabite/assistant/agent/contract"
)

// fakeEmbedder maps known texts to fixed vectors so similarity is
// deterministic.
type fakeEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec, ok := f.vectors[text]
		if !ok {
			vec = []float64{0, 0, 1}
		}
		out[i] = vec
	}
	return out, nil
}

func TestIndexAddAndSize(t *testing.T) {
	t.Parallel()

	ix, err := NewIndex(&fakeEmbedder{vectors: map[string][]float64{}})
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	if ix.Size() != 0 {
		t.Fatalf("new index size = %d, want 0", ix.Size())
	}

	if err := ix.Add(context.Background(), []string{"a", "b", "c"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if ix.Size() != 3 {
		t.Fatalf("index size = %d, want 3", ix.Size())
	}
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{vectors: map[string][]float64{
		"vegan dishes":  {1, 0, 0},
		"parking info":  {0, 1, 0},
		"opening hours": {0.2, 0.9, 0},
		"query":         {0, 1, 0.1},
	}}

	ix, err := NewIndex(emb)
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	if err := ix.Add(context.Background(), []string{"vegan dishes", "parking info", "opening hours"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	passages, err := ix.Retrieve(context.Background(), "query", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(passages) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(passages))
	}
	if passages[0].Content != "parking info" {
		t.Fatalf("top passage = %q, want %q", passages[0].Content, "parking info")
	}
	if passages[0].Score <= passages[1].Score {
		t.Fatalf("scores not descending: %v then %v", passages[0].Score, passages[1].Score)
	}
}

func TestRetrieveMMRPrefersDiversity(t *testing.T) {
	t.Parallel()

	// two near-duplicates plus one distinct doc; with lambda 0.5 the second
	// pick should be the distinct doc even though the duplicate scores higher
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"hours weekdays":  {1, 0, 0},
		"hours weekends":  {0.95, 0, 0.3},
		"catering detail": {0, 1, 0},
		"query":           {1, 0.1, 0},
	}}

	ix, err := NewIndex(emb)
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	if err := ix.Add(context.Background(), []string{"hours weekdays", "hours weekends", "catering detail"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	passages, err := ix.Retrieve(context.Background(), "query", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(passages) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(passages))
	}
	if passages[0].Content != "hours weekdays" {
		t.Fatalf("first pick = %q, want most relevant", passages[0].Content)
	}
	if passages[1].Content != "catering detail" {
		t.Fatalf("second pick = %q, want the diverse doc", passages[1].Content)
	}
}

func TestRetrieveEmptyIndex(t *testing.T) {
	t.Parallel()

	ix, err := NewIndex(&fakeEmbedder{vectors: map[string][]float64{}})
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}

	passages, err := ix.Retrieve(context.Background(), "anything", 4)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if passages != nil {
		t.Fatalf("expected nil from empty index, got %#v", passages)
	}
}

func TestRetrieveValidation(t *testing.T) {
	t.Parallel()

	ix, err := NewIndex(&fakeEmbedder{vectors: map[string][]float64{}})
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}

	if _, err := ix.Retrieve(context.Background(), "q", 0); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for k=0, got %v", err)
	}

	if _, err := NewIndex(nil); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for nil embedder, got %v", err)
	}
}

func TestRetrieveEmbedderFailure(t *testing.T) {
	t.Parallel()

	ix, err := NewIndex(&fakeEmbedder{err: errors.New("quota exceeded")})
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}

	if _, err := ix.Retrieve(context.Background(), "q", 4); err == nil {
		t.Fatal("expected embed error to propagate")
	}
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	if got := cosineSimilarity([]float64{1, 0}, []float64{1, 0}); got < 0.999 {
		t.Fatalf("identical vectors similarity = %v, want ~1", got)
	}
	if got := cosineSimilarity([]float64{1, 0}, []float64{0, 1}); got != 0 {
		t.Fatalf("orthogonal vectors similarity = %v, want 0", got)
	}
	if got := cosineSimilarity([]float64{1, 0}, []float64{0, 0}); got != 0 {
		t.Fatalf("zero vector similarity = %v, want 0", got)
	}
	if got := cosineSimilarity([]float64{1}, []float64{1, 0}); got != 0 {
		t.Fatalf("length mismatch similarity = %v, want 0", got)
	}
}
