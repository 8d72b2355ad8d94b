package rag

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/novabite/assistant/agent/contract"
)

// Embedder turns text into vectors. The index never calls the embedding
// endpoint directly so tests can substitute deterministic vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// OpenAIEmbedder calls the embeddings endpoint through the OpenAI SDK client
// (pointed at OpenRouter in production wiring).
type OpenAIEmbedder struct {
	client *openaisdk.Client
	model  string
}

var _ Embedder = (*OpenAIEmbedder)(nil)

func NewOpenAIEmbedder(client *openaisdk.Client, model string) (*OpenAIEmbedder, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: embeddings client is required", contractx.ErrValidation)
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, fmt.Errorf("%w: embedding model is required", contractx.ErrValidation)
	}
	return &OpenAIEmbedder{client: client, model: model}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model: openaisdk.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embed %d texts: %v", contractx.ErrModelInvoke, len(texts), err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", contractx.ErrSchemaViolation, len(resp.Data), len(texts))
	}

	vectors := make([][]float64, len(resp.Data))
	for _, d := range resp.Data {
		idx := int(d.Index)
		if idx < 0 || idx >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", contractx.ErrSchemaViolation, idx)
		}
		vectors[idx] = d.Embedding
	}
	return vectors, nil
}
