package rag

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/novabite/assistant/agent/contract"
)

// Ingestion loads a source document, splits it into overlapping chunks, and
// populates the index. Runs synchronously; callers decide when (typically a
// lazy empty-index guard).
type Ingestion struct {
	index *Index
	path  string

	chunkSize    int
	chunkOverlap int
}

var _ contractx.Ingestor = (*Ingestion)(nil)

type IngestionConfig struct {
	DataPath     string `envconfig:"DATA_PATH" split_words:"true" default:"data/menu.txt"`
	ChunkSize    int    `envconfig:"CHUNK_SIZE" split_words:"true" default:"500"`
	ChunkOverlap int    `envconfig:"CHUNK_OVERLAP" split_words:"true" default:"50"`
}

func NewIngestion(index *Index, cfg IngestionConfig) (*Ingestion, error) {
	if index == nil {
		return nil, fmt.Errorf("%w: index is required", contractx.ErrValidation)
	}
	path := strings.TrimSpace(cfg.DataPath)
	if path == "" {
		return nil, fmt.Errorf("%w: data path is required", contractx.ErrValidation)
	}

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	chunkOverlap := cfg.ChunkOverlap
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}

	return &Ingestion{
		index:        index,
		path:         path,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}, nil
}

func (ing *Ingestion) Ingest(ctx context.Context) error {
	raw, err := os.ReadFile(ing.path)
	if err != nil {
		return fmt.Errorf("read source document %s: %w", ing.path, err)
	}

	chunks := SplitText(string(raw), ing.chunkSize, ing.chunkOverlap)
	if len(chunks) == 0 {
		return fmt.Errorf("%w: source document %s is empty", contractx.ErrValidation, ing.path)
	}

	if err := ing.index.Add(ctx, chunks); err != nil {
		return fmt.Errorf("index %d chunks: %w", len(chunks), err)
	}

	log.Info().Str("path", ing.path).Int("chunks", len(chunks)).Msg("knowledge base ingested")
	return nil
}
