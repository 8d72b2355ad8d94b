package knowledge

import (
	"context"
	"fmt"
	"strings"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/novabite/assistant/agent/contract"
)

const DefaultTopK = 4

// Responder answers menu/policy questions. It rewrites follow-up questions
// into standalone queries, retrieves supporting passages, and generates an
// answer constrained to the retrieved text.
type Responder struct {
	rewriteRunner compose.Runnable[map[string]any, *schema.Message]
	answerRunner  compose.Runnable[map[string]any, *schema.Message]

	retriever contractx.Retriever
	ingestor  contractx.Ingestor
	topK      int

	ingestMu sync.Mutex
}

var _ contractx.KnowledgeResponder = (*Responder)(nil)

type Prompts struct {
	Rewrite string
	Answer  string
}

func NewResponder(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	retriever contractx.Retriever,
	ingestor contractx.Ingestor,
	prompts Prompts,
) (*Responder, error) {
	if retriever == nil {
		return nil, fmt.Errorf("%w: retriever is required", contractx.ErrValidation)
	}
	if ingestor == nil {
		return nil, fmt.Errorf("%w: ingestor is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(prompts.Rewrite) == "" || strings.TrimSpace(prompts.Answer) == "" {
		return nil, fmt.Errorf("%w: rewrite and answer prompts", contractx.ErrPromptMissing)
	}

	rewriteRunner, err := compilePromptModelGraph(ctx, chatModel, prompts.Rewrite, "knowledge.rewrite_graph")
	if err != nil {
		return nil, err
	}
	answerRunner, err := compilePromptModelGraph(ctx, chatModel, prompts.Answer, "knowledge.answer_graph")
	if err != nil {
		return nil, err
	}

	return &Responder{
		rewriteRunner: rewriteRunner,
		answerRunner:  answerRunner,
		retriever:     retriever,
		ingestor:      ingestor,
		topK:          DefaultTopK,
	}, nil
}

// Answer runs the three-step knowledge path: rewrite, retrieve, generate.
func (r *Responder) Answer(ctx context.Context, question, transcript string) (string, error) {
	if err := r.ensureIngested(ctx); err != nil {
		return "", err
	}

	query := question
	if strings.TrimSpace(transcript) != "" {
		rewritten, err := r.rewriteQuery(ctx, question, transcript)
		if err != nil {
			return "", err
		}
		query = rewritten
	}

	passages, err := r.retriever.Retrieve(ctx, query, r.topK)
	if err != nil {
		return "", fmt.Errorf("retrieve passages: %w", err)
	}

	contents := make([]string, len(passages))
	for i, p := range passages {
		contents[i] = p.Content
	}

	msg, err := r.answerRunner.Invoke(ctx, map[string]any{
		"context":      strings.Join(contents, "\n\n"),
		"chat_history": transcript,
		"question":     question,
	})
	if err != nil {
		return "", fmt.Errorf("%w: grounded answer invoke: %v", contractx.ErrModelInvoke, err)
	}

	answer := strings.TrimSpace(msg.Content)
	if answer == "" {
		return "", fmt.Errorf("%w: grounded answer is empty", contractx.ErrSchemaViolation)
	}
	return answer, nil
}

// RetrieveContext exposes the retrieval step alone; the evaluation harness
// scores answers against exactly this context.
func (r *Responder) RetrieveContext(ctx context.Context, query string) (string, error) {
	if err := r.ensureIngested(ctx); err != nil {
		return "", err
	}

	passages, err := r.retriever.Retrieve(ctx, query, r.topK)
	if err != nil {
		return "", err
	}

	contents := make([]string, len(passages))
	for i, p := range passages {
		contents[i] = p.Content
	}
	return strings.Join(contents, "\n\n"), nil
}

func (r *Responder) rewriteQuery(ctx context.Context, question, transcript string) (string, error) {
	msg, err := r.rewriteRunner.Invoke(ctx, map[string]any{
		"chat_history": transcript,
		"question":     question,
	})
	if err != nil {
		return "", fmt.Errorf("%w: query rewrite invoke: %v", contractx.ErrModelInvoke, err)
	}

	rewritten := strings.TrimSpace(msg.Content)
	if rewritten == "" {
		return question, nil
	}
	return rewritten, nil
}

// ensureIngested runs the one-time ingestion pass when the index is empty.
// The mutex plus re-check keeps a second concurrent caller from ingesting
// twice.
func (r *Responder) ensureIngested(ctx context.Context) error {
	if r.retriever.Size() > 0 {
		return nil
	}

	r.ingestMu.Lock()
	defer r.ingestMu.Unlock()

	if r.retriever.Size() > 0 {
		return nil
	}

	log.Info().Msg("document index is empty, running ingestion")
	if err := r.ingestor.Ingest(ctx); err != nil {
		return fmt.Errorf("lazy ingestion: %w", err)
	}
	return nil
}

func compilePromptModelGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	promptText string,
	graphName string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.UserMessage(promptText),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", graphName, err)
	}
	return runner, nil
}
