package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/novabite/assistant/agent/contract"
)

const unparsedReason = "Could not parse judge response"

// Scores is the judge's verdict for one case. Both criteria run 1 to 5;
// zeros mean the judge output could not be parsed.
type Scores struct {
	Faithfulness       int    `json:"faithfulness"`
	Relevance          int    `json:"relevance"`
	FaithfulnessReason string `json:"faithfulness_reason"`
	RelevanceReason    string `json:"relevance_reason"`
}

// Judge scores an answer against its retrieved context with a model call.
type Judge struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

func NewJudge(ctx context.Context, chatModel einomodel.BaseChatModel, judgePrompt string) (*Judge, error) {
	if strings.TrimSpace(judgePrompt) == "" {
		return nil, fmt.Errorf("%w: judge prompt", contractx.ErrPromptMissing)
	}

	template := einoprompt.FromMessages(
		schema.FString,
		schema.UserMessage(judgePrompt),
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

	runner, err := graph.Compile(ctx, compose.WithGraphName("eval.judge_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile eval.judge_graph: %w", err)
	}
	return &Judge{runner: runner}, nil
}

// Score asks the judge model to grade one answer. A reply that is not valid
// JSON degrades to zero scores instead of failing the run.
func (j *Judge) Score(ctx context.Context, question, retrieved, answer string) (Scores, error) {
	msg, err := j.runner.Invoke(ctx, map[string]any{
		"question": question,
		"context":  retrieved,
		"answer":   answer,
	})
	if err != nil {
		return Scores{}, fmt.Errorf("%w: judge invoke: %v", contractx.ErrModelInvoke, err)
	}
	return ParseScores(msg.Content), nil
}

// ParseScores decodes the judge's JSON reply, tolerating a markdown code
// fence around it.
func ParseScores(raw string) Scores {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var scores Scores
	if err := json.Unmarshal([]byte(cleaned), &scores); err != nil {
		return Scores{
			FaithfulnessReason: unparsedReason,
			RelevanceReason:    unparsedReason,
		}
	}
	return scores
}
