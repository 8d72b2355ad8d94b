package intent

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/novabite/assistant/agent/contract"
)

// Classifier routes a message to one of the closed intent set. A deterministic
// rule layer runs first; everything else goes through a single-token model
// call whose output is coerced to a known label.
type Classifier struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.Classifier = (*Classifier)(nil)

func NewClassifier(ctx context.Context, chatModel einomodel.BaseChatModel, routerPrompt string) (*Classifier, error) {
	if strings.TrimSpace(routerPrompt) == "" {
		return nil, fmt.Errorf("%w: router prompt", contractx.ErrPromptMissing)
	}

	template := einoprompt.FromMessages(
		schema.FString,
		schema.UserMessage(routerPrompt),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add router prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add router model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add router edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add router edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add router edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("intent.router_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile router graph: %w", err)
	}

	return &Classifier{runner: runner}, nil
}

// Classify maps (message, transcript) to an intent. The mapping is total:
// unrecognized or malformed model output coerces to IntentKnowledge rather
// than surfacing as an error.
func (c *Classifier) Classify(ctx context.Context, message, transcript string) (contractx.Intent, error) {
	if routed, ok := PreRoute(message, transcript); ok {
		log.Debug().Str("intent", string(routed)).Msg("intent decided by rule layer")
		return routed, nil
	}

	msg, err := c.runner.Invoke(ctx, map[string]any{
		"history": transcript,
		"message": message,
	})
	if err != nil {
		return contractx.IntentKnowledge, fmt.Errorf("%w: router invoke: %v", contractx.ErrModelInvoke, err)
	}

	label := strings.ToLower(strings.TrimSpace(msg.Content))
	routed := contractx.ParseIntent(label)
	log.Debug().Str("label", label).Str("intent", string(routed)).Msg("intent decided by model")
	return routed, nil
}
