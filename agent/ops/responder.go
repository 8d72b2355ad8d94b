package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/novabite/assistant/agent/contract"
)

// maxToolRounds bounds the model/tool exchange. A transaction needs at most
// a couple of rounds (check, then book); anything past this is the model
// looping.
const maxToolRounds = 4

// Responder drives the tool-calling loop for the operations path. The model
// proposes tool calls, the gateway executes them, and results feed back into
// the conversation until the model emits a plain text reply.
type Responder struct {
	toolModel einomodel.ToolCallingChatModel
	gateway   contractx.ToolGateway
	system    string
	allowed   map[string]struct{}
}

var _ contractx.OperationsResponder = (*Responder)(nil)

func NewResponder(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	gateway contractx.ToolGateway,
	systemPrompt string,
) (*Responder, error) {
	if gateway == nil {
		return nil, fmt.Errorf("%w: tool gateway is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: operations system prompt", contractx.ErrPromptMissing)
	}

	catalog := Catalog()
	toolModel, err := chatModel.WithTools(catalog)
	if err != nil {
		return nil, fmt.Errorf("bind operation tools: %w", err)
	}

	allowed := make(map[string]struct{}, len(catalog))
	for _, info := range catalog {
		allowed[info.Name] = struct{}{}
	}

	return &Responder{
		toolModel: toolModel,
		gateway:   gateway,
		system:    systemPrompt,
		allowed:   allowed,
	}, nil
}

// Handle runs the bounded tool loop for one customer message.
func (r *Responder) Handle(ctx context.Context, message string, history []contractx.Turn) (string, error) {
	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, schema.SystemMessage(r.system))
	for _, turn := range history {
		switch turn.Role {
		case contractx.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(turn.Content, nil))
		default:
			msgs = append(msgs, schema.UserMessage(turn.Content))
		}
	}
	msgs = append(msgs, schema.UserMessage(message))

	for round := 0; round < maxToolRounds; round++ {
		resp, err := r.toolModel.Generate(ctx, msgs)
		if err != nil {
			return "", fmt.Errorf("%w: operations generate: %v", contractx.ErrModelInvoke, err)
		}

		if len(resp.ToolCalls) == 0 {
			reply := strings.TrimSpace(resp.Content)
			if reply == "" {
				return "", fmt.Errorf("%w: operations reply is empty", contractx.ErrSchemaViolation)
			}
			return reply, nil
		}

		log.Debug().Int("round", round).Int("calls", len(resp.ToolCalls)).Msg("executing tool calls")

		reqs, err := r.toToolRequests(resp.ToolCalls)
		if err != nil {
			return "", err
		}
		results, err := r.gateway.Execute(ctx, reqs)
		if err != nil {
			return "", fmt.Errorf("execute tool calls: %w", err)
		}

		msgs = append(msgs, resp)
		for i, call := range resp.ToolCalls {
			content := results[i].Output
			if results[i].Error != "" {
				content = results[i].Error
			}
			msgs = append(msgs, schema.ToolMessage(content, call.ID))
		}
	}

	return "", fmt.Errorf("%w: tool loop exceeded %d rounds", contractx.ErrSchemaViolation, maxToolRounds)
}

func (r *Responder) toToolRequests(calls []schema.ToolCall) ([]contractx.ToolRequest, error) {
	reqs := make([]contractx.ToolRequest, 0, len(calls))
	for _, call := range calls {
		name := call.Function.Name
		if _, ok := r.allowed[name]; !ok {
			return nil, fmt.Errorf("%w: model requested unknown tool %q", contractx.ErrSchemaViolation, name)
		}

		args := map[string]any{}
		if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return nil, fmt.Errorf("%w: tool %s arguments: %v", contractx.ErrSchemaViolation, name, err)
			}
		}
		reqs = append(reqs, contractx.ToolRequest{Tool: name, Args: args})
	}
	return reqs, nil
}
