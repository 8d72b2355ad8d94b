package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
)

func (o *Orchestrator) compileChatGraph(
	ctx context.Context,
) (compose.Runnable[GraphInput, GraphOutput], error) {
	graph := compose.NewGraph[GraphInput, GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in GraphInput) (*graphState, error) {
			return o.validateRequest(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_history",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			return o.loadHistory(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_history: %w", err)
	}

	if err := graph.AddLambdaNode("classify_intent",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			return o.classify(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_intent: %w", err)
	}

	if err := graph.AddLambdaNode("dispatch_responder",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			return o.dispatch(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node dispatch_responder: %w", err)
	}

	if err := graph.AddLambdaNode("append_turns",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			return o.appendTurns(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node append_turns: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (GraphOutput, error) {
			return o.finalize(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_history"},
		{"load_history", "classify_intent"},
		{"classify_intent", "dispatch_responder"},
		{"dispatch_responder", "append_turns"},
		{"append_turns", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.chat"))
	if err != nil {
		return nil, fmt.Errorf("compile chat graph: %w", err)
	}
	return runner, nil
}
