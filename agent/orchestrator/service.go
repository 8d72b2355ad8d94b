package orchestrator

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/novabite/assistant/agent/contract"
	sessionx "github.com/novabite/assistant/agent/session"
)

// FarewellReply is the scripted goodbye. The farewell route never calls a
// model.
const FarewellReply = "Thanks for visiting NovaBite! We hope to see you soon. Bon appétit!"

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = sessionx.ErrInvalidSession
)

// GraphInput is one customer request entering the pipeline.
type GraphInput struct {
	SessionID string
	Message   string
}

// GraphOutput carries the assistant reply out of the pipeline.
type GraphOutput struct {
	Reply string
}

// graphState threads a request through the pipeline nodes.
type graphState struct {
	sessionID  string
	message    string
	history    []contractx.Turn
	transcript string
	intent     contractx.Intent
	reply      string
}

// Orchestrator routes each customer message to the knowledge responder, the
// operations responder, or the scripted farewell, and records both turns in
// the session transcript.
type Orchestrator struct {
	store      sessionx.Store
	classifier contractx.Classifier
	knowledge  contractx.KnowledgeResponder
	operations contractx.OperationsResponder

	graphRunner compose.Runnable[GraphInput, GraphOutput]
}

func New(
	ctx context.Context,
	store sessionx.Store,
	classifier contractx.Classifier,
	knowledge contractx.KnowledgeResponder,
	operations contractx.OperationsResponder,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if knowledge == nil {
		return nil, errors.New("knowledge responder is required")
	}
	if operations == nil {
		return nil, errors.New("operations responder is required")
	}

	o := &Orchestrator{
		store:      store,
		classifier: classifier,
		knowledge:  knowledge,
		operations: operations,
	}

	runner, err := o.compileChatGraph(ctx)
	if err != nil {
		return nil, err
	}
	o.graphRunner = runner
	return o, nil
}

// Chat handles one customer message and returns the assistant reply. On
// success the transcript has grown by exactly two turns.
func (o *Orchestrator) Chat(ctx context.Context, sessionID, message string) (string, error) {
	out, err := o.graphRunner.Invoke(ctx, GraphInput{
		SessionID: sessionID,
		Message:   message,
	})
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

func (o *Orchestrator) validateRequest(in GraphInput) (*graphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, ErrInvalidMessage
	}
	return &graphState{sessionID: sessionID, message: message}, nil
}

func (o *Orchestrator) loadHistory(ctx context.Context, state *graphState) (*graphState, error) {
	history, err := o.store.History(ctx, state.sessionID)
	if err != nil {
		return nil, err
	}
	state.history = history
	state.transcript = sessionx.RenderTranscript(history)
	return state, nil
}

func (o *Orchestrator) classify(ctx context.Context, state *graphState) (*graphState, error) {
	intent, err := o.classifier.Classify(ctx, state.message, state.transcript)
	if err != nil {
		// classification failure already fell back to the knowledge route
		log.Warn().Err(err).Str("session_id", state.sessionID).Msg("intent classification degraded")
	}
	state.intent = intent

	log.Debug().
		Str("session_id", state.sessionID).
		Str("intent", string(intent)).
		Msg("message routed")
	return state, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, state *graphState) (*graphState, error) {
	var (
		reply string
		err   error
	)
	switch state.intent {
	case contractx.IntentFarewell:
		reply = FarewellReply
	case contractx.IntentOperations:
		reply, err = o.operations.Handle(ctx, state.message, state.history)
	default:
		reply, err = o.knowledge.Answer(ctx, state.message, state.transcript)
	}
	if err != nil {
		return nil, err
	}
	state.reply = reply
	return state, nil
}

func (o *Orchestrator) appendTurns(ctx context.Context, state *graphState) (*graphState, error) {
	if err := o.store.Append(ctx, state.sessionID, contractx.RoleCustomer, state.message); err != nil {
		return nil, err
	}
	if err := o.store.Append(ctx, state.sessionID, contractx.RoleAssistant, state.reply); err != nil {
		return nil, err
	}
	return state, nil
}

func (o *Orchestrator) finalize(state *graphState) (GraphOutput, error) {
	return GraphOutput{Reply: state.reply}, nil
}
