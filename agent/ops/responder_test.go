package ops

import (
	"context"
	"errors"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/novabite/assistant/agent/contract"
)

type fakeToolCallingModel struct {
	responses []*schema.Message
	err       error
	idx       int

	boundTools []*schema.ToolInfo
	inputs     [][]*schema.Message
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, input)
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	f.boundTools = tools
	return f, nil
}

func toolCallMessage(calls ...schema.ToolCall) *schema.Message {
	msg := schema.AssistantMessage("", nil)
	msg.ToolCalls = calls
	return msg
}

func newTestOpsResponder(t *testing.T, fake *fakeToolCallingModel) *Responder {
	t.Helper()

	gateway, err := NewGateway(NewMemoryStore(), func() time.Time {
		return time.Date(2025, time.December, 24, 12, 0, 0, 0, time.UTC)
	})
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}

	r, err := NewResponder(context.Background(), fake, gateway, "operations system prompt")
	if err != nil {
		t.Fatalf("NewResponder() error = %v", err)
	}
	return r
}

func TestHandlePlainReplyWithoutTools(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			schema.AssistantMessage("Which branch would you like?", nil),
		},
	}

	r := newTestOpsResponder(t, fake)

	reply, err := r.Handle(context.Background(), "I want to book a table", nil)
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if reply != "Which branch would you like?" {
		t.Fatalf("reply = %q", reply)
	}
	if len(fake.boundTools) != 4 {
		t.Fatalf("bound %d tools, want 4", len(fake.boundTools))
	}
}

func TestHandleExecutesToolAndFeedsResultBack(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			toolCallMessage(schema.ToolCall{
				ID: "call-1",
				Function: schema.FunctionCall{
					Name:      ToolCheckAvailability,
					Arguments: `{"date":"2025-12-25","time":"19:00","branch":"downtown"}`,
				},
			}),
			schema.AssistantMessage("There are 12 seats available, shall I book?", nil),
		},
	}

	r := newTestOpsResponder(t, fake)

	reply, err := r.Handle(context.Background(), "Any table for Christmas at 7pm downtown?", nil)
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if reply != "There are 12 seats available, shall I book?" {
		t.Fatalf("reply = %q", reply)
	}

	// second generate call must see the assistant tool-call message plus the
	// tool result
	if len(fake.inputs) != 2 {
		t.Fatalf("expected 2 generate calls, got %d", len(fake.inputs))
	}
	second := fake.inputs[1]
	last := second[len(second)-1]
	if last.Role != schema.Tool {
		t.Fatalf("last message role = %s, want tool", last.Role)
	}
	if last.ToolCallID != "call-1" {
		t.Fatalf("tool call id = %q, want call-1", last.ToolCallID)
	}
	want := "12 seat(s) available at NovaBite Downtown on 2025-12-25 at 19:00."
	if last.Content != want {
		t.Fatalf("tool message content = %q, want %q", last.Content, want)
	}
}

func TestHandleIncludesHistoryAndSystemPrompt(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			schema.AssistantMessage("Booked!", nil),
		},
	}

	r := newTestOpsResponder(t, fake)

	history := []contractx.Turn{
		{Role: contractx.RoleCustomer, Content: "any tables at marina?"},
		{Role: contractx.RoleAssistant, Content: "Yes, 14 seats at 20:00."},
	}
	if _, err := r.Handle(context.Background(), "book it for 2", history); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	input := fake.inputs[0]
	if len(input) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(input))
	}
	if input[0].Role != schema.System || input[0].Content != "operations system prompt" {
		t.Fatalf("first message is not the system prompt: %#v", input[0])
	}
	if input[1].Role != schema.User || input[2].Role != schema.Assistant {
		t.Fatalf("history roles wrong: %s then %s", input[1].Role, input[2].Role)
	}
	if input[3].Content != "book it for 2" {
		t.Fatalf("last message = %q", input[3].Content)
	}
}

func TestHandleUnknownToolRejected(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			toolCallMessage(schema.ToolCall{
				ID:       "call-1",
				Function: schema.FunctionCall{Name: "transfer_funds", Arguments: `{}`},
			}),
		},
	}

	r := newTestOpsResponder(t, fake)

	_, err := r.Handle(context.Background(), "hello", nil)
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestHandleMalformedArgumentsRejected(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			toolCallMessage(schema.ToolCall{
				ID:       "call-1",
				Function: schema.FunctionCall{Name: ToolGetSpecial, Arguments: `{broken`},
			}),
		},
	}

	r := newTestOpsResponder(t, fake)

	_, err := r.Handle(context.Background(), "specials?", nil)
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestHandleToolLoopIsBounded(t *testing.T) {
	t.Parallel()

	loop := toolCallMessage(schema.ToolCall{
		ID:       "call-x",
		Function: schema.FunctionCall{Name: ToolGetSpecial, Arguments: `{"branch":"downtown"}`},
	})
	fake := &fakeToolCallingModel{
		responses: []*schema.Message{loop, loop, loop, loop, loop, loop},
	}

	r := newTestOpsResponder(t, fake)

	_, err := r.Handle(context.Background(), "specials?", nil)
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected bounded-loop error, got %v", err)
	}
	if len(fake.inputs) != maxToolRounds {
		t.Fatalf("model called %d times, want %d", len(fake.inputs), maxToolRounds)
	}
}

func TestHandleModelFailure(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{err: errors.New("upstream down")}
	r := newTestOpsResponder(t, fake)

	_, err := r.Handle(context.Background(), "hello", nil)
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestNewResponderValidation(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{}
	gateway, _ := NewGateway(NewMemoryStore(), nil)

	if _, err := NewResponder(context.Background(), fake, nil, "prompt"); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for nil gateway, got %v", err)
	}
	if _, err := NewResponder(context.Background(), fake, gateway, "  "); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
}
