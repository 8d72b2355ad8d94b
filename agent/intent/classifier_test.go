package intent

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/novabite/assistant/agent/contract"
)

type fakeChatModel struct {
	content string
	err     error
	calls   int
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.content, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func newTestClassifier(t *testing.T, fake *fakeChatModel) *Classifier {
	t.Helper()

	c, err := NewClassifier(context.Background(), fake, "history: {history} message: {message}")
	if err != nil {
		t.Fatalf("NewClassifier() error = %v", err)
	}
	return c
}

func TestClassifyModelLabels(t *testing.T) {
	t.Parallel()

	cases := []struct {
		label string
		want  contractx.Intent
	}{
		{"knowledge", contractx.IntentKnowledge},
		{"operations", contractx.IntentOperations},
		{"farewell", contractx.IntentFarewell},
		{"  Farewell  ", contractx.IntentFarewell},
	}

	for _, tc := range cases {
		fake := &fakeChatModel{content: tc.label}
		c := newTestClassifier(t, fake)

		got, err := c.Classify(context.Background(), "some message", "")
		if err != nil {
			t.Fatalf("Classify(%q) error = %v", tc.label, err)
		}
		if got != tc.want {
			t.Fatalf("Classify(%q) = %s, want %s", tc.label, got, tc.want)
		}
	}
}

func TestClassifyUnknownLabelFallsBackToKnowledge(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{content: "gibberish-label"}
	c := newTestClassifier(t, fake)

	got, err := c.Classify(context.Background(), "hmm", "")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got != contractx.IntentKnowledge {
		t.Fatalf("Classify() = %s, want knowledge fallback", got)
	}
}

func TestClassifyModelErrorStillRoutes(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{err: errors.New("upstream down")}
	c := newTestClassifier(t, fake)

	got, err := c.Classify(context.Background(), "hello there", "")
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
	if got != contractx.IntentKnowledge {
		t.Fatalf("degraded classification must route to knowledge, got %s", got)
	}
}

func TestClassifyRuleLayerSkipsModel(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{content: "knowledge"}
	c := newTestClassifier(t, fake)

	got, err := c.Classify(context.Background(), "what's today's special?", "")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got != contractx.IntentOperations {
		t.Fatalf("Classify() = %s, want operations via rule layer", got)
	}
	if fake.calls != 0 {
		t.Fatalf("rule-layer route must not call the model, calls = %d", fake.calls)
	}
}

func TestNewClassifierRequiresPrompt(t *testing.T) {
	t.Parallel()

	_, err := NewClassifier(context.Background(), &fakeChatModel{}, "  ")
	if !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
}
