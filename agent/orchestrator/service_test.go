package orchestrator

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/novabite/assistant/agent/contract"
	sessionx "github.com/novabite/assistant/agent/session"
)

type fakeClassifier struct {
	intent contractx.Intent
	err    error

	lastTranscript string
}

func (f *fakeClassifier) Classify(_ context.Context, _ string, transcript string) (contractx.Intent, error) {
	f.lastTranscript = transcript
	if f.err != nil {
		return contractx.IntentKnowledge, f.err
	}
	return f.intent, nil
}

type fakeKnowledge struct {
	reply string
	err   error
	calls int
}

func (f *fakeKnowledge) Answer(context.Context, string, string) (string, error) {
	f.calls++
	return f.reply, f.err
}

type fakeOperations struct {
	reply string
	err   error
	calls int
}

func (f *fakeOperations) Handle(context.Context, string, []contractx.Turn) (string, error) {
	f.calls++
	return f.reply, f.err
}

type fixture struct {
	store      *sessionx.MemoryStore
	classifier *fakeClassifier
	knowledge  *fakeKnowledge
	operations *fakeOperations
	orc        *Orchestrator
}

func newFixture(t *testing.T, intent contractx.Intent) *fixture {
	t.Helper()

	f := &fixture{
		store:      sessionx.NewMemoryStore(),
		classifier: &fakeClassifier{intent: intent},
		knowledge:  &fakeKnowledge{reply: "knowledge reply"},
		operations: &fakeOperations{reply: "operations reply"},
	}

	orc, err := New(context.Background(), f.store, f.classifier, f.knowledge, f.operations)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	f.orc = orc
	return f
}

func TestChatKnowledgeRoute(t *testing.T) {
	t.Parallel()

	f := newFixture(t, contractx.IntentKnowledge)

	reply, err := f.orc.Chat(context.Background(), "s1", "Do you have vegan options?")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply != "knowledge reply" {
		t.Fatalf("reply = %q", reply)
	}
	if f.knowledge.calls != 1 || f.operations.calls != 0 {
		t.Fatalf("wrong dispatch: knowledge=%d operations=%d", f.knowledge.calls, f.operations.calls)
	}
}

func TestChatOperationsRoute(t *testing.T) {
	t.Parallel()

	f := newFixture(t, contractx.IntentOperations)

	reply, err := f.orc.Chat(context.Background(), "s1", "book a table")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply != "operations reply" {
		t.Fatalf("reply = %q", reply)
	}
	if f.operations.calls != 1 || f.knowledge.calls != 0 {
		t.Fatalf("wrong dispatch: knowledge=%d operations=%d", f.knowledge.calls, f.operations.calls)
	}
}

func TestChatFarewellIsScripted(t *testing.T) {
	t.Parallel()

	f := newFixture(t, contractx.IntentFarewell)

	reply, err := f.orc.Chat(context.Background(), "s1", "bye!")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply != FarewellReply {
		t.Fatalf("reply = %q, want scripted farewell", reply)
	}
	if f.knowledge.calls != 0 || f.operations.calls != 0 {
		t.Fatal("farewell must not call a responder")
	}
}

func TestChatAppendsExactlyTwoTurns(t *testing.T) {
	t.Parallel()

	f := newFixture(t, contractx.IntentKnowledge)
	ctx := context.Background()

	if _, err := f.orc.Chat(ctx, "s1", "first question"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	turns, err := f.store.History(ctx, "s1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != contractx.RoleCustomer || turns[0].Content != "first question" {
		t.Fatalf("unexpected customer turn: %#v", turns[0])
	}
	if turns[1].Role != contractx.RoleAssistant || turns[1].Content != "knowledge reply" {
		t.Fatalf("unexpected assistant turn: %#v", turns[1])
	}
}

func TestChatFailedDispatchLeavesTranscriptUnchanged(t *testing.T) {
	t.Parallel()

	f := newFixture(t, contractx.IntentKnowledge)
	f.knowledge.err = errors.New("model unavailable")
	f.knowledge.reply = ""
	ctx := context.Background()

	if _, err := f.orc.Chat(ctx, "s1", "hello"); err == nil {
		t.Fatal("expected dispatch error")
	}

	turns, _ := f.store.History(ctx, "s1")
	if len(turns) != 0 {
		t.Fatalf("failed turn must not be recorded, got %d turns", len(turns))
	}
}

func TestChatClassifierSeesRenderedTranscript(t *testing.T) {
	t.Parallel()

	f := newFixture(t, contractx.IntentKnowledge)
	ctx := context.Background()

	if _, err := f.orc.Chat(ctx, "s1", "first"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if f.classifier.lastTranscript != "" {
		t.Fatalf("first turn transcript = %q, want empty", f.classifier.lastTranscript)
	}

	if _, err := f.orc.Chat(ctx, "s1", "second"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	want := "Customer: first\nAssistant: knowledge reply"
	if f.classifier.lastTranscript != want {
		t.Fatalf("transcript = %q, want %q", f.classifier.lastTranscript, want)
	}
}

func TestChatClassifierFailureFallsBackToKnowledge(t *testing.T) {
	t.Parallel()

	f := newFixture(t, contractx.IntentOperations)
	f.classifier.err = errors.New("router down")

	reply, err := f.orc.Chat(context.Background(), "s1", "hmm")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply != "knowledge reply" {
		t.Fatalf("degraded routing must hit knowledge, got %q", reply)
	}
}

func TestChatValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, contractx.IntentKnowledge)
	ctx := context.Background()

	if _, err := f.orc.Chat(ctx, "  ", "hello"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if _, err := f.orc.Chat(ctx, "s1", "   "); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestChatSessionsAreIsolated(t *testing.T) {
	t.Parallel()

	f := newFixture(t, contractx.IntentKnowledge)
	ctx := context.Background()

	if _, err := f.orc.Chat(ctx, "a", "hello from a"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if _, err := f.orc.Chat(ctx, "b", "hello from b"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	turnsA, _ := f.store.History(ctx, "a")
	turnsB, _ := f.store.History(ctx, "b")
	if len(turnsA) != 2 || len(turnsB) != 2 {
		t.Fatalf("session isolation broken: a=%d b=%d", len(turnsA), len(turnsB))
	}
	if turnsA[0].Content == turnsB[0].Content {
		t.Fatal("sessions share turns")
	}
}
