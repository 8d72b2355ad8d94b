package contract

import "context"

// Classifier decides which responder handles a message.
type Classifier interface {
	Classify(ctx context.Context, message, transcript string) (Intent, error)
}

// KnowledgeResponder answers menu/policy questions grounded in retrieved
// context.
type KnowledgeResponder interface {
	Answer(ctx context.Context, question, transcript string) (string, error)
}

// OperationsResponder handles bookings, availability, specials, and loyalty
// via a tool-calling loop.
type OperationsResponder interface {
	Handle(ctx context.Context, message string, history []Turn) (string, error)
}

// Retriever fetches the k most relevant passages for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Passage, error)
	Size() int
}

// Ingestor populates a document index from its source.
type Ingestor interface {
	Ingest(ctx context.Context) error
}

// ToolGateway executes operation calls proposed by the model.
type ToolGateway interface {
	Execute(ctx context.Context, reqs []ToolRequest) ([]ToolResult, error)
}
