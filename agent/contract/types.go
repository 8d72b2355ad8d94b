package contract

import "time"

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleAssistant Role = "assistant"
)

// Turn is a single entry in a session transcript. Immutable once appended.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Intent is the routing category assigned to an incoming message.
// The set is closed; anything the classifier cannot recognize coerces to
// IntentKnowledge.
type Intent string

const (
	IntentKnowledge  Intent = "knowledge"
	IntentOperations Intent = "operations"
	IntentFarewell   Intent = "farewell"
)

// ParseIntent maps a raw model label to an Intent. The mapping is total:
// unknown labels fall back to IntentKnowledge, the least harmful route.
func ParseIntent(label string) Intent {
	switch Intent(label) {
	case IntentOperations:
		return IntentOperations
	case IntentFarewell:
		return IntentFarewell
	default:
		return IntentKnowledge
	}
}

// Passage is a retrieved fragment of the knowledge base.
type Passage struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// ToolRequest is one operation call proposed by the operations model.
type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult carries the rendered outcome of an executed operation.
// Output is user-facing text; Error is set instead when the call itself was
// malformed (unknown tool, bad arguments).
type ToolResult struct {
	Tool   string `json:"tool"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}
