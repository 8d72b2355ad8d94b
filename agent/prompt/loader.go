package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/router.txt
	routerRaw string

	//go:embed template/rewrite.txt
	rewriteRaw string

	//go:embed template/answer.txt
	answerRaw string

	//go:embed template/operations.txt
	operationsRaw string

	//go:embed template/judge.txt
	judgeRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Router     string
	Rewrite    string
	Answer     string
	Operations string
	Judge      string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// Safe to call concurrently; the embed is compile-time and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Router:     strings.TrimSpace(routerRaw),
		Rewrite:    strings.TrimSpace(rewriteRaw),
		Answer:     strings.TrimSpace(answerRaw),
		Operations: strings.TrimSpace(operationsRaw),
		Judge:      strings.TrimSpace(judgeRaw),
	}
}
