package eval

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Answerer is the knowledge path under evaluation. The context the judge
// sees must be the same context the answer was grounded in, so both steps
// are exposed.
type Answerer interface {
	Answer(ctx context.Context, question, transcript string) (string, error)
	RetrieveContext(ctx context.Context, query string) (string, error)
}

// Result is one scored case.
type Result struct {
	Question string
	Answer   string
	Scores
}

// Summary aggregates a run. Overall is the mean of the two averages.
type Summary struct {
	AvgFaithfulness float64
	AvgRelevance    float64
	Overall         float64
}

// Harness runs every case through the knowledge path and scores the answers.
type Harness struct {
	answerer Answerer
	judge    *Judge
	cases    []string
}

func NewHarness(answerer Answerer, judge *Judge, cases []string) (*Harness, error) {
	if answerer == nil {
		return nil, fmt.Errorf("answerer is required")
	}
	if judge == nil {
		return nil, fmt.Errorf("judge is required")
	}
	if len(cases) == 0 {
		cases = DefaultCases
	}
	return &Harness{answerer: answerer, judge: judge, cases: cases}, nil
}

func (h *Harness) Run(ctx context.Context) ([]Result, Summary, error) {
	results := make([]Result, 0, len(h.cases))
	for i, question := range h.cases {
		log.Info().Int("case", i+1).Int("total", len(h.cases)).Str("question", question).Msg("evaluating")

		result, err := h.evaluate(ctx, question)
		if err != nil {
			return nil, Summary{}, fmt.Errorf("case %q: %w", question, err)
		}
		results = append(results, result)
	}
	return results, Summarize(results), nil
}

func (h *Harness) evaluate(ctx context.Context, question string) (Result, error) {
	retrieved, err := h.answerer.RetrieveContext(ctx, question)
	if err != nil {
		return Result{}, fmt.Errorf("retrieve context: %w", err)
	}

	answer, err := h.answerer.Answer(ctx, question, "")
	if err != nil {
		return Result{}, fmt.Errorf("answer: %w", err)
	}

	scores, err := h.judge.Score(ctx, question, retrieved, answer)
	if err != nil {
		return Result{}, err
	}

	return Result{Question: question, Answer: answer, Scores: scores}, nil
}

func Summarize(results []Result) Summary {
	if len(results) == 0 {
		return Summary{}
	}

	var faith, rel float64
	for _, r := range results {
		faith += float64(r.Faithfulness)
		rel += float64(r.Relevance)
	}
	faith /= float64(len(results))
	rel /= float64(len(results))

	return Summary{
		AvgFaithfulness: faith,
		AvgRelevance:    rel,
		Overall:         (faith + rel) / 2,
	}
}
