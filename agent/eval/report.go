package eval

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const reportRule = "============================================================"

// RenderReport formats a run the way the results file has always looked.
func RenderReport(results []Result, at time.Time) string {
	summary := Summarize(results)

	var b strings.Builder
	b.WriteString(reportRule + "\n")
	b.WriteString("NovaBite RAG Evaluation — LLM-as-a-Judge\n")
	fmt.Fprintf(&b, "Date: %s\n", at.Format("2006-01-02 15:04:05"))
	b.WriteString(reportRule)

	for i, r := range results {
		fmt.Fprintf(&b, "\n\n[%d] Question:  %s\n", i+1, r.Question)
		fmt.Fprintf(&b, "    Answer:    %s\n", r.Answer)
		fmt.Fprintf(&b, "    Faithfulness: %d/5 — %s\n", r.Faithfulness, r.FaithfulnessReason)
		fmt.Fprintf(&b, "    Relevance:    %d/5 — %s", r.Relevance, r.RelevanceReason)
	}

	b.WriteString("\n\n" + reportRule + "\n")
	b.WriteString("SUMMARY\n")
	b.WriteString(reportRule + "\n")
	fmt.Fprintf(&b, "Average Faithfulness : %.1f / 5\n", summary.AvgFaithfulness)
	fmt.Fprintf(&b, "Average Relevance    : %.1f / 5\n", summary.AvgRelevance)
	fmt.Fprintf(&b, "Overall Score        : %.1f / 5\n", summary.Overall)
	b.WriteString(reportRule + "\n")
	return b.String()
}

// WriteReport saves the rendered run to path.
func WriteReport(path string, results []Result, at time.Time) error {
	if err := os.WriteFile(path, []byte(RenderReport(results, at)), 0o644); err != nil {
		return fmt.Errorf("write evaluation report: %w", err)
	}
	return nil
}
