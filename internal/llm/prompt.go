package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arxwatch/arxwatch/internal/paper"
)

const maxSummaryChars = 2000

func buildPrompt(p *paper.Paper, keywords []string) string {
	summary := p.Summary
	if len(summary) > maxSummaryChars {
		summary = summary[:maxSummaryChars]
	}

	return fmt.Sprintf(`You are an expert in high performance computing and AI systems research.
Evaluate whether the following paper is relevant to topics such as: %s.

Title: %s
Abstract: %s

Reply with a JSON object only, no other text:
{"relevant": true/false, "score": 0.0-1.0, "reason": "one short sentence"}`,
		strings.Join(keywords, ", "), p.Title, summary)
}

// parseVerdict extracts the JSON object from a model response. Models
// wrap JSON in code fences or prose often enough that we scan for the
// outermost braces instead of unmarshalling the raw response.
func parseVerdict(response string) (Verdict, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return Verdict{}, fmt.Errorf("no JSON object in response: %q", truncate(response, 120))
	}

	var v Verdict
	if err := json.Unmarshal([]byte(response[start:end+1]), &v); err != nil {
		return Verdict{}, fmt.Errorf("malformed verdict JSON: %w", err)
	}

	if v.Score < 0 {
		v.Score = 0
	}
	if v.Score > 1 {
		v.Score = 1
	}
	return v, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
