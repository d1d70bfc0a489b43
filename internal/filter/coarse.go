// Package filter implements the two-stage relevance decision: a cheap
// keyword pre-screen followed by an LLM-backed fine filter with
// degradation on provider failure.
package filter

import (
	"fmt"
	"strings"

	"github.com/arxwatch/arxwatch/internal/paper"
)

// CoarseFilter scores papers by keyword overlap. Deterministic, no I/O.
type CoarseFilter struct {
	keywords  []string
	threshold float64
}

func NewCoarseFilter(keywords []string, threshold float64) *CoarseFilter {
	return &CoarseFilter{keywords: keywords, threshold: threshold}
}

// Score matches keywords case-insensitively as substrings against
// title+summary and returns matched/total. An empty keyword set never
// passes: there is nothing to match against.
func (f *CoarseFilter) Score(p *paper.Paper) (passed bool, score float64, reason string) {
	if len(f.keywords) == 0 {
		return false, 0, "no keywords configured"
	}

	text := strings.ToLower(p.Title + " " + p.Summary)
	var matched []string
	for _, kw := range f.keywords {
		kw = strings.TrimSpace(strings.ToLower(kw))
		if kw != "" && strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}

	if len(matched) == 0 {
		return false, 0, "no keyword matches"
	}

	score = float64(len(matched)) / float64(len(f.keywords))
	if score > 1 {
		score = 1
	}
	reason = fmt.Sprintf("matched keywords: %s (score %.2f)", strings.Join(matched, ", "), score)
	return score >= f.threshold, score, reason
}
