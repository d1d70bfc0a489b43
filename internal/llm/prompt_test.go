package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arxwatch/arxwatch/internal/paper"
)

func TestParseVerdict_PlainJSON(t *testing.T) {
	v, err := parseVerdict(`{"relevant": true, "score": 0.85, "reason": "distributed training"}`)
	require.NoError(t, err)
	assert.True(t, v.Relevant)
	assert.InDelta(t, 0.85, v.Score, 1e-9)
	assert.Equal(t, "distributed training", v.Reason)
}

func TestParseVerdict_CodeFenceAndProse(t *testing.T) {
	response := "Sure, here is my assessment:\n```json\n" +
		`{"relevant": false, "score": 0.2, "reason": "survey paper"}` +
		"\n```\nLet me know if you need more."
	v, err := parseVerdict(response)
	require.NoError(t, err)
	assert.False(t, v.Relevant)
	assert.InDelta(t, 0.2, v.Score, 1e-9)
}

func TestParseVerdict_ClampsScore(t *testing.T) {
	v, err := parseVerdict(`{"relevant": true, "score": 1.4, "reason": "x"}`)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v.Score, 1e-9)

	v, err = parseVerdict(`{"relevant": false, "score": -0.2, "reason": "x"}`)
	require.NoError(t, err)
	assert.Zero(t, v.Score)
}

func TestParseVerdict_Malformed(t *testing.T) {
	_, err := parseVerdict("I cannot answer that.")
	assert.Error(t, err)

	_, err = parseVerdict(`{"relevant": "maybe"}`)
	assert.Error(t, err)
}

func TestBuildPrompt_TruncatesSummary(t *testing.T) {
	p := &paper.Paper{
		Title:   "Long one",
		Summary: strings.Repeat("a", maxSummaryChars+500),
	}
	prompt := buildPrompt(p, []string{"HPC"})
	assert.Less(t, len(prompt), maxSummaryChars+500)
	assert.Contains(t, prompt, "HPC")
	assert.Contains(t, prompt, "Long one")
}
