package filter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arxwatch/arxwatch/internal/llm"
	"github.com/arxwatch/arxwatch/internal/paper"
)

func newPipeline(mock *MockClassifier, keywords []string, coarseThreshold float64, enableCoarse bool) *Pipeline {
	coarse := NewCoarseFilter(keywords, coarseThreshold)
	fine := NewFineFilter(mock, 0.7, time.Minute, zap.NewNop())
	return NewPipeline(coarse, fine, enableCoarse, 4, zap.NewNop())
}

func TestPipeline_CoarseRejectSkipsProvider(t *testing.T) {
	mock := &MockClassifier{Verdict: llm.Verdict{Relevant: true, Score: 0.9, Reason: "relevant"}}
	pl := newPipeline(mock, []string{"HPC", "GPU"}, 0.5, true)

	papers := []paper.Paper{
		{ID: "pass", Title: "GPU scheduling", Summary: ""},
		{ID: "fail", Title: "Bird migration", Summary: "ornithology"},
	}
	decisions, stats := pl.Run(context.Background(), papers)

	require.Len(t, decisions, 2)
	assert.Equal(t, int64(1), mock.Calls.Load())
	assert.Equal(t, 1, stats.FineCalls)

	byID := map[string]Decision{}
	for _, d := range decisions {
		byID[d.Paper.ID] = d
	}
	assert.True(t, byID["pass"].Passed)
	assert.False(t, byID["fail"].Passed)
	assert.Zero(t, byID["fail"].Score)
	assert.Contains(t, byID["fail"].Reason, "pre-screen")

	// Every paper carries its recorded outcome.
	for _, p := range papers {
		require.NotNil(t, p.RelevanceScore)
		assert.NotEmpty(t, p.RelevanceReason)
	}
}

func TestPipeline_CoarseDisabledClassifiesEverything(t *testing.T) {
	mock := &MockClassifier{Verdict: llm.Verdict{Relevant: true, Score: 0.8}}
	pl := newPipeline(mock, []string{"HPC"}, 0.5, false)

	papers := []paper.Paper{
		{ID: "a", Title: "unrelated"},
		{ID: "b", Title: "also unrelated"},
	}
	_, stats := pl.Run(context.Background(), papers)

	assert.Equal(t, int64(2), mock.Calls.Load())
	assert.Equal(t, 2, stats.FineCalls)
	assert.Zero(t, stats.TokenSavings())
}

func TestPipeline_TokenSavingsRatio(t *testing.T) {
	mock := &MockClassifier{Verdict: llm.Verdict{Relevant: true, Score: 0.9}}
	pl := newPipeline(mock, []string{"gpu"}, 0.5, true)

	// 30 of 100 candidates mention the keyword and reach the provider.
	papers := make([]paper.Paper, 0, 100)
	for i := 0; i < 30; i++ {
		papers = append(papers, paper.Paper{ID: fmt.Sprintf("hit-%d", i), Title: "gpu work"})
	}
	for i := 0; i < 70; i++ {
		papers = append(papers, paper.Paper{ID: fmt.Sprintf("miss-%d", i), Title: "other"})
	}

	_, stats := pl.Run(context.Background(), papers)
	assert.Equal(t, 100, stats.Candidates)
	assert.Equal(t, 30, stats.FineCalls)
	assert.InDelta(t, 0.70, stats.TokenSavings(), 1e-9)
}

func TestPipeline_EmptyBatch(t *testing.T) {
	mock := &MockClassifier{}
	pl := newPipeline(mock, []string{"gpu"}, 0.5, true)

	decisions, stats := pl.Run(context.Background(), nil)
	assert.Empty(t, decisions)
	assert.Zero(t, stats.Candidates)
	assert.Zero(t, stats.TokenSavings())
}

func TestPipeline_DegradedCounted(t *testing.T) {
	mock := &MockClassifier{Err: &llm.ProviderError{Provider: "mock", Err: context.DeadlineExceeded}}
	pl := newPipeline(mock, []string{"gpu"}, 0.5, true)

	papers := []paper.Paper{{ID: "a", Title: "gpu work"}}
	decisions, stats := pl.Run(context.Background(), papers)

	require.Len(t, decisions, 1)
	assert.Equal(t, 1, stats.Degraded)
	// Coarse score 1.0 >= 0.7: degraded pass.
	assert.True(t, decisions[0].Passed)
}
