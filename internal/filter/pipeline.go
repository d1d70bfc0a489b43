package filter

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arxwatch/arxwatch/internal/paper"
)

// RunStats reports what one pipeline run did and how many provider
// calls the coarse stage saved.
type RunStats struct {
	RunID      string `json:"run_id"`
	Candidates int    `json:"candidates"`
	FineCalls  int    `json:"fine_calls"`
	Relevant   int    `json:"relevant"`
	Degraded   int    `json:"degraded"`
}

// TokenSavings is the fraction of candidates that never reached the
// provider: 1 - fine_calls/candidates.
func (s RunStats) TokenSavings() float64 {
	if s.Candidates == 0 {
		return 0
	}
	return 1 - float64(s.FineCalls)/float64(s.Candidates)
}

// Pipeline composes the coarse and fine filters into the two-stage
// decision. Fine-filter calls fan out concurrently up to maxConcurrent;
// classification order does not affect correctness.
type Pipeline struct {
	coarse        *CoarseFilter
	fine          *FineFilter
	enableCoarse  bool
	maxConcurrent int
	logger        *zap.Logger
}

func NewPipeline(coarse *CoarseFilter, fine *FineFilter, enableCoarse bool, maxConcurrent int, logger *zap.Logger) *Pipeline {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Pipeline{
		coarse:        coarse,
		fine:          fine,
		enableCoarse:  enableCoarse,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// Run classifies every candidate and returns one decision per paper;
// no candidate is dropped without a recorded outcome.
func (pl *Pipeline) Run(ctx context.Context, papers []paper.Paper) ([]Decision, RunStats) {
	stats := RunStats{
		RunID:      uuid.NewString(),
		Candidates: len(papers),
	}
	if len(papers) == 0 {
		return nil, stats
	}

	decisions := make([]Decision, len(papers))

	// Stage 1: keyword pre-screen. Failures are decided here and never
	// reach the provider.
	type fineJob struct {
		idx         int
		coarseScore float64
	}
	var jobs []fineJob
	for i := range papers {
		p := &papers[i]
		if !pl.enableCoarse {
			jobs = append(jobs, fineJob{idx: i})
			continue
		}

		passed, score, reason := pl.coarse.Score(p)
		if passed {
			jobs = append(jobs, fineJob{idx: i, coarseScore: score})
			continue
		}
		decisions[i] = Decision{
			Paper:  p,
			Passed: false,
			Score:  score,
			Reason: "keyword pre-screen failed: " + reason,
		}
		pl.logger.Debug("paper rejected by keyword pre-screen",
			zap.String("run_id", stats.RunID),
			zap.String("paper_id", p.ID),
			zap.Float64("score", score))
	}

	// Stage 2: provider classification, bounded fan-out. Decisions land
	// in distinct slice slots so no locking is needed; store writes
	// happen after the run, serialized by the caller.
	stats.FineCalls = len(jobs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pl.maxConcurrent)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			decisions[job.idx] = pl.fine.Decide(gctx, &papers[job.idx], job.coarseScore)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors; failures degrade

	for i := range decisions {
		d := &decisions[i]
		d.Paper.SetScore(d.Score, d.Reason)
		if d.Passed {
			stats.Relevant++
		}
		if d.Degraded {
			stats.Degraded++
		}
		pl.logger.Info("paper classified",
			zap.String("run_id", stats.RunID),
			zap.String("paper_id", d.Paper.ID),
			zap.Bool("relevant", d.Passed),
			zap.Float64("score", d.Score),
			zap.Bool("degraded", d.Degraded),
			zap.String("reason", d.Reason))
	}

	pl.logger.Info("filter run complete",
		zap.String("run_id", stats.RunID),
		zap.Int("candidates", stats.Candidates),
		zap.Int("fine_calls", stats.FineCalls),
		zap.Int("relevant", stats.Relevant),
		zap.Float64("token_savings", stats.TokenSavings()))

	return decisions, stats
}
