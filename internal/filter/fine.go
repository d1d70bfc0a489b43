package filter

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arxwatch/arxwatch/internal/llm"
	"github.com/arxwatch/arxwatch/internal/paper"
)

// Decision is the final classification of one paper.
type Decision struct {
	Paper    *paper.Paper
	Passed   bool
	Score    float64
	Reason   string
	Degraded bool
}

// FineFilter asks the classifier provider for a verdict and applies the
// threshold policy. A paper passes only when the provider both flags it
// relevant and scores it at or above the threshold.
type FineFilter struct {
	classifier llm.Classifier
	threshold  float64
	timeout    time.Duration
	logger     *zap.Logger
}

func NewFineFilter(classifier llm.Classifier, threshold float64, timeout time.Duration, logger *zap.Logger) *FineFilter {
	return &FineFilter{
		classifier: classifier,
		threshold:  threshold,
		timeout:    timeout,
		logger:     logger,
	}
}

// Decide classifies p. On provider failure (including timeout) it
// degrades: the coarse score becomes the decision score and is compared
// against the same threshold, so downstream code sees an ordinary
// decision.
func (f *FineFilter) Decide(ctx context.Context, p *paper.Paper, coarseScore float64) Decision {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	verdict, err := f.classifier.Classify(ctx, p)
	if err != nil {
		reason := fmt.Sprintf("degraded to keyword score %.2f (%s unavailable: %v)",
			coarseScore, f.classifier.Name(), err)
		f.logger.Warn("classifier failed, falling back to coarse score",
			zap.String("paper_id", p.ID),
			zap.String("provider", f.classifier.Name()),
			zap.Error(err))
		return Decision{
			Paper:    p,
			Passed:   coarseScore >= f.threshold,
			Score:    coarseScore,
			Reason:   reason,
			Degraded: true,
		}
	}

	return Decision{
		Paper:  p,
		Passed: verdict.Relevant && verdict.Score >= f.threshold,
		Score:  verdict.Score,
		Reason: verdict.Reason,
	}
}
