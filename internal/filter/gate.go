package filter

import (
	"context"

	"go.uber.org/zap"

	"github.com/arxwatch/arxwatch/internal/paper"
)

// ExistsChecker is the slice of the paper store the gate needs.
type ExistsChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Gate drops already-stored candidates from a batch before they reach
// the pipeline. Checking presence refreshes the stored row's access
// time, so papers that keep appearing in the feed stay protected from
// eviction.
type Gate struct {
	store  ExistsChecker
	logger *zap.Logger
}

func NewGate(store ExistsChecker, logger *zap.Logger) *Gate {
	return &Gate{store: store, logger: logger}
}

// FilterNew returns the subset of papers not yet stored. A storage
// failure aborts the run.
func (g *Gate) FilterNew(ctx context.Context, papers []paper.Paper) ([]paper.Paper, error) {
	fresh := make([]paper.Paper, 0, len(papers))
	for i := range papers {
		seen, err := g.store.Exists(ctx, papers[i].ID)
		if err != nil {
			return nil, err
		}
		if !seen {
			fresh = append(fresh, papers[i])
		}
	}
	g.logger.Info("deduplicated candidate batch",
		zap.Int("candidates", len(papers)),
		zap.Int("new", len(fresh)))
	return fresh, nil
}
