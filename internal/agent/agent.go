// Package agent wires fetch, dedup, filtering, storage and delivery
// into one scheduled run.
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/arxwatch/arxwatch/internal/config"
	"github.com/arxwatch/arxwatch/internal/fetch"
	"github.com/arxwatch/arxwatch/internal/filter"
	"github.com/arxwatch/arxwatch/internal/llm"
	"github.com/arxwatch/arxwatch/internal/notify"
	"github.com/arxwatch/arxwatch/internal/paper"
	"github.com/arxwatch/arxwatch/internal/store"
)

// Fetcher supplies candidate paper batches.
type Fetcher interface {
	Fetch(ctx context.Context) ([]paper.Paper, error)
}

type Agent struct {
	cfg       *config.Config
	store     *store.Store
	fetcher   Fetcher
	gate      *filter.Gate
	pipeline  *filter.Pipeline
	notifiers []notify.Notifier
	logger    *zap.Logger
}

// New builds the full agent from configuration. Classifier selection
// happens once here; an invalid provider or missing credentials fails
// construction.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Agent, error) {
	st, err := store.Open(cfg.Storage.DatabasePath, cfg.Storage.MaxStorageSize, logger)
	if err != nil {
		return nil, fmt.Errorf("agent: open store: %w", err)
	}

	classifier, err := llm.NewClassifier(ctx, cfg.Filter)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("agent: build classifier: %w", err)
	}

	coarse := filter.NewCoarseFilter(cfg.Filter.Keywords, cfg.Filter.CoarseFilterThreshold)
	fine := filter.NewFineFilter(classifier, cfg.Filter.RelevanceThreshold,
		cfg.Filter.RequestTimeout(), logger)
	pipeline := filter.NewPipeline(coarse, fine, cfg.Filter.EnableCoarseFilter,
		cfg.Filter.MaxConcurrent, logger)

	var notifiers []notify.Notifier
	if cfg.Email.Enabled {
		notifiers = append(notifiers, notify.NewEmailNotifier(cfg.Email, logger))
	}
	if cfg.Webhook.Enabled {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.Webhook, logger))
	}

	return &Agent{
		cfg:       cfg,
		store:     st,
		fetcher:   fetch.NewArxivFetcher(cfg.Arxiv.Categories, cfg.Arxiv.MaxResults, logger),
		gate:      filter.NewGate(st, logger),
		pipeline:  pipeline,
		notifiers: notifiers,
		logger:    logger,
	}, nil
}

func (a *Agent) Close() error {
	return a.store.Close()
}

// Store exposes the paper store for the admin API.
func (a *Agent) Store() *store.Store { return a.store }

// SetFetcher swaps the feed source; used by tests.
func (a *Agent) SetFetcher(f Fetcher) { a.fetcher = f }

// RunOnce executes one full cycle: fetch, dedup, classify, persist,
// deliver. Storage failures abort the run; papers already stored by the
// time of the failure remain stored.
func (a *Agent) RunOnce(ctx context.Context) (filter.RunStats, error) {
	candidates, err := a.fetcher.Fetch(ctx)
	if err != nil {
		return filter.RunStats{}, err
	}

	fresh, err := a.gate.FilterNew(ctx, candidates)
	if err != nil {
		return filter.RunStats{}, err
	}

	decisions, stats := a.pipeline.Run(ctx, fresh)

	var relevant []paper.Paper
	for i := range decisions {
		d := &decisions[i]
		// Irrelevant papers are stored too, unsent, so the dedup gate
		// skips them next run.
		if err := a.store.AddOrUpdate(ctx, d.Paper, false); err != nil {
			return stats, err
		}
		if d.Passed {
			relevant = append(relevant, *d.Paper)
		}
	}

	if len(relevant) > 0 && len(a.notifiers) > 0 {
		a.deliver(ctx, relevant)
	}

	return stats, nil
}

// deliver pushes the digest through every configured channel and marks
// papers sent when at least one delivery succeeded. Delivery failures
// never abort the run.
func (a *Agent) deliver(ctx context.Context, relevant []paper.Paper) {
	delivered := false
	for _, n := range a.notifiers {
		if err := n.Send(ctx, relevant); err != nil {
			a.logger.Error("notification delivery failed", zap.Error(err))
			continue
		}
		delivered = true
	}
	if !delivered {
		return
	}

	for i := range relevant {
		if err := a.store.AddOrUpdate(ctx, &relevant[i], true); err != nil {
			a.logger.Error("failed to mark paper sent",
				zap.String("paper_id", relevant[i].ID),
				zap.Error(err))
			return
		}
	}
}
