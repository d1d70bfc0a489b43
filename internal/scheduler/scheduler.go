// Package scheduler triggers agent runs at a configured daily time.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs a job once per day at "HH:MM" local time.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// Schedule registers job to run daily at the given "HH:MM" time.
func (s *Scheduler) Schedule(at string, job func(ctx context.Context)) error {
	spec, err := dailySpec(at)
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc(spec, func() {
		s.logger.Info("scheduled run starting", zap.String("at", at))
		job(context.Background())
	})
	if err != nil {
		return fmt.Errorf("scheduler: add job: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling new runs and waits for an in-flight run to end.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// dailySpec converts "HH:MM" into a cron expression.
func dailySpec(at string) (string, error) {
	parts := strings.SplitN(at, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("scheduler: invalid time %q, want HH:MM", at)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("scheduler: invalid hour in %q", at)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("scheduler: invalid minute in %q", at)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
