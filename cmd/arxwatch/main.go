package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/arxwatch/arxwatch/internal/agent"
	"github.com/arxwatch/arxwatch/internal/config"
	"github.com/arxwatch/arxwatch/internal/scheduler"
	"github.com/arxwatch/arxwatch/internal/server"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to TOML config file")
	once := flag.Bool("once", false, "run one fetch/filter cycle and exit")
	stats := flag.Bool("stats", false, "print storage stats and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("configuration invalid", zap.Error(err))
	}

	ctx := context.Background()
	a, err := agent.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build agent", zap.Error(err))
	}
	defer a.Close()

	switch {
	case *stats:
		printStats(ctx, a)
	case *once:
		if _, err := a.RunOnce(ctx); err != nil {
			logger.Fatal("run failed", zap.Error(err))
		}
	default:
		serve(ctx, cfg, a, logger)
	}
}

func printStats(ctx context.Context, a *agent.Agent) {
	st, err := a.Store().Stats(ctx)
	if err != nil {
		log.Fatalf("failed to read stats: %v", err)
	}
	out, _ := json.MarshalIndent(st, "", "  ")
	fmt.Println(string(out))
}

// serve runs the scheduled daily cycle plus the admin HTTP API until
// interrupted. Cancellation between papers is safe; each paper's store
// write is atomic.
func serve(ctx context.Context, cfg *config.Config, a *agent.Agent, logger *zap.Logger) {
	if cfg.Schedule.Enabled {
		sched := scheduler.New(logger)
		err := sched.Schedule(cfg.Schedule.Time, func(ctx context.Context) {
			if _, err := a.RunOnce(ctx); err != nil {
				logger.Error("scheduled run failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Fatal("failed to schedule runs", zap.Error(err))
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := server.NewServer(a, logger)
	r := srv.SetupRouter()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("admin API listening", zap.String("addr", cfg.Server.Addr))
		errCh <- r.Run(cfg.Server.Addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Fatal("server exited", zap.Error(err))
	}
}
