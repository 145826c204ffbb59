// Package app assembles the storage, feed and scoring components shared by
// the server and the terminal client.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ashureev/interview-labs/internal/analysis"
	"github.com/ashureev/interview-labs/internal/config"
	"github.com/ashureev/interview-labs/internal/feed"
	"github.com/ashureev/interview-labs/internal/questions"
	"github.com/ashureev/interview-labs/internal/record"
	"github.com/ashureev/interview-labs/internal/store"
)

// Components are the long-lived dependencies of a session service.
type Components struct {
	Repo      store.Repository
	Feed      feed.Publisher
	Records   *record.Manager
	Analyzer  *analysis.Requester
	Questions *questions.Bank

	// AnalysisProbe is set when the scorer exposes a health check.
	AnalysisProbe interface {
		Ping(ctx context.Context) error
	}

	closers []func()
}

// Build opens the store and wires the feed, the analysis transport and the
// question bank. Optional remote services that cannot be reached degrade to
// their local fallbacks.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Components{}

	repo, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DBPath, store.PostgresConfig{
		DSN:      cfg.Store.DSN,
		MaxConns: int32(cfg.Store.MaxConns),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	c.Repo = repo
	c.closers = append(c.closers, func() {
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close repository", "error", err)
		}
	})

	if err := repo.Ping(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	logger.Info("Database connected", "driver", cfg.Store.Driver)

	bank, err := questions.Load(cfg.Session.QuestionBankPath)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Questions = bank

	c.Feed = buildFeed(ctx, cfg, logger)
	c.closers = append(c.closers, func() { _ = c.Feed.Close() })

	c.Records = record.NewManager(repo, c.Feed, logger)

	scorer := buildScorer(cfg, logger)
	if g, ok := scorer.(*analysis.GrpcScorer); ok {
		c.AnalysisProbe = g
	}
	c.Analyzer = analysis.NewRequester(scorer,
		analysis.WithTimeout(cfg.Analysis.Timeout),
		analysis.WithLogger(logger),
	)
	c.closers = append(c.closers, c.Analyzer.Close)

	return c, nil
}

// Close releases resources in reverse order of acquisition.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func buildFeed(ctx context.Context, cfg *config.Config, logger *slog.Logger) feed.Publisher {
	if cfg.Redis.Addr == "" {
		logger.Info("Completed-session feed disabled (REDIS_ADDR not set)")
		return feed.NoopPublisher{}
	}
	pub, err := feed.NewRedisPublisher(ctx, feed.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Stream:   cfg.Redis.Stream,
		MaxLen:   int64(cfg.Redis.MaxLen),
	})
	if err != nil {
		logger.Warn("Failed to connect to Redis, completed-session feed disabled", "error", err)
		return feed.NoopPublisher{}
	}
	logger.Info("Completed-session feed enabled", "addr", cfg.Redis.Addr, "stream", cfg.Redis.Stream)
	return pub
}

// buildScorer returns nil when no remote scorer is configured or its address is invalid,
// which makes every analysis use the fallback heuristic.
func buildScorer(cfg *config.Config, logger *slog.Logger) analysis.Scorer {
	switch cfg.Analysis.Transport {
	case "grpc":
		if cfg.Analysis.GRPCAddr == "" {
			break
		}
		grpcCfg := analysis.DefaultGrpcClientConfig()
		grpcCfg.Address = cfg.Analysis.GRPCAddr
		grpcCfg.RequestTimeout = cfg.Analysis.Timeout
		scorer, err := analysis.NewGrpcScorer(grpcCfg, logger)
		if err != nil {
			logger.Warn("Invalid analysis service address, using fallback scoring", "address", cfg.Analysis.GRPCAddr, "error", err)
			return nil
		}
		logger.Info("Analysis service configured via gRPC", "address", cfg.Analysis.GRPCAddr)
		return scorer
	default:
		if cfg.Analysis.URL == "" {
			break
		}
		logger.Info("Analysis service configured via HTTP", "url", cfg.Analysis.URL)
		return analysis.NewHTTPScorer(cfg.Analysis.URL, cfg.Analysis.APIKey, cfg.Analysis.Timeout, logger)
	}
	logger.Info("Analysis service not configured, using fallback scoring")
	return nil
}
