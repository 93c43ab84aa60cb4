package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/edugen/internal/config"
	"github.com/abhisek/edugen/internal/content"
	"github.com/abhisek/edugen/internal/dedup"
	"github.com/abhisek/edugen/internal/llm"
	"github.com/abhisek/edugen/internal/questiongen"
	"github.com/abhisek/edugen/internal/store"
)

// openStore resolves the database path for cmd and opens it.
func openStore(cmd *cobra.Command, cfg *config.Config) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

// newGuard builds the in-flight guard selected by cfg. The returned close
// function releases the Redis client, if any.
func newGuard(cfg config.DedupConfig, logger *zap.Logger) (dedup.Guard, func() error) {
	if cfg.Backend != "redis" {
		return dedup.NewMemoryGuard(), func() error { return nil }
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	guard := dedup.NewRedisGuard(client, dedup.RedisOptions{
		Prefix: cfg.KeyPrefix,
		TTL:    cfg.TTL,
		Logger: logger,
	})
	return guard, client.Close
}

// newGenerator wires the generation pipeline on top of st. reg may be nil
// to skip metrics.
func newGenerator(ctx context.Context, cfg *config.Config, st *store.Store, logger *zap.Logger, reg prometheus.Registerer) (*questiongen.Service, func() error, error) {
	provider, err := llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create LLM provider: %w", err)
	}

	guard, closeGuard := newGuard(cfg.Dedup, logger)

	var metrics *questiongen.Metrics
	if reg != nil {
		metrics = questiongen.NewMetrics(reg)
	}

	gc := questiongen.DefaultConfig()
	gc.MaxTokens = cfg.Generation.MaxTokens
	gc.Temperature = cfg.Generation.Temperature
	gc.Timeout = cfg.Generation.Timeout
	gc.Structured = cfg.Generation.StructuredOutput
	gc.Placeholder = cfg.Generation.Placeholder
	if len(cfg.Generation.ReasoningModelPrefixes) > 0 {
		gc.ReasoningModelPrefixes = cfg.Generation.ReasoningModelPrefixes
	}

	svc := questiongen.New(questiongen.Deps{
		Provider:  provider,
		Questions: st.QuestionRepo(),
		Content: content.NewStoreProvider(st.DocumentRepo(), content.Options{
			Clean:    cfg.Generation.CleanContent,
			MaxChars: cfg.Generation.MaxContentChars,
		}),
		Guard:   guard,
		Metrics: metrics,
		Logger:  logger.Named("questiongen"),
	}, gc)

	return svc, closeGuard, nil
}
