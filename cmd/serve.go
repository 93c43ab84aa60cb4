package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/edugen/internal/logging"
	"github.com/abhisek/edugen/internal/server"
	"github.com/abhisek/edugen/internal/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, true)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, os.Stdout, logger)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Warn("tracer shutdown failed", zap.Error(err))
			}
		}()

		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		gen, closeGen, err := newGenerator(ctx, cfg, st, logger, reg)
		if err != nil {
			return err
		}
		defer closeGen()

		masked := cfg.MaskSensitiveValues()
		logger.Info("configuration loaded",
			zap.String("provider", masked.LLM.Provider),
			zap.String("model", masked.LLM.ModelName()),
			zap.String("dedup", masked.Dedup.Backend),
			zap.Bool("tracing", masked.Tracing.Enabled),
		)

		srv := server.New(server.Deps{
			Documents: st.DocumentRepo(),
			Questions: st.QuestionRepo(),
			Generator: gen,
			Gatherer:  reg,
			Logger:    logger.Named("http"),
		}, server.Options{
			CORSOrigins: cfg.Server.CORSOrigins,
			ServiceName: cfg.Tracing.ServiceName,
		})
		return srv.Run(ctx, cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
