package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/skillforge/internal/catalog"
	"github.com/abhisek/skillforge/internal/config"
	"github.com/abhisek/skillforge/internal/events"
	"github.com/abhisek/skillforge/internal/generation"
	"github.com/abhisek/skillforge/internal/leaderboard"
	"github.com/abhisek/skillforge/internal/llm"
	"github.com/abhisek/skillforge/internal/logger"
	"github.com/abhisek/skillforge/internal/observability"
	"github.com/abhisek/skillforge/internal/reward"
	"github.com/abhisek/skillforge/internal/store"
)

// app holds the dependencies shared by the interactive commands.
type app struct {
	cfg     config.Config
	log     *logger.Logger
	store   *store.Store
	catalog *catalog.Catalog
	gateway *generation.Gateway
	ledger  reward.Ledger
	board   *leaderboard.Board

	closers []func() error
}

// loadConfig reads settings and applies the --db and --env-file flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var files []string
	if f, _ := cmd.Flags().GetString("env-file"); f != "" {
		files = append(files, f)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return config.Config{}, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if err := store.EnsureDir(p); err != nil {
			return config.Config{}, fmt.Errorf("resolve database path: %w", err)
		}
		cfg.DBPath = p
	}
	return cfg, nil
}

// openStore opens the database named by the flags and environment.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// newApp wires config, logging, tracing, storage, the provider and every
// configured reward sink. Callers must call Close.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	a := &app{cfg: cfg, log: log, catalog: catalog.Default()}
	a.closers = append(a.closers, func() error { log.Sync(); return nil })

	shutdown, err := observability.Init(ctx, log, observability.Config{
		ServiceName:  "skillforge",
		Version:      version,
		Stdout:       cfg.OTelStdout,
		OTLPEndpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.closers = append(a.closers, func() error { return shutdown(context.Background()) })

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.store = st
	a.closers = append(a.closers, st.Close)

	provider, err := llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("LLM provider not configured: %w", err)
	}
	a.gateway = generation.New(provider, a.catalog, generation.Config{Timeout: cfg.GenerationTimeout},
		generation.WithLogger(log))

	sinks := reward.Multi{st.Ledger()}
	if cfg.RedisURL != "" {
		client, err := leaderboard.Connect(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.board = leaderboard.New(client, "")
		a.closers = append(a.closers, client.Close)
		sinks = append(sinks, a.board)
	}
	if len(cfg.KafkaBrokers) > 0 {
		pub, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.RewardTopic, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, pub.Close)
		sinks = append(sinks, pub)
	}
	a.ledger = reward.NewDedup(sinks)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
