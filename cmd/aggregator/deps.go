package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/readme-aggregator/internal/cache"
	"github.com/jonathan/readme-aggregator/internal/config"
	"github.com/jonathan/readme-aggregator/internal/db"
	"github.com/jonathan/readme-aggregator/internal/fetch"
	"github.com/jonathan/readme-aggregator/internal/github"
	"github.com/jonathan/readme-aggregator/internal/pipeline"
	"github.com/jonathan/readme-aggregator/internal/search"
)

// loadConfig resolves file, env and defaults, then applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	if f := flags.Lookup("readme-url"); f != nil && f.Changed {
		cfg.ReadmeURL = f.Value.String()
	}
	if f := flags.Lookup("db-url"); f != nil && f.Changed {
		cfg.DatabaseURL = f.Value.String()
	}
	if f := flags.Lookup("port"); f != nil && f.Changed {
		port, _ := flags.GetInt("port")
		cfg.Port = port
	}
	if f := flags.Lookup("concurrency"); f != nil && f.Changed {
		n, _ := flags.GetInt("concurrency")
		cfg.EnrichConcurrency = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore connects to PostgreSQL and makes sure the snapshots table exists.
func openStore(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable (or --db-url) is required")
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

type wiring struct {
	service *pipeline.Service
	index   *search.Index
}

func (w *wiring) Close() {
	if w.index != nil {
		if err := w.index.Close(); err != nil {
			log.Printf("Error closing search index: %v", err)
		}
	}
}

// buildService assembles the refresh pipeline around store.
func buildService(cfg *config.Config, store pipeline.SnapshotStore, onProgress pipeline.ProgressCallback) (*wiring, error) {
	if cfg.Token == "" {
		log.Printf("[config] GITHUB_READ_ONLY is not set; GraphQL requests will be rejected")
	}

	index, err := search.New()
	if err != nil {
		return nil, err
	}

	client := github.NewClient(github.Options{
		Endpoint:    cfg.GraphQLURL,
		Token:       cfg.Token,
		Timeout:     time.Duration(cfg.EnrichTimeout),
		Concurrency: cfg.EnrichConcurrency,
	})

	service := pipeline.New(pipeline.Deps{
		Fetcher:  fetch.NewFetcher(nil),
		Enricher: client,
		Store:    store,
		Cache:    cache.New(),
		Index:    index,
	}, pipeline.Options{
		ReadmeURL:  cfg.ReadmeURL,
		MaxAge:     time.Duration(cfg.CacheMaxAge),
		OnProgress: onProgress,
	})

	return &wiring{service: service, index: index}, nil
}

// progressPrinter logs pipeline steps when verbose output is on.
func progressPrinter(cfg *config.Config) pipeline.ProgressCallback {
	if !cfg.Verbose {
		return nil
	}
	return func(e pipeline.ProgressEvent) {
		log.Printf("[%s] %s", e.Step, e.Message)
	}
}
