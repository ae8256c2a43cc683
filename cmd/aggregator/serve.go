package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/readme-aggregator/internal/scheduler"
	"github.com/jonathan/readme-aggregator/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP read API",
	Long: `Start an HTTP server that serves the aggregated companies and repositories.

The refresh pipeline runs once at start-up and then on every refresh interval.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "Port to listen on (defaults to PORT env var)")
	serveCmd.Flags().String("readme-url", "", "README to aggregate (defaults to README_URL env var)")
	serveCmd.Flags().String("db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	serveCmd.Flags().Int("concurrency", 0, "Maximum in-flight GraphQL requests")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	w, err := buildService(cfg, database, progressPrinter(cfg))
	if err != nil {
		return err
	}
	defer w.Close()

	stopScheduler := scheduler.Start(ctx, time.Duration(cfg.RefreshInterval), w.service.Populate)
	defer stopScheduler()

	srv, err := server.New(server.Config{
		Port:       cfg.Port,
		Aggregator: w.service,
		Snapshots:  database,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}
