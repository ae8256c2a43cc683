package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/readme-aggregator/internal/observability"
)

var refreshForce bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run the refresh pipeline once and store a snapshot",
	Long: `Fetch the README, enrich every entry through the GitHub GraphQL API and persist a snapshot.

Each invocation starts with an empty in-memory cache, so a run always reaches the network.`,
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().String("readme-url", "", "README to aggregate (defaults to README_URL env var)")
	refreshCmd.Flags().String("db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	refreshCmd.Flags().Int("concurrency", 0, "Maximum in-flight GraphQL requests")
	refreshCmd.Flags().BoolVar(&refreshForce, "force", false, "Bypass the freshness check")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
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

	start := time.Now()
	refresh := w.service.Refresh
	if refreshForce {
		refresh = w.service.ForceRefresh
	}
	result, err := refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.PrintRefreshSummary(result, time.Since(start))
	if cfg.Verbose {
		printer.PrintParseResult(result.Parsed)
		printer.PrintCompanies(result.Companies)
		printer.PrintRepositories(result.Projects)
	}
	return nil
}
