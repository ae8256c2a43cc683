package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/readme-aggregator/internal/mcpserver"
	"github.com/jonathan/readme-aggregator/internal/scheduler"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the aggregated data as MCP tools over stdio",
	RunE:  runMCP,
}

func init() {
	mcpCmd.Flags().String("readme-url", "", "README to aggregate (defaults to README_URL env var)")
	mcpCmd.Flags().String("db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	// stdout carries the protocol
	log.SetOutput(os.Stderr)

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

	return mcpserver.Run(ctx, w.service, version)
}
