package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/readme-aggregator/internal/observability"
)

var (
	snapshotsLimit  int
	snapshotsOffset int
	snapshotsOut    string
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored snapshots",
	RunE:  runListSnapshots,
}

var snapshotsLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Write the most recent snapshot payload to stdout or a file",
	RunE:  runLatestSnapshot,
}

func init() {
	snapshotsCmd.PersistentFlags().String("db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	snapshotsCmd.Flags().IntVar(&snapshotsLimit, "limit", 20, "Maximum snapshots to list")
	snapshotsCmd.Flags().IntVar(&snapshotsOffset, "offset", 0, "Snapshots to skip")
	snapshotsLatestCmd.Flags().StringVarP(&snapshotsOut, "out", "o", "", "Write the payload to this file instead of stdout")

	snapshotsCmd.AddCommand(snapshotsLatestCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

func runListSnapshots(cmd *cobra.Command, _ []string) error {
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

	summaries, err := database.ListSnapshots(ctx, snapshotsLimit, snapshotsOffset)
	if err != nil {
		return err
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintSnapshots(summaries)
	return nil
}

func runLatestSnapshot(cmd *cobra.Command, _ []string) error {
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

	snapshot, err := database.GetLatestSnapshot(ctx)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return fmt.Errorf("no snapshots stored")
	}

	if snapshotsOut == "" {
		_, err = cmd.OutOrStdout().Write(append(snapshot.File, '\n'))
		return err
	}
	if err := os.WriteFile(snapshotsOut, snapshot.File, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", snapshotsOut, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %d bytes)\n", snapshotsOut, snapshot.Filename, len(snapshot.File))
	return nil
}
