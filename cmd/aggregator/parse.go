package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/readme-aggregator/internal/fetch"
	"github.com/jonathan/readme-aggregator/internal/observability"
	"github.com/jonathan/readme-aggregator/internal/parsing"
)

var parseJSON bool

var parseCmd = &cobra.Command{
	Use:   "parse <file|url>",
	Short: "Parse a README and print the extracted companies and projects",
	Long:  "Parse runs only the extraction and classification steps. Nothing is enriched or stored.",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	doc, err := readDocument(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	result, err := parsing.Parse(doc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if parseJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	observability.NewPrinter(out).PrintParseResult(result)
	return nil
}

// readDocument loads source from a local path or, for http(s) sources, over the network.
func readDocument(ctx context.Context, source string) (string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if ctx == nil {
			ctx = context.Background()
		}
		return fetch.NewFetcher(nil).Document(ctx, source)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", source, err)
	}
	return string(data), nil
}
