package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const testReadme = "../../internal/parsing/testdata/readme.md"

// getBinaryPath returns the path to the aggregator binary for testing
func getBinaryPath(t *testing.T) string {
	binaryName := "aggregator"
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", binaryName)
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'go build -o bin/aggregator ./cmd/aggregator'", binaryPath)
	}

	return binaryPath
}

// executeCommand runs the root command in-process and returns what it wrote.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	parseJSON = false
	refreshForce = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}
