// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/jonathan/readme-aggregator/internal/db"
	"github.com/jonathan/readme-aggregator/internal/parsing"
	"github.com/jonathan/readme-aggregator/internal/pipeline"
	"github.com/jonathan/readme-aggregator/internal/search"
	"github.com/jonathan/readme-aggregator/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintParseResult outputs what was extracted from the README.
func (p *Printer) PrintParseResult(result *parsing.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Companies: %d\n", len(result.Companies)))
	sb.WriteString(fmt.Sprintf("Projects:  %d\n", len(result.Projects)))
	sb.WriteString(fmt.Sprintf("Languages: %s\n", strings.Join(result.Languages, ", ")))

	if len(result.Projects) > 0 {
		sb.WriteString("\nProjects:\n")
		count := min(len(result.Projects), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", result.Projects[i].Name))
		}
		if len(result.Projects) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(result.Projects)-maxItemsToShow))
		}
	}

	if len(result.Companies) > 0 {
		sb.WriteString("\nCompanies:\n")
		count := min(len(result.Companies), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", result.Companies[i].Name))
		}
		if len(result.Companies) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(result.Companies)-maxItemsToShow))
		}
	}

	p.printBox("PARSED README", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRefreshSummary outputs the outcome of a refresh.
func (p *Printer) PrintRefreshSummary(result *pipeline.Result, elapsed time.Duration) {
	if result == nil {
		return
	}

	var sb strings.Builder
	source := "pipeline run"
	if result.FromCache {
		source = "in-memory cache"
	}
	sb.WriteString(fmt.Sprintf("Source:    %s\n", source))
	if result.Snapshot != nil {
		sb.WriteString(fmt.Sprintf("Snapshot:  %s\n", result.Snapshot.ID))
		sb.WriteString(fmt.Sprintf("Filename:  %s\n", result.Snapshot.Filename))
	}
	sb.WriteString(fmt.Sprintf("Companies: %d\n", len(result.Companies)))
	sb.WriteString(fmt.Sprintf("Projects:  %d\n", len(result.Projects)))
	sb.WriteString(fmt.Sprintf("Elapsed:   %v", elapsed.Round(time.Millisecond)))

	p.printBox("REFRESH SUMMARY", sb.String())
}

// PrintRepositories outputs the most starred repositories.
func (p *Printer) PrintRepositories(projects []types.EnrichedProject) {
	if len(projects) == 0 {
		return
	}

	sorted := slices.Clone(projects)
	slices.SortStableFunc(sorted, func(a, b types.EnrichedProject) int {
		return b.StargazerCount - a.StargazerCount
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total repositories: %d\n\n", len(projects)))

	count := min(len(sorted), maxItemsToShow)
	for i := 0; i < count; i++ {
		project := sorted[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, project.NameWithOwner))
		sb.WriteString(fmt.Sprintf("    Stars: %d  Issues: %d", project.StargazerCount, project.OpenIssues))
		if lang := project.PrimaryLanguage(); lang != "" {
			sb.WriteString(fmt.Sprintf("  Lang: %s", lang))
		}
		sb.WriteString("\n")
	}

	if len(sorted) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more repositories", len(sorted)-maxItemsToShow))
	}

	p.printBox("TOP REPOSITORIES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCompanies outputs enriched organizations with their star totals.
func (p *Printer) PrintCompanies(companies []types.EnrichedCompany) {
	if len(companies) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(companies), maxItemsToShow)
	for i := 0; i < count; i++ {
		company := companies[i]
		name := company.Name
		if name == "" {
			name = company.Login
		}
		sb.WriteString(fmt.Sprintf("• %s (%s)\n", name, company.Login))
		sb.WriteString(fmt.Sprintf("  Repos: %d  Stars: %d\n", len(company.Repositories), company.TotalStars()))
	}
	if len(companies) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more companies\n", len(companies)-maxItemsToShow))
	}

	p.printBox("COMPANIES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSearchHits outputs search results with their scores.
func (p *Printer) PrintSearchHits(query string, hits []search.Hit) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Query: %q\n", query))
	if len(hits) == 0 {
		sb.WriteString("\nNo matches")
	}
	for i, hit := range hits {
		sb.WriteString(fmt.Sprintf("\n#%d  %s  (%.2f)", i+1, hit.Project.NameWithOwner, hit.Score))
	}

	p.printBox("SEARCH RESULTS", sb.String())
}

// PrintSnapshots outputs a listing of stored snapshots.
func (p *Printer) PrintSnapshots(snapshots []db.SnapshotSummary) {
	if len(snapshots) == 0 {
		p.printBox("SNAPSHOTS", "No snapshots stored")
		return
	}

	var sb strings.Builder
	for _, s := range snapshots {
		sb.WriteString(fmt.Sprintf("%s  %s\n", s.CreatedAt.Format(time.RFC3339), s.Filename))
		sb.WriteString(fmt.Sprintf("  %s  %d bytes\n", s.ID, s.SizeBytes))
	}

	p.printBox("SNAPSHOTS", strings.TrimSuffix(sb.String(), "\n"))
}
