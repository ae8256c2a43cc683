package parsing

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Section headings expected in the README.
const (
	CompaniesHeading = "Companies"
	ProjectsHeading  = "Projects by main language"
)

// Sections holds the raw text of the two sections the pipeline reads.
type Sections struct {
	Companies string
	Projects  string
}

// LanguageGroup is one "###" block of the projects section.
type LanguageGroup struct {
	Language string
	Body     string
}

var markdownParser = goldmark.New().Parser()

// ExtractSections returns the bodies of the companies and projects sections.
// A section runs from the line after its "## <title>" heading to the next
// level-1 or level-2 heading, or the end of the document.
func ExtractSections(doc string) (*Sections, error) {
	lines := splitLines(doc)

	companies, ok := sectionBody(lines, CompaniesHeading)
	if !ok {
		return nil, &StructureError{Heading: "## " + CompaniesHeading}
	}
	projects, ok := sectionBody(lines, ProjectsHeading)
	if !ok {
		return nil, &StructureError{Heading: "## " + ProjectsHeading}
	}

	return &Sections{Companies: companies, Projects: projects}, nil
}

// SplitLanguageGroups segments the projects section by its "###" headings.
// Text before the first language heading is ignored.
func SplitLanguageGroups(projectsText string) []LanguageGroup {
	var groups []LanguageGroup
	var current *LanguageGroup
	var body []string

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.Join(body, "\n")
		groups = append(groups, *current)
	}

	for _, line := range splitLines(projectsText) {
		if label, ok := languageHeading(line); ok {
			flush()
			current = &LanguageGroup{Language: label}
			body = body[:0]
			continue
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush()

	return groups
}

// SplitListItems returns the inline markdown of every bullet item in the text,
// in source order. Items without a text block are skipped.
func SplitListItems(sectionText string) []string {
	source := []byte(sectionText)
	doc := markdownParser.Parse(text.NewReader(source))

	var items []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindListItem {
			return ast.WalkContinue, nil
		}
		if item := listItemText(n, source); item != "" {
			items = append(items, item)
		}
		return ast.WalkContinue, nil
	})

	return items
}

// listItemText joins the raw source lines of the item's first block.
func listItemText(item ast.Node, source []byte) string {
	block := item.FirstChild()
	if block == nil || block.Type() != ast.TypeBlock {
		return ""
	}

	lines := block.Lines()
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		sb.Write(segment.Value(source))
	}

	return strings.TrimSpace(strings.ReplaceAll(sb.String(), "\n", " "))
}

func sectionBody(lines []string, title string) (string, bool) {
	start := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "## "+title) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return "", false
	}

	end := len(lines)
	for i := start; i < len(lines); i++ {
		if isTopHeading(lines[i]) {
			end = i
			break
		}
	}

	return strings.Join(lines[start:end], "\n"), true
}

// isTopHeading reports whether the line is a "#" or "##" heading.
func isTopHeading(line string) bool {
	return strings.HasPrefix(line, "# ") || strings.HasPrefix(line, "## ")
}

func languageHeading(line string) (string, bool) {
	trimmed := strings.TrimPrefix(line, " ")
	if !strings.HasPrefix(trimmed, "###") || strings.HasPrefix(trimmed, "####") {
		return "", false
	}
	label := strings.TrimSpace(strings.TrimPrefix(trimmed, "###"))
	if label == "" {
		return "", false
	}
	return label, true
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}
