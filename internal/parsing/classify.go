package parsing

import (
	"regexp"
	"strings"

	"github.com/jonathan/readme-aggregator/internal/types"
)

// KnownHost is the only code-hosting domain whose links are classified.
const KnownHost = "github.com"

var (
	companyItemRegex = regexp.MustCompile(`\[(.+)\]\((.+)\)`)
	projectItemRegex = regexp.MustCompile(`\[(.+)\]\((.+)\) - (.+)`)
	badgeRegex       = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
)

// Classification is the outcome of classifying a project list item.
// At most one of Project and Company is set; both nil means the item was dropped.
type Classification struct {
	Project *types.ProjectRef
	Company *types.CompanyRef
}

// Empty reports whether the item produced nothing.
func (c Classification) Empty() bool {
	return c.Project == nil && c.Company == nil
}

// ClassifyCompanyItem extracts an organization reference from a "[label](url)" item.
// Returns nil when the item does not link to the known host.
func ClassifyCompanyItem(item string) *types.CompanyRef {
	match := companyItemRegex.FindStringSubmatch(item)
	if len(match) < 3 {
		return nil
	}

	link := normalizeLink(match[2])
	if !onKnownHost(link) {
		return nil
	}

	name := stripHost(link)
	if name == "" {
		return nil
	}
	return &types.CompanyRef{Name: name}
}

// ClassifyProjectItem classifies a "[label](url) - description" item.
// Links with more than four path segments become projects; organization roots
// (exactly four segments) are reclassified as companies.
func ClassifyProjectItem(item string) Classification {
	match := projectItemRegex.FindStringSubmatch(item)
	if len(match) < 4 {
		return Classification{}
	}

	link := normalizeLink(match[2])
	if !onKnownHost(link) {
		return Classification{}
	}

	segments := strings.Split(link, "/")
	switch {
	case len(segments) > 4:
		owner, repo := segments[3], segments[4]
		if owner == "" || repo == "" {
			return Classification{}
		}
		return Classification{Project: &types.ProjectRef{
			Name:        owner + "/" + repo,
			Description: CleanDescription(match[3]),
		}}
	case len(segments) == 4 && segments[3] != "":
		return Classification{Company: &types.CompanyRef{Name: segments[3]}}
	default:
		return Classification{}
	}
}

// CleanDescription removes inline image and badge markup from a description.
func CleanDescription(description string) string {
	return strings.TrimSpace(badgeRegex.ReplaceAllString(description, ""))
}

func normalizeLink(link string) string {
	return strings.TrimRight(strings.TrimSpace(link), "/")
}

func onKnownHost(link string) bool {
	for _, segment := range strings.Split(link, "/") {
		if segment == KnownHost {
			return true
		}
	}
	return false
}

func stripHost(link string) string {
	for _, prefix := range []string{"https://" + KnownHost + "/", "http://" + KnownHost + "/"} {
		if strings.HasPrefix(link, prefix) {
			return strings.TrimPrefix(link, prefix)
		}
	}
	return ""
}
