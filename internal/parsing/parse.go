package parsing

import (
	"github.com/jonathan/readme-aggregator/internal/types"
)

// Result holds every reference classified out of one README.
type Result struct {
	Companies []types.CompanyRef `json:"companies"`
	Projects  []types.ProjectRef `json:"projects"`
	Languages []string           `json:"languages"`
}

// Parse runs the extraction pipeline: sections, language groups, list items,
// classification, then a filter that drops unclassifiable items.
func Parse(doc string) (*Result, error) {
	sections, err := ExtractSections(doc)
	if err != nil {
		return nil, err
	}

	companyItems := SplitListItems(sections.Companies)
	if len(companyItems) == 0 {
		return nil, &ParseError{Message: "companies section has no list items"}
	}

	groups := SplitLanguageGroups(sections.Projects)
	if len(groups) == 0 {
		return nil, &ParseError{Message: "projects section has no language groups"}
	}

	result := &Result{}
	for _, item := range companyItems {
		if ref := ClassifyCompanyItem(item); ref != nil {
			result.Companies = append(result.Companies, *ref)
		}
	}

	for _, group := range groups {
		result.Languages = append(result.Languages, group.Language)
		for _, item := range SplitListItems(group.Body) {
			classified := ClassifyProjectItem(item)
			if classified.Empty() {
				continue
			}
			if classified.Project != nil {
				result.Projects = append(result.Projects, *classified.Project)
			}
			if classified.Company != nil {
				result.Companies = append(result.Companies, *classified.Company)
			}
		}
	}

	if len(result.Companies) == 0 {
		return nil, &ParseError{Message: "no companies classified"}
	}
	if len(result.Projects) == 0 {
		return nil, &ParseError{Message: "no projects classified"}
	}

	return result, nil
}
