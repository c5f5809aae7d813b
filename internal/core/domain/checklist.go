package domain

type ChecklistDefinition struct {
	Process  string     `json:"process" yaml:"process"`
	Required []Category `json:"required" yaml:"required"`
}

func (d ChecklistDefinition) Requires(c Category) bool {
	for _, r := range d.Required {
		if r == c {
			return true
		}
	}
	return false
}

type ProcessDetectionResult struct {
	Process           string     `json:"process"`
	DocumentsUploaded int        `json:"documents_uploaded"`
	RequiredDocuments int        `json:"required_documents"`
	MatchedDocuments  int        `json:"matched_documents"`
	MissingDocuments  []Category `json:"missing_documents"`
}

func (r ProcessDetectionResult) Complete() bool {
	return r.Process != "" && len(r.MissingDocuments) == 0
}

func DefaultChecklists() []ChecklistDefinition {
	return []ChecklistDefinition{
		{
			Process: "Company Incorporation",
			Required: []Category{
				CategoryArticlesOfAssociation,
				CategoryMemorandumOfAssociation,
				CategoryBoardResolution,
				CategoryUBODeclaration,
				CategoryRegisterOfMembers,
			},
		},
	}
}
