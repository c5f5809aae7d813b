package usecase

import "github.com/kirillkom/compliance-reviewer/internal/core/domain"

type ChecklistEngine struct {
	definitions []domain.ChecklistDefinition
}

func NewChecklistEngine(definitions []domain.ChecklistDefinition) *ChecklistEngine {
	if definitions == nil {
		definitions = domain.DefaultChecklists()
	}
	return &ChecklistEngine{definitions: definitions}
}

// DetectProcess picks the definition covering the most distinct uploaded
// categories; the first definition wins ties.
func (e *ChecklistEngine) DetectProcess(categories []domain.Category) domain.ProcessDetectionResult {
	uploaded := make(map[domain.Category]struct{}, len(categories))
	for _, c := range categories {
		if c.Known() {
			uploaded[c] = struct{}{}
		}
	}

	result := domain.ProcessDetectionResult{
		DocumentsUploaded: len(categories),
		MissingDocuments:  []domain.Category{},
	}

	best := -1
	bestCount := -1
	for i, def := range e.definitions {
		count := 0
		for c := range uploaded {
			if def.Requires(c) {
				count++
			}
		}
		if count > bestCount {
			best = i
			bestCount = count
		}
	}
	if best < 0 {
		return result
	}

	def := e.definitions[best]
	result.Process = def.Process
	result.RequiredDocuments = len(def.Required)
	result.MatchedDocuments = bestCount
	for _, required := range def.Required {
		if _, ok := uploaded[required]; !ok {
			result.MissingDocuments = append(result.MissingDocuments, required)
		}
	}
	return result
}
