package domain

import "strings"

// Category is the closed set of checklist document types. Unknown is never
// a member of any checklist.
type Category string

const (
	CategoryArticlesOfAssociation   Category = "Articles of Association"
	CategoryMemorandumOfAssociation Category = "Memorandum of Association"
	CategoryUBODeclaration          Category = "UBO Declaration Form"
	CategoryRegisterOfMembers       Category = "Register of Members and Directors"
	CategoryBoardResolution         Category = "Board Resolution"
	CategoryUnknown                 Category = "Unknown"
)

var knownCategories = []Category{
	CategoryArticlesOfAssociation,
	CategoryMemorandumOfAssociation,
	CategoryUBODeclaration,
	CategoryRegisterOfMembers,
	CategoryBoardResolution,
}

func KnownCategories() []Category {
	out := make([]Category, len(knownCategories))
	copy(out, knownCategories)
	return out
}

// ParseCategory resolves a category name case-insensitively. Unrecognized
// names map to CategoryUnknown with ok=false.
func ParseCategory(name string) (Category, bool) {
	trimmed := strings.TrimSpace(name)
	for _, c := range knownCategories {
		if strings.EqualFold(string(c), trimmed) {
			return c, true
		}
	}
	if strings.EqualFold(string(CategoryUnknown), trimmed) {
		return CategoryUnknown, true
	}
	return CategoryUnknown, false
}

func (c Category) Known() bool {
	for _, k := range knownCategories {
		if c == k {
			return true
		}
	}
	return false
}

type Document struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Path     string   `json:"-"`
	Text     string   `json:"-"`
	Category Category `json:"category"`
	Error    string   `json:"error,omitempty"`
}

type IntakeReport struct {
	Documents []Document             `json:"documents"`
	Process   ProcessDetectionResult `json:"process"`
}
