package usecase

import (
	"strings"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

// ClassificationRule matches lower-cased document text.
type ClassificationRule struct {
	Category domain.Category
	Match    func(lower string) bool
}

// DefaultClassificationRules is the keyword decision list. Categories share
// keywords, so the order is significant.
func DefaultClassificationRules() []ClassificationRule {
	return []ClassificationRule{
		{
			Category: domain.CategoryArticlesOfAssociation,
			Match:    allOf("article", "association"),
		},
		{
			Category: domain.CategoryMemorandumOfAssociation,
			Match:    anyOf("memorandum"),
		},
		{
			Category: domain.CategoryUBODeclaration,
			Match:    anyOf("ubo", "ultimate beneficial"),
		},
		{
			Category: domain.CategoryRegisterOfMembers,
			Match:    anyOf("register of members", "register of directors"),
		},
		{
			Category: domain.CategoryBoardResolution,
			Match: func(lower string) bool {
				return strings.Contains(lower, "resolution") && anyOf("board", "shareholder")(lower)
			},
		},
	}
}

type KeywordClassifier struct {
	rules []ClassificationRule
}

func NewKeywordClassifier(rules []ClassificationRule) *KeywordClassifier {
	if len(rules) == 0 {
		rules = DefaultClassificationRules()
	}
	return &KeywordClassifier{rules: rules}
}

// Classify returns the category of the first matching rule, or Unknown.
func (c *KeywordClassifier) Classify(text string) domain.Category {
	lower := strings.ToLower(text)
	for _, rule := range c.rules {
		if rule.Match(lower) {
			return rule.Category
		}
	}
	return domain.CategoryUnknown
}

func allOf(keywords ...string) func(string) bool {
	return func(lower string) bool {
		for _, k := range keywords {
			if !strings.Contains(lower, k) {
				return false
			}
		}
		return true
	}
}

func anyOf(keywords ...string) func(string) bool {
	return func(lower string) bool {
		for _, k := range keywords {
			if strings.Contains(lower, k) {
				return true
			}
		}
		return false
	}
}
