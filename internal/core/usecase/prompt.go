package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

const (
	maxReviewDocumentChars = 4500
	contextSeparator       = "\n\n---\n\n"
)

// reviewResponseContract is the JSON shape ParseReviewOutput expects back.
const reviewResponseContract = `Return ONLY JSON with this structure:
{
  "document_name": "<exact name>",
  "issues_found": [
    {
      "section": "Clause number or location",
      "issue": "Description of the red flag",
      "severity": "Low/Medium/High",
      "suggestion": "Suggested fix or clause change",
      "match_text": "Exact phrase or keyword in the document that triggered the flag"
    }
  ],
  "citations": ["Relevant regulation or guideline reference"]
}`

func BuildReviewPrompt(documentText string, contextPassages []string) string {
	return fmt.Sprintf(`You are a corporate compliance checker. Use the regulatory reference information below to identify compliance issues.

Reference snippets:
%s

Document to review:
%s

%s
`, strings.Join(contextPassages, contextSeparator), truncateRunes(documentText, maxReviewDocumentChars), reviewResponseContract)
}

func BuildAnswerPrompt(question string, passages []domain.Passage) string {
	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		texts = append(texts, p.Text)
	}
	return fmt.Sprintf(`You are a regulatory expert assistant. Use the following reference information to answer the question concisely. Cite sources as needed.

Reference info:
%s

Question:
%s

Answer with relevant citations:
`, strings.Join(texts, contextSeparator), question)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
