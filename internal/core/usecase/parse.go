package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

// ParseReviewOutput extracts the first '{' .. last '}' span of raw model
// output and decodes it leniently. A nil result always comes with an
// ErrParse-kinded error.
func ParseReviewOutput(raw string) (*domain.ReviewResult, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, domain.WrapError(domain.ErrParse, "parse review output", errors.New("no json object found"))
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, domain.WrapError(domain.ErrParse, "parse review output", err)
	}

	result := domain.EmptyReview(coerceString(payload["document_name"]))
	if items, ok := payload["issues_found"].([]any); ok {
		for _, item := range items {
			fields, ok := item.(map[string]any)
			if !ok {
				continue
			}
			result.Issues = append(result.Issues, parseIssue(fields))
		}
	}
	if items, ok := payload["citations"].([]any); ok {
		for _, item := range items {
			if s := coerceString(item); s != "" {
				result.Citations = append(result.Citations, s)
			}
		}
	}
	result.IssueCount = len(result.Issues)
	return result, nil
}

func parseIssue(fields map[string]any) domain.Issue {
	rawSeverity := coerceString(fields["severity"])
	return domain.Issue{
		Section:     coerceString(fields["section"]),
		Issue:       coerceString(fields["issue"]),
		Severity:    domain.NormalizeSeverity(rawSeverity),
		RawSeverity: rawSeverity,
		Suggestion:  coerceString(fields["suggestion"]),
		MatchText:   coerceString(fields["match_text"]),
	}
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
