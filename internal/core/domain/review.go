package domain

import (
	"fmt"
	"strings"
	"time"
)

type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// NormalizeSeverity clamps free-text model severities onto the closed set.
// Absent or unrecognized values become Medium.
func NormalizeSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low", "minor", "info", "informational":
		return SeverityLow
	case "high", "critical", "severe", "major":
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

type Issue struct {
	Section     string   `json:"section"`
	Issue       string   `json:"issue"`
	Severity    Severity `json:"severity"`
	RawSeverity string   `json:"raw_severity,omitempty"`
	Suggestion  string   `json:"suggestion"`
	MatchText   string   `json:"match_text"`
}

// Anchor is the phrase searched in the source document. Empty means the
// issue is never placed.
func (i Issue) Anchor() string {
	return strings.TrimSpace(i.MatchText)
}

// Marker is the inline text appended after a matching unit.
func (i Issue) Marker() string {
	severity := i.Severity
	if severity == "" {
		severity = SeverityMedium
	}
	return fmt.Sprintf("<<REVIEW - %s>> %s Suggestion: %s", severity, i.Issue, i.Suggestion)
}

type ReviewResult struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"document_id"`
	DocumentName  string    `json:"document_name"`
	Category      Category  `json:"category,omitempty"`
	Issues        []Issue   `json:"issues_found"`
	IssueCount    int       `json:"num_red_flags"`
	Citations     []string  `json:"citations"`
	AnnotatedPath string    `json:"annotated_path,omitempty"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// EmptyReview is the substitute used when the model output cannot be parsed
// or the review step failed.
func EmptyReview(documentName string) *ReviewResult {
	return &ReviewResult{
		DocumentName: documentName,
		Issues:       []Issue{},
		Citations:    []string{},
	}
}

func (r *ReviewResult) Failed() bool {
	return r != nil && r.Error != ""
}

type ReviewJob struct {
	ReviewID     string    `json:"review_id"`
	DocumentID   string    `json:"document_id"`
	DocumentName string    `json:"document_name"`
	Path         string    `json:"path"`
	RequestedAt  time.Time `json:"requested_at"`
}

type Passage struct {
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

type Answer struct {
	Text    string    `json:"text"`
	Sources []Passage `json:"sources"`
}
