// Package annotation writes review markers into copies of source documents.
// Markers are inline plain text, not native review comments.
package annotation

import (
	"strings"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

// Place returns, for each unit, the markers of every issue whose anchor
// occurs verbatim in that unit's text. Issue order is kept within a unit
// and an issue may land in several units.
func Place(units []string, issues []domain.Issue) [][]string {
	placed := make([][]string, len(units))
	for i, unit := range units {
		for _, issue := range issues {
			anchor := issue.Anchor()
			if anchor == "" {
				continue
			}
			if strings.Contains(unit, anchor) {
				placed[i] = append(placed[i], issue.Marker())
			}
		}
	}
	return placed
}

func countPlaced(placed [][]string) int {
	n := 0
	for _, markers := range placed {
		n += len(markers)
	}
	return n
}
