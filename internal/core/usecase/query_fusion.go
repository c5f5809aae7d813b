package usecase

import (
	"sort"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

type fusedPassage struct {
	passage domain.Passage
	score   float64
}

// fusePassagesRRF merges ranked lists by reciprocal rank. Input scores are
// ignored; the output carries the fused score.
func fusePassagesRRF(semantic, lexical []domain.Passage, rrfK int) []domain.Passage {
	if rrfK <= 0 {
		rrfK = 60
	}

	acc := make(map[string]fusedPassage, len(semantic)+len(lexical))
	addList := func(passages []domain.Passage) {
		for rank, p := range passages {
			key := passageKey(p)
			candidate := acc[key]
			if candidate.passage.Source == "" {
				candidate.passage.Source = p.Source
			}
			candidate.passage.Text = p.Text
			candidate.score += 1.0 / float64(rrfK+rank+1)
			acc[key] = candidate
		}
	}

	addList(semantic)
	addList(lexical)

	out := make([]domain.Passage, 0, len(acc))
	for _, c := range acc {
		p := c.passage
		p.Score = c.score
		out = append(out, p)
	}
	sortPassages(out)
	return out
}

func trimPassages(passages []domain.Passage, limit int) []domain.Passage {
	if limit <= 0 || len(passages) <= limit {
		return passages
	}
	return passages[:limit]
}

func passageKey(p domain.Passage) string {
	return p.Source + "|" + p.Text
}

// sortPassages orders by score, then source and text for stable output.
func sortPassages(passages []domain.Passage) {
	sort.SliceStable(passages, func(i, j int) bool {
		if passages[i].Score != passages[j].Score {
			return passages[i].Score > passages[j].Score
		}
		if passages[i].Source != passages[j].Source {
			return passages[i].Source < passages[j].Source
		}
		return passages[i].Text < passages[j].Text
	})
}
