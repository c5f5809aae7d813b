package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

// Fused passages are reordered on three signals: fused rank, overlap on
// content terms (compliance vocabulary counts double) and regulation
// references shared with the query, e.g. "Article 6" or "Section 12(3)".
type rerankWeights struct {
	fused     float64
	terms     float64
	citations float64
}

var defaultRerankWeights = rerankWeights{fused: 0.5, terms: 0.3, citations: 0.2}

var citationRefPattern = regexp.MustCompile(`(?i)\b(article|art\.|section|sec\.|rule|regulation|reg\.|schedule|part|chapter)\s*(\d+(?:\.\d+)*(?:\([0-9a-z]+\))*)`)

var citationKindAliases = map[string]string{
	"art.": "article",
	"sec.": "section",
	"reg.": "regulation",
}

var complianceTerms = map[string]struct{}{
	"adgm": {}, "jurisdiction": {}, "court": {}, "courts": {}, "governing": {}, "law": {},
	"registered": {}, "office": {}, "beneficial": {}, "owner": {}, "ubo": {},
	"director": {}, "directors": {}, "shareholder": {}, "shareholders": {},
	"resolution": {}, "signatory": {}, "signature": {}, "memorandum": {},
	"incorporation": {}, "register": {}, "members": {}, "companies": {}, "regulations": {},
}

var rerankStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {}, "shall": {},
	"from": {}, "any": {}, "are": {}, "was": {}, "have": {}, "has": {}, "its": {},
	"not": {}, "but": {}, "all": {}, "such": {}, "may": {}, "into": {}, "upon": {},
	"been": {}, "each": {}, "which": {}, "their": {}, "there": {}, "other": {},
}

type queryProfile struct {
	terms       map[string]float64
	totalWeight float64
	refs        map[string]struct{}
}

func profileQuery(query string) queryProfile {
	qp := queryProfile{terms: make(map[string]float64), refs: citationRefs(query)}
	for _, term := range contentTerms(query) {
		if _, seen := qp.terms[term]; seen {
			continue
		}
		weight := 1.0
		if _, ok := complianceTerms[term]; ok {
			weight = 2.0
		}
		qp.terms[term] = weight
		qp.totalWeight += weight
	}
	return qp
}

func (qp queryProfile) termScore(text string) float64 {
	if qp.totalWeight == 0 {
		return 0
	}
	matched := 0.0
	seen := make(map[string]struct{})
	for _, term := range contentTerms(text) {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		matched += qp.terms[term]
	}
	return matched / qp.totalWeight
}

func (qp queryProfile) citationScore(text string) float64 {
	if len(qp.refs) == 0 {
		return 0
	}
	hits := 0
	for ref := range citationRefs(text) {
		if _, ok := qp.refs[ref]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(qp.refs))
}

// rerankPassages rescores the first topN fused passages; the tail keeps
// its fused order.
func rerankPassages(query string, fused []domain.Passage, topN int) []domain.Passage {
	if len(fused) == 0 {
		return fused
	}
	if topN <= 0 || topN > len(fused) {
		topN = len(fused)
	}

	head := make([]domain.Passage, topN)
	copy(head, fused[:topN])
	scale := minMaxScaler(head)
	qp := profileQuery(query)
	w := defaultRerankWeights

	for i := range head {
		head[i].Score = w.fused*scale(head[i].Score) +
			w.terms*qp.termScore(head[i].Text) +
			w.citations*qp.citationScore(head[i].Text)
	}
	sortPassages(head)

	return append(head, fused[topN:]...)
}

// minMaxScaler maps fused scores onto [0,1]; a flat head scores 1 when positive.
func minMaxScaler(passages []domain.Passage) func(float64) float64 {
	lo, hi := passages[0].Score, passages[0].Score
	for _, p := range passages[1:] {
		lo = min(lo, p.Score)
		hi = max(hi, p.Score)
	}
	span := hi - lo
	return func(v float64) float64 {
		switch {
		case span > 0:
			return (v - lo) / span
		case v > 0:
			return 1
		default:
			return 0
		}
	}
}

func contentTerms(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := rerankStopwords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

func citationRefs(s string) map[string]struct{} {
	refs := make(map[string]struct{})
	for _, m := range citationRefPattern.FindAllStringSubmatch(s, -1) {
		kind := strings.ToLower(m[1])
		if alias, ok := citationKindAliases[kind]; ok {
			kind = alias
		}
		refs[kind+" "+strings.ToLower(m[2])] = struct{}{}
	}
	return refs
}
