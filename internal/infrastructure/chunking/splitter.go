package chunking

import "strings"

// separators are tried in order when looking for a chunk boundary.
var separators = []string{"\n\n", "\n", ". ", " "}

type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 10
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Split cuts text into chunks of at most ChunkSize runes. A chunk ends on
// the coarsest separator found in its second half; the next chunk starts
// Overlap runes before that end.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	out := make([]string, 0, len(runes)/s.ChunkSize+1)
	for start := 0; start < len(runes); {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = boundary(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - s.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

func boundary(runes []rune, start, end int) int {
	window := string(runes[start:end])
	minCut := len(string(runes[start : start+(end-start)/2]))
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx >= minCut {
			return start + len([]rune(window[:idx+len(sep)]))
		}
	}
	return end
}
