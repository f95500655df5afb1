package core

import "strings"

const (
	DefaultChunkWindow  = 1000 // words per chunk
	DefaultChunkOverlap = 100  // words shared between consecutive chunks
)

// ChunkText splits text into overlapping windows of whitespace-delimited
// words, each window joined back with single spaces. The start index advances
// by window-overlap, so every chunk except the last holds exactly window
// words and consecutive chunks share overlap words. Whitespace-only input
// yields no chunks.
//
// window must be strictly greater than overlap and overlap must not be
// negative; otherwise the walk below would never advance.
func ChunkText(text string, window, overlap int) ([]string, error) {
	if overlap < 0 || window <= overlap {
		return nil, ErrInvalidChunkParams
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	var chunks []string
	step := window - overlap
	for start := 0; start < len(words); start += step {
		end := start + window
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.TrimSpace(strings.Join(words[start:end], " "))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}
