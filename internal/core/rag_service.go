package core

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// DefaultTopK is the number of chunks retrieved for context.
	DefaultTopK = 3
	// fallbackChunks is how many leading corpus chunks stand in for context
	// when no chunk matches the query at all.
	fallbackChunks = 2
)

// RAGService ranks corpus chunks against a query by keyword overlap. Scoring
// is literal substring containment of lowercased query words, so "lap"
// matches a chunk containing "laptop"; there is no stemming and no
// punctuation stripping.
type RAGService struct {
	store CorpusStore
	topK  int
}

func NewRAGService(store CorpusStore, topK int) *RAGService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &RAGService{store: store, topK: topK}
}

// Retrieve returns up to topK chunks from the namespace ranked most relevant
// first. topK <= 0 uses the service default. An empty corpus yields an empty
// result; a non-empty corpus always yields at least one chunk (see fallback
// below), so generation is never left without grounding once documents exist.
func (s *RAGService) Retrieve(query string, namespace Namespace, topK int) ([]string, error) {
	if topK <= 0 {
		topK = s.topK
	}

	corpus, err := s.store.LoadCorpus(string(namespace))
	if err != nil {
		return nil, fmt.Errorf("%w: loading corpus %s: %v", ErrStorage, namespace, err)
	}
	if len(corpus) == 0 {
		return nil, nil
	}

	// Query words keep their duplicates: a word the user repeats counts once
	// per repetition against every chunk that contains it.
	queryWords := strings.Fields(strings.ToLower(query))

	scored := make([]ScoredChunk, 0, len(corpus))
	for _, chunk := range corpus {
		lower := strings.ToLower(chunk)
		score := 0
		for _, word := range queryWords {
			if strings.Contains(lower, word) {
				score++
			}
		}
		if score > 0 {
			scored = append(scored, ScoredChunk{Text: chunk, Score: score})
		}
	}

	if len(scored) == 0 {
		// Degraded-context fallback: no chunk matched any query word, so hand
		// the generator the first chunks of the corpus rather than nothing.
		n := fallbackChunks
		if len(corpus) < n {
			n = len(corpus)
		}
		return append([]string(nil), corpus[:n]...), nil
	}

	// Stable sort: equal scores keep corpus order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	result := make([]string, 0, topK)
	for i := 0; i < topK; i++ {
		result = append(result, scored[i].Text)
	}
	return result, nil
}
