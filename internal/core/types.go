package core

import (
	"context"
	"fmt"
)

// Namespace partitions the document corpus. Each knowledge base is fully
// isolated from the others; nothing ever reads across namespaces.
type Namespace string

const (
	NamespaceAdmin Namespace = "admin" // MSME compliance and guidance documents
	NamespaceShop  Namespace = "shop"  // shop-specific product and policy documents
)

func ParseNamespace(s string) (Namespace, error) {
	switch Namespace(s) {
	case NamespaceAdmin:
		return NamespaceAdmin, nil
	case NamespaceShop:
		return NamespaceShop, nil
	}
	return "", fmt.Errorf("unknown namespace %q", s)
}

// ScoredChunk pairs a corpus chunk with its keyword-overlap score for one
// query. It lives only for the duration of a retrieval.
type ScoredChunk struct {
	Text  string
	Score int
}

// CorpusStore is the persistence boundary for namespace-scoped chunk
// collections. Implemented by store.SQLiteStore.
type CorpusStore interface {
	InitCorpus(namespace string) error
	AppendChunks(namespace string, chunks []string) error
	LoadCorpus(namespace string) ([]string, error)
}

// Generator sends a composed request to a text-generation backend and
// returns the answer text. Implemented by GeminiService and OpenAIService.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	Close()
}
