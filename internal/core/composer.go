package core

import (
	"fmt"
	"strings"
)

// Role identifies which assistant persona answers a query. It decides the
// system instruction only; namespace access rules live in the API layer.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleShop  Role = "shop"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleShop:
		return RoleShop, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// RoleForNamespace maps a knowledge namespace to the persona that answers
// questions against it: the compliance expert for admin documents, the shop
// assistant for shop documents. Who may ask is decided at the API layer.
func RoleForNamespace(n Namespace) Role {
	if n == NamespaceAdmin {
		return RoleAdmin
	}
	return RoleShop
}

// GenerationRequest is everything a Generator needs for one answer: the
// persona instruction, the grounding context, and the question. It is built
// per query and never persisted.
type GenerationRequest struct {
	SystemInstruction string
	Context           string
	Query             string
}

// EmptyContextSentinel replaces an empty context so the model sees an
// explicit "there is nothing here" marker instead of a blank string it could
// mistake for a missing question.
const EmptyContextSentinel = "No shop info uploaded yet."

// The instructions direct the model to admit when the context lacks the
// answer. That sentence is the only guard against answers invented outside
// the retrieved context, so it must survive any rewording.
const (
	adminInstruction = "You are an MSME compliance and guidance expert. Use the provided context to answer questions " +
		"about MSME laws, schemes, and compliance requirements. If the context doesn't contain relevant information, say so clearly."

	shopInstruction = "You are a customer service assistant for a shop. Use the provided context to answer questions " +
		"about products, services, and shop policies. If the context doesn't contain relevant information, say so clearly."

	inventoryInstruction = "You are an inventory management assistant for MSME businesses. Provide precise, actionable " +
		"responses about inventory operations."

	csvAnalystInstruction = "You are a data analysis expert specializing in MSME inventory management systems."
)

// csvAnalysisLimit caps how much of an uploaded CSV is sent for schema
// analysis.
const csvAnalysisLimit = 1000

// Compose merges retrieved context chunks and the user query into a
// generation request under the role's fixed instruction. Chunks are joined
// with a blank line; an empty context becomes EmptyContextSentinel.
func Compose(query string, contextChunks []string, role Role) (GenerationRequest, error) {
	var instruction string
	switch role {
	case RoleAdmin:
		instruction = adminInstruction
	case RoleShop:
		instruction = shopInstruction
	default:
		return GenerationRequest{}, fmt.Errorf("compose: unknown role %q", role)
	}

	contextText := strings.TrimSpace(strings.Join(contextChunks, "\n\n"))
	if contextText == "" {
		contextText = EmptyContextSentinel
	}

	return GenerationRequest{
		SystemInstruction: instruction,
		Context:           contextText,
		Query:             query,
	}, nil
}

// ComposeInventory builds a request that answers an inventory question from
// the current table rendering. The table is ad hoc context; it never passes
// through the corpus store.
func ComposeInventory(query, inventorySummary string) GenerationRequest {
	return GenerationRequest{
		SystemInstruction: inventoryInstruction,
		Context:           inventorySummary,
		Query:             query,
	}
}

// ComposeCSVAnalysis builds a schema-review request for an imported CSV.
// Only the first csvAnalysisLimit characters are sent; cutting on a rune
// boundary keeps the request valid UTF-8 for non-ASCII data.
func ComposeCSVAnalysis(csvContent string) GenerationRequest {
	if runes := []rune(csvContent); len(runes) > csvAnalysisLimit {
		csvContent = string(runes[:csvAnalysisLimit]) + "..."
	}
	return GenerationRequest{
		SystemInstruction: csvAnalystInstruction,
		Context:           csvContent,
		Query: "Analyze this CSV data for an MSME inventory system and provide: " +
			"1. Schema validation 2. Data quality issues 3. Suggestions for improvement 4. Missing columns that might be useful.",
	}
}
