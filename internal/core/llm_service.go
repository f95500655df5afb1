package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"msmehub.io/platform/internal/config"
)

const (
	geminiModelName = "gemini-2.5-flash"

	// generationTimeout bounds a single backend call. The handler maps the
	// resulting ErrGatewayTimeout to 504 instead of hanging the request.
	generationTimeout = 45 * time.Second
)

// buildPrompt folds retrieved context into the user message. Requests with
// no context send the query alone, so the model is not told to trust an
// empty context block.
func buildPrompt(req GenerationRequest) string {
	if req.Context == "" {
		return req.Query
	}
	return fmt.Sprintf("Context: %s\n\nQuestion: %s", req.Context, req.Query)
}

// NewGenerator picks the generation backend from LLM_PROVIDER. Unknown
// values fall through to Gemini, matching the config default.
func NewGenerator() Generator {
	switch config.AppConfig.LLMProvider {
	case "openai":
		return NewOpenAIService()
	default:
		return NewGeminiService()
	}
}

type GeminiService struct {
	client *genai.Client
}

func NewGeminiService() *GeminiService {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create GenAI client: %v", err)
	}

	return &GeminiService{
		client: client,
	}
}

func (s *GeminiService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		} else {
			log.Println("GenAI client closed.")
		}
	}
}

// Generate answers a single composed request. Each call is independent; no
// conversation history is sent to the model.
func (s *GeminiService) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	model := s.client.GenerativeModel(geminiModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.SystemInstruction)},
	}

	prompt := buildPrompt(req)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: gemini did not answer within %s", ErrGatewayTimeout, generationTimeout)
		}
		return "", fmt.Errorf("%w: gemini request failed: %v", ErrGatewayUnavailable, err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		log.Println("Gemini response was empty or had no valid candidates/parts.")
		return "I'm sorry, I couldn't generate a response at this time. Please try again.", nil
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}

	if responseText.Len() == 0 {
		log.Println("Gemini response part was not text or was empty after processing.")
		return "I received an empty or non-text response, please try rephrasing your question.", nil
	}

	return responseText.String(), nil
}
