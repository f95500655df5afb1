package core

import (
	"context"
	"errors"
	"fmt"
	"log"

	openai "github.com/sashabaranov/go-openai"
	"msmehub.io/platform/internal/config"
)

const openaiModelName = "gpt-4o-mini"

// OpenAIService is the alternate generation backend, selected with
// LLM_PROVIDER=openai. OPENAI_BASE_URL may point it at any
// OpenAI-compatible endpoint.
type OpenAIService struct {
	client *openai.Client
}

func NewOpenAIService() *OpenAIService {
	cfg := openai.DefaultConfig(config.AppConfig.OpenAIAPIKey)
	if config.AppConfig.OpenAIBaseURL != "" {
		cfg.BaseURL = config.AppConfig.OpenAIBaseURL
	}

	return &OpenAIService{
		client: openai.NewClientWithConfig(cfg),
	}
}

// Close exists to satisfy Generator; the underlying HTTP client holds no
// connection state worth releasing.
func (s *OpenAIService) Close() {}

func (s *OpenAIService) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openaiModelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: openai did not answer within %s", ErrGatewayTimeout, generationTimeout)
		}
		return "", fmt.Errorf("%w: openai request failed: %v", ErrGatewayUnavailable, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		log.Println("OpenAI response had no usable choices.")
		return "I'm sorry, I couldn't generate a response at this time. Please try again.", nil
	}

	return resp.Choices[0].Message.Content, nil
}
