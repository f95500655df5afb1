package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"msmehub.io/platform/internal/config"
)

// newOpenAIStub points an OpenAIService at a local stand-in for an
// OpenAI-compatible endpoint.
func newOpenAIStub(t *testing.T, handler http.HandlerFunc) *OpenAIService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	old := config.AppConfig
	t.Cleanup(func() { config.AppConfig = old })
	config.AppConfig.OpenAIAPIKey = "test-key"
	config.AppConfig.OpenAIBaseURL = server.URL + "/v1"

	return NewOpenAIService()
}

type capturedChatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestOpenAIService_Generate_ReturnsContent(t *testing.T) {
	var captured capturedChatRequest
	svc := newOpenAIStub(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decoding chat request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"stubbed answer"}}]}`))
	})

	answer, err := svc.Generate(context.Background(), GenerationRequest{
		SystemInstruction: "You are a test assistant.",
		Context:           "some context",
		Query:             "some question",
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if answer != "stubbed answer" {
		t.Errorf("unexpected answer: %q", answer)
	}

	if captured.Model != openaiModelName {
		t.Errorf("model = %q, want %q", captured.Model, openaiModelName)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" || captured.Messages[0].Content != "You are a test assistant." {
		t.Errorf("unexpected system message: %+v", captured.Messages[0])
	}
	if captured.Messages[1].Content != "Context: some context\n\nQuestion: some question" {
		t.Errorf("unexpected prompt: %q", captured.Messages[1].Content)
	}
}

func TestOpenAIService_Generate_NoContextSendsQueryAlone(t *testing.T) {
	var captured capturedChatRequest
	svc := newOpenAIStub(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decoding chat request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-3","object":"chat.completion","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ok"}}]}`))
	})

	_, err := svc.Generate(context.Background(), GenerationRequest{
		SystemInstruction: "You are a test assistant.",
		Query:             "just a question",
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(captured.Messages))
	}
	if captured.Messages[1].Content != "just a question" {
		t.Errorf("prompt = %q, want the bare query with no context block", captured.Messages[1].Content)
	}
}

func TestOpenAIService_Generate_ExpiredDeadlineIsTimeout(t *testing.T) {
	svc := newOpenAIStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := svc.Generate(ctx, GenerationRequest{Query: "q"})
	if !errors.Is(err, ErrGatewayTimeout) {
		t.Fatalf("expected ErrGatewayTimeout, got %v", err)
	}
}

func TestOpenAIService_Generate_ServerErrorIsUnavailable(t *testing.T) {
	svc := newOpenAIStub(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	})

	_, err := svc.Generate(context.Background(), GenerationRequest{Query: "q"})
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestOpenAIService_Generate_EmptyChoicesGetApology(t *testing.T) {
	svc := newOpenAIStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-2","object":"chat.completion","choices":[]}`))
	})

	answer, err := svc.Generate(context.Background(), GenerationRequest{Query: "q"})
	if err != nil {
		t.Fatalf("empty choices should not be an error: %v", err)
	}
	if !strings.Contains(answer, "couldn't generate a response") {
		t.Errorf("unexpected fallback answer: %q", answer)
	}
}
