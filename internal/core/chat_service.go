package core

import (
	"context"
	"errors"
	"fmt"
	"log"

	"msmehub.io/platform/internal/store"
)

// TranscriptStore persists chat sessions and their messages. Implemented by
// store.SQLiteStore.
type TranscriptStore interface {
	CreateSession(role, surface string) (*store.Session, error)
	GetSessionByID(sessionID string) (*store.Session, error)
	CreateMessage(msg *store.Message) error
	GetMessagesBySessionID(sessionID string, limit, offset int) ([]store.Message, error)
}

// Assistant surfaces. Each session belongs to exactly one.
const (
	SurfaceKnowledge = "knowledge"
	SurfaceInventory = "inventory"
)

const emptyKnowledgeBaseMessage = "Knowledge base is empty. Please upload documents first."

// transcriptLimit caps how many messages a transcript fetch returns.
const transcriptLimit = 100

// ChatService runs one chat turn end to end: ensure a session, persist the
// user message, produce the answer, persist it. Generation itself is
// single-turn; the stored transcript is never fed back to the model.
type ChatService struct {
	transcripts TranscriptStore
	ragService  *RAGService
	inventory   *InventoryService
	generator   Generator
}

func NewChatService(transcripts TranscriptStore, rag *RAGService, inventory *InventoryService, generator Generator) *ChatService {
	return &ChatService{
		transcripts: transcripts,
		ragService:  rag,
		inventory:   inventory,
		generator:   generator,
	}
}

// AskKnowledge answers a query grounded in one namespace's corpus and
// returns the stored model message. The caller finds the session id on the
// returned message; passing it back continues the same transcript.
func (s *ChatService) AskKnowledge(ctx context.Context, sessionID string, namespace Namespace, query string) (*store.Message, error) {
	session, err := s.ensureSession(sessionID, string(namespace), SurfaceKnowledge)
	if err != nil {
		return nil, err
	}

	if err := s.storeMessage(session.ID, "user", query); err != nil {
		return nil, err
	}

	chunks, err := s.ragService.Retrieve(query, namespace, 0)
	if err != nil {
		return nil, err
	}

	var answer string
	if len(chunks) == 0 {
		answer = emptyKnowledgeBaseMessage
	} else {
		req, err := Compose(query, chunks, RoleForNamespace(namespace))
		if err != nil {
			return nil, err
		}
		answer, err = s.generator.Generate(ctx, req)
		if err != nil {
			// The user message stays in the transcript; the failure maps to
			// an HTTP status at the boundary.
			return nil, err
		}
	}

	return s.storeModelMessage(session.ID, answer)
}

// AskInventory handles one inventory assistant turn. Mutation commands are
// applied through the inventory service; a command that fails to parse
// becomes a corrective answer carrying the grammar, not an HTTP error.
func (s *ChatService) AskInventory(ctx context.Context, sessionID string, query string) (*store.Message, error) {
	session, err := s.ensureSession(sessionID, string(RoleShop), SurfaceInventory)
	if err != nil {
		return nil, err
	}

	if err := s.storeMessage(session.ID, "user", query); err != nil {
		return nil, err
	}

	answer, err := s.inventory.Answer(ctx, query)
	if err != nil {
		var parseErr *CommandParseError
		if !errors.As(err, &parseErr) {
			return nil, err
		}
		answer = fmt.Sprintf("I couldn't apply that command: %s. Expected: %s", parseErr.Reason, CommandGrammar)
	}

	return s.storeModelMessage(session.ID, answer)
}

// GetTranscript returns a session and its messages, oldest first. A missing
// session returns nils without error.
func (s *ChatService) GetTranscript(sessionID string) (*store.Session, []store.Message, error) {
	session, err := s.transcripts.GetSessionByID(sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: loading session: %v", ErrStorage, err)
	}
	if session == nil {
		return nil, nil, nil
	}

	messages, err := s.transcripts.GetMessagesBySessionID(sessionID, transcriptLimit, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: loading messages: %v", ErrStorage, err)
	}
	return session, messages, nil
}

// ensureSession resolves the caller's session id, creating a fresh session
// when the id is blank or unknown.
func (s *ChatService) ensureSession(sessionID, role, surface string) (*store.Session, error) {
	if sessionID != "" {
		session, err := s.transcripts.GetSessionByID(sessionID)
		if err != nil {
			return nil, fmt.Errorf("%w: loading session: %v", ErrStorage, err)
		}
		if session != nil {
			return session, nil
		}
		log.Printf("Unknown session %s, starting a new one", sessionID)
	}

	session, err := s.transcripts.CreateSession(role, surface)
	if err != nil {
		return nil, fmt.Errorf("%w: creating session: %v", ErrStorage, err)
	}
	return session, nil
}

func (s *ChatService) storeMessage(sessionID, sender, content string) error {
	msg := store.Message{
		SessionID: sessionID,
		Sender:    sender,
		Content:   content,
	}
	if err := s.transcripts.CreateMessage(&msg); err != nil {
		return fmt.Errorf("%w: storing %s message: %v", ErrStorage, sender, err)
	}
	return nil
}

func (s *ChatService) storeModelMessage(sessionID, content string) (*store.Message, error) {
	msg := store.Message{
		SessionID: sessionID,
		Sender:    "model",
		Content:   content,
	}
	if err := s.transcripts.CreateMessage(&msg); err != nil {
		return nil, fmt.Errorf("%w: storing model message: %v", ErrStorage, err)
	}
	return &msg, nil
}
