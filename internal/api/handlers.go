package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"msmehub.io/platform/internal/auth"
	"msmehub.io/platform/internal/core"
	"msmehub.io/platform/internal/store"
)

// CorpusAdmin covers the maintenance operations handlers call directly on
// the store: chunk counts for health and whole-namespace clears.
type CorpusAdmin interface {
	CountChunks(namespace string) (int, error)
	ClearCorpus(namespace string) error
}

type APIHandler struct {
	authenticator *auth.Authenticator
	chatService   *core.ChatService
	ingestService *core.IngestService
	invService    *core.InventoryService
	corpus        CorpusAdmin
}

func NewAPIHandler(authenticator *auth.Authenticator, chat *core.ChatService, ingest *core.IngestService, inv *core.InventoryService, corpus CorpusAdmin) *APIHandler {
	return &APIHandler{
		authenticator: authenticator,
		chatService:   chat,
		ingestService: ingest,
		invService:    inv,
		corpus:        corpus,
	}
}

func (h *APIHandler) TokenAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		role, ok := h.authenticator.Authenticate(token)
		if !ok {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "userRole", role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func roleFrom(r *http.Request) auth.Role {
	role, _ := r.Context().Value("userRole").(auth.Role)
	return role
}

// writeServiceError translates a service failure into a status and a short
// user-facing message. The full error goes to the log only.
func writeServiceError(w http.ResponseWriter, logContext string, err error) {
	log.Printf("%s: %v", logContext, err)

	switch {
	case errors.Is(err, core.ErrInvalidChunkParams):
		http.Error(w, "Invalid chunking parameters", http.StatusBadRequest)
	case errors.Is(err, core.ErrEmptyDocument):
		http.Error(w, "No text content found in the uploaded file", http.StatusBadRequest)
	case errors.Is(err, core.ErrUnsupportedFormat):
		http.Error(w, "Unsupported file format", http.StatusBadRequest)
	case errors.Is(err, core.ErrGatewayTimeout):
		http.Error(w, "The assistant took too long to respond. Please try again.", http.StatusGatewayTimeout)
	case errors.Is(err, core.ErrGatewayUnavailable):
		http.Error(w, "The assistant is unavailable right now. Please try again later.", http.StatusBadGateway)
	case errors.Is(err, core.ErrStorage):
		http.Error(w, "Storage failure. Please try again.", http.StatusInternalServerError)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

type LoginRequest struct {
	Token string `json:"token"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Token == "" {
		http.Error(w, "Token is required", http.StatusBadRequest)
		return
	}

	role, ok := h.authenticator.Authenticate(strings.TrimSpace(req.Token))
	if !ok {
		http.Error(w, "Invalid token. Please try again.", http.StatusUnauthorized)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"role": string(role)})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	counts := make(map[string]int)
	for _, ns := range []core.Namespace{core.NamespaceAdmin, core.NamespaceShop} {
		count, err := h.corpus.CountChunks(string(ns))
		if err != nil {
			log.Printf("Health check failed counting %s chunks: %v", ns, err)
			http.Error(w, "Storage unavailable", http.StatusInternalServerError)
			return
		}
		counts[string(ns)] = count
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"corpus": counts,
	})
}

func (h *APIHandler) UploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	namespace, err := core.ParseNamespace(r.FormValue("namespace"))
	if err != nil {
		http.Error(w, "Namespace must be 'admin' or 'shop'", http.StatusBadRequest)
		return
	}

	role := roleFrom(r)
	if namespace == core.NamespaceAdmin && role != auth.RoleAdmin {
		http.Error(w, "Only admins can upload to the admin knowledge base", http.StatusForbidden)
		return
	}
	if namespace == core.NamespaceShop && role != auth.RoleShopOwner {
		http.Error(w, "Only shop owners can upload to the shop knowledge base", http.StatusForbidden)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "A file upload is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Printf("Error reading upload %s: %v", header.Filename, err)
		http.Error(w, "Failed to read uploaded file", http.StatusInternalServerError)
		return
	}

	added, err := h.ingestService.IngestDocument(namespace, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeServiceError(w, "Error ingesting "+header.Filename, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"namespace":    namespace,
		"chunks_added": added,
	})
}

func (h *APIHandler) ClearNamespaceHandler(w http.ResponseWriter, r *http.Request) {
	if roleFrom(r) != auth.RoleAdmin {
		http.Error(w, "Only admins can clear a knowledge base", http.StatusForbidden)
		return
	}

	namespace, err := core.ParseNamespace(chi.URLParam(r, "namespace"))
	if err != nil {
		http.Error(w, "Namespace must be 'admin' or 'shop'", http.StatusBadRequest)
		return
	}

	if err := h.corpus.ClearCorpus(string(namespace)); err != nil {
		writeServiceError(w, "Error clearing namespace "+string(namespace), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type KnowledgeChatRequest struct {
	Query     string `json:"query"`
	Namespace string `json:"namespace"`
	SessionID string `json:"session_id,omitempty"`
}

func (h *APIHandler) KnowledgeChatHandler(w http.ResponseWriter, r *http.Request) {
	var req KnowledgeChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "Query cannot be empty", http.StatusBadRequest)
		return
	}

	namespace, err := core.ParseNamespace(req.Namespace)
	if err != nil {
		http.Error(w, "Namespace must be 'admin' or 'shop'", http.StatusBadRequest)
		return
	}

	// Both roles may read the admin guidance corpus; the shop corpus is the
	// shop owner's alone.
	if namespace == core.NamespaceShop && roleFrom(r) != auth.RoleShopOwner {
		http.Error(w, "You do not have access to this knowledge base", http.StatusForbidden)
		return
	}

	modelMessage, err := h.chatService.AskKnowledge(r.Context(), req.SessionID, namespace, req.Query)
	if err != nil {
		writeServiceError(w, "Error answering knowledge query", err)
		return
	}
	json.NewEncoder(w).Encode(modelMessage)
}

type InventoryChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

func (h *APIHandler) InventoryChatHandler(w http.ResponseWriter, r *http.Request) {
	if roleFrom(r) != auth.RoleShopOwner {
		http.Error(w, "Only shop owners can use the inventory assistant", http.StatusForbidden)
		return
	}

	var req InventoryChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "Query cannot be empty", http.StatusBadRequest)
		return
	}

	modelMessage, err := h.chatService.AskInventory(r.Context(), req.SessionID, req.Query)
	if err != nil {
		writeServiceError(w, "Error answering inventory query", err)
		return
	}
	json.NewEncoder(w).Encode(modelMessage)
}

type TranscriptResponse struct {
	*store.Session
	Messages []store.Message `json:"messages"`
}

func (h *APIHandler) GetTranscriptHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, messages, err := h.chatService.GetTranscript(sessionID)
	if err != nil {
		writeServiceError(w, "Error loading transcript "+sessionID, err)
		return
	}
	if session == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(TranscriptResponse{
		Session:  session,
		Messages: messages,
	})
}

func (h *APIHandler) ListInventoryHandler(w http.ResponseWriter, r *http.Request) {
	if roleFrom(r) != auth.RoleShopOwner {
		http.Error(w, "Only shop owners can manage inventory", http.StatusForbidden)
		return
	}

	items, err := h.invService.List(r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, "Error listing inventory", err)
		return
	}
	if items == nil {
		items = []store.InventoryItem{}
	}
	json.NewEncoder(w).Encode(items)
}

type ReplaceInventoryRequest struct {
	Items []store.InventoryItem `json:"items"`
}

func (h *APIHandler) ReplaceInventoryHandler(w http.ResponseWriter, r *http.Request) {
	if roleFrom(r) != auth.RoleShopOwner {
		http.Error(w, "Only shop owners can manage inventory", http.StatusForbidden)
		return
	}

	var req ReplaceInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	count, err := h.invService.ReplaceAll(req.Items)
	if err != nil {
		writeServiceError(w, "Error replacing inventory", err)
		return
	}
	json.NewEncoder(w).Encode(map[string]int{"count": count})
}

func (h *APIHandler) ImportInventoryHandler(w http.ResponseWriter, r *http.Request) {
	if roleFrom(r) != auth.RoleShopOwner {
		http.Error(w, "Only shop owners can manage inventory", http.StatusForbidden)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "A CSV file upload is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Printf("Error reading CSV upload %s: %v", header.Filename, err)
		http.Error(w, "Failed to read uploaded file", http.StatusInternalServerError)
		return
	}

	imported, analysis, err := h.invService.ImportCSV(r.Context(), data)
	if err != nil {
		if errors.Is(err, core.ErrInventoryEmpty) {
			http.Error(w, "No valid inventory data found in CSV", http.StatusBadRequest)
			return
		}
		writeServiceError(w, "Error importing inventory CSV", err)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"imported": imported,
		"analysis": analysis,
	})
}

func (h *APIHandler) ExportInventoryHandler(w http.ResponseWriter, r *http.Request) {
	if roleFrom(r) != auth.RoleShopOwner {
		http.Error(w, "Only shop owners can manage inventory", http.StatusForbidden)
		return
	}

	csvData, err := h.invService.ExportCSV()
	if err != nil {
		if errors.Is(err, core.ErrInventoryEmpty) {
			http.Error(w, "No inventory data to export", http.StatusNotFound)
			return
		}
		writeServiceError(w, "Error exporting inventory", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="inventory.csv"`)
	w.Write([]byte(csvData))
}
