package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/login", apiHandler.LoginHandler)
		r.Get("/health", apiHandler.HealthHandler)

		// Token-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.TokenAuthMiddleware)

			// Knowledge base routes
			r.Post("/documents", apiHandler.UploadDocumentHandler)
			r.Delete("/documents/{namespace}", apiHandler.ClearNamespaceHandler)

			// Chat routes
			r.Post("/chat/knowledge", apiHandler.KnowledgeChatHandler)
			r.Post("/chat/inventory", apiHandler.InventoryChatHandler)
			r.Get("/chat/{sessionID}", apiHandler.GetTranscriptHandler)

			// Inventory routes
			r.Get("/inventory", apiHandler.ListInventoryHandler)
			r.Put("/inventory", apiHandler.ReplaceInventoryHandler)
			r.Post("/inventory/import", apiHandler.ImportInventoryHandler)
			r.Get("/inventory/export", apiHandler.ExportInventoryHandler)
		})
	})

	return r
}
