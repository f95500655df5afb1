package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"msmehub.io/platform/internal/api"
	"msmehub.io/platform/internal/auth"
	"msmehub.io/platform/internal/config"
	"msmehub.io/platform/internal/core"
	"msmehub.io/platform/internal/store"
	"msmehub.io/platform/internal/watcher"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Command line flags for one-shot document ingestion
	ingestFileFlag := flag.String("ingest", "", "Ingest the given document into a knowledge base and exit")
	ingestNamespaceFlag := flag.String("namespace", "shop", "Namespace for -ingest (admin or shop)")
	flag.Parse()

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	ingestService := core.NewIngestService(dbStore, config.AppConfig.ChunkWindow, config.AppConfig.ChunkOverlap)

	// Handle one-shot ingestion if the flag is set
	if *ingestFileFlag != "" {
		namespace, err := core.ParseNamespace(*ingestNamespaceFlag)
		if err != nil {
			log.Fatalf("Invalid -namespace: %v", err)
		}
		data, err := os.ReadFile(*ingestFileFlag)
		if err != nil {
			log.Fatalf("Cannot read %s: %v", *ingestFileFlag, err)
		}
		contentType := mime.TypeByExtension(filepath.Ext(*ingestFileFlag))
		added, err := ingestService.IngestDocument(namespace, filepath.Base(*ingestFileFlag), contentType, data)
		if err != nil {
			log.Fatalf("Ingestion failed: %v", err)
		}
		log.Printf("Ingestion complete. Added %d chunks to namespace %s. Exiting.", added, namespace)
		os.Exit(0)
	}

	// Initialize generation backend (Gemini by default, OpenAI via config)
	generator := core.NewGenerator()
	defer generator.Close()

	// Initialize services
	ragService := core.NewRAGService(dbStore, config.AppConfig.TopK)
	inventoryService := core.NewInventoryService(dbStore, generator)
	chatService := core.NewChatService(dbStore, ragService, inventoryService, generator)
	authenticator := auth.NewAuthenticator(config.AppConfig.AdminToken, config.AppConfig.ShopTokens)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(authenticator, chatService, ingestService, inventoryService, dbStore)
	router := api.NewRouter(apiHandler)

	// Optional drop-folder ingestion
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if config.AppConfig.WatchDir != "" {
		watchNamespace, err := core.ParseNamespace(config.AppConfig.WatchNS)
		if err != nil {
			log.Fatalf("Invalid WATCH_NAMESPACE: %v", err)
		}
		dropWatcher, err := watcher.New(ingestService, config.AppConfig.WatchDir, watchNamespace)
		if err != nil {
			log.Fatalf("Failed to initialize drop-folder watcher: %v", err)
		}
		defer dropWatcher.Close()
		go func() {
			if err := dropWatcher.Run(watchCtx); err != nil {
				log.Printf("Drop-folder watcher stopped: %v", err)
			}
		}()
	}

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second, // Adjusted for potentially slower LLM handshakes
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	stopWatch()

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
