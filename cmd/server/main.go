package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/learntube/careercoach/internal/api"
	"github.com/learntube/careercoach/internal/config"
	"github.com/learntube/careercoach/internal/core"
	"github.com/learntube/careercoach/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Command line flag for session retention cleanup
	cleanupFlag := flag.Bool("cleanup-sessions", false, "Deactivate sessions idle beyond the retention window and exit")
	flag.Parse()

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Handle retention cleanup if flag is set
	if *cleanupFlag {
		deactivated, err := dbStore.CleanupOldSessions(core.SessionRetentionDays)
		if err != nil {
			log.Fatalf("Session cleanup failed: %v", err)
		}
		log.Printf("Session cleanup complete. Deactivated %d sessions idle for more than %d days. Exiting.", deactivated, core.SessionRetentionDays)
		os.Exit(0)
	}

	// Initialize the generator. Without an API key the server still comes
	// up, but every reply is the stand-in text and the log says so.
	var generator core.Generator
	if config.AppConfig.GeminiAPIKey == "" {
		log.Println("WARNING: GEMINI_API_KEY not set. Running in DEGRADED mode with a stand-in responder.")
		generator = core.NewStandinGenerator()
	} else {
		llmService, err := core.NewLLMService()
		if err != nil {
			log.Fatalf("Failed to initialize LLM service: %v", err)
		}
		defer llmService.Close()
		generator = llmService
	}

	// Initialize core services
	contextBuilder := core.NewContextBuilder(dbStore)
	conversationService := core.NewConversationService(dbStore, generator, contextBuilder)
	historyService := core.NewHistoryService(dbStore)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(conversationService, historyService, dbStore)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
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

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
