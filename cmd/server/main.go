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

	"gateready.app/booking-assistant/internal/api"
	"gateready.app/booking-assistant/internal/auth"
	"gateready.app/booking-assistant/internal/config"
	"gateready.app/booking-assistant/internal/core"
	"gateready.app/booking-assistant/internal/gateway"
	"gateready.app/booking-assistant/internal/llm"
	"gateready.app/booking-assistant/internal/store"
	"gateready.app/booking-assistant/internal/thread"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Command line flag for seeding demo data
	seedFlag := flag.Bool("seed", false, "Seed the demo user, bookings and flight info, then exit")
	flag.Parse()

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	if *seedFlag {
		if err := api.Seed(dbStore); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Println("Seed data loaded. Exiting.")
		os.Exit(0)
	}

	// The demo account must exist so the login flow works out of the box.
	if err := api.EnsureDemoUser(dbStore); err != nil {
		log.Fatalf("Failed to ensure demo user: %v", err)
	}

	// Initialize conversation thread store
	threadStore, err := newThreadStore()
	if err != nil {
		log.Fatalf("Failed to initialize thread store: %v", err)
	}
	log.Printf("Thread store backend: %s", threadStore.Kind())

	// Initialize LLM client
	var llmClient llm.Client
	if config.AppConfig.GeminiAPIKey != "" {
		client, err := llm.NewGeminiClient(context.Background(), config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel)
		if err != nil {
			log.Fatalf("Failed to initialize Gemini client: %v", err)
		}
		llmClient = client
	} else {
		llmClient = llm.Disabled{}
	}
	defer llmClient.Close()

	// Initialize booking gateway and turn orchestrator
	gw := gateway.NewClient(config.AppConfig.GatewayBaseURL)
	orchestrator := core.NewOrchestrator(threadStore, gw, llmClient, dbStore)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(dbStore, orchestrator, auth.NewRevokedSet())
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

func newThreadStore() (thread.Store, error) {
	switch config.AppConfig.ThreadStore {
	case config.ThreadStoreMemory:
		return thread.NewMemoryStore(), nil
	case config.ThreadStoreRedis:
		return thread.NewRedisStore(config.AppConfig.RedisAddr)
	case config.ThreadStoreSQLite:
		return thread.NewSQLiteStore(config.AppConfig.ThreadDatabase)
	default:
		return nil, fmt.Errorf("unknown thread store backend %q", config.AppConfig.ThreadStore)
	}
}
