/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the invoicing engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Initialize SQLite store and the repositories
  3. Optionally configure the sync mirror
  4. Configure HTTP router
  5. Start server with graceful shutdown

CONFIGURATION:
  Flags win over environment variables; the .env file only fills the
  environment.
    -port      FACT_PORT      HTTP server port (default: 8080)
    -db        FACT_DB        SQLite database path (default: fact.db)
                              Use ":memory:" for an in-memory database
    -sync-dir  FACT_SYNC_DIR  Mirror directory; empty disables sync
    -user      FACT_USER_ID   Account to start the mirror for at boot

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sync session, close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/fact.db"

  # Run with a mirror folder, pulling alex's data at boot
  ./server -sync-dir="/mnt/mirror" -user="alex"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nodebox/fact-engine/api"
	"github.com/nodebox/fact-engine/store"
	"github.com/nodebox/fact-engine/store/sqlite"
	"github.com/nodebox/fact-engine/sync"
)

func main() {
	// .env fills the environment; a missing file is fine.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("FACT_PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("FACT_DB", "fact.db"), "SQLite database path")
	syncDir := flag.String("sync-dir", envStr("FACT_SYNC_DIR", ""), "mirror directory (empty disables sync)")
	userID := flag.String("user", envStr("FACT_USER_ID", ""), "account to sync at startup")
	flag.Parse()

	// Initialize store
	st, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer st.Close()

	repos := store.NewRepos(st)
	handler := api.NewHandler(repos)

	// Optional mirror
	if *syncDir != "" {
		session := sync.NewSession(repos, sync.NewDirRemote(*syncDir))
		handler.Session = session
		defer session.Stop()
		if *userID != "" {
			if err := session.Start(context.Background(), *userID); err != nil {
				log.Printf("Warning: sync did not start: %v", err)
			}
		}
	}

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
