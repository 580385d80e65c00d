package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lakonic/taskdeck/api"
	"github.com/lakonic/taskdeck/auth"
	"github.com/lakonic/taskdeck/datastore"
	rh "github.com/lakonic/taskdeck/route-handlers"
	"github.com/lakonic/taskdeck/session"
	"github.com/lakonic/taskdeck/webutil"
)

const (
	defaultPort     = "8080"
	defaultDBPath   = "tasks.db"
	shutdownTimeout = 15 * time.Second

	sessionSecretBytes = 32
)

type config struct {
	port      string
	dbPath    string
	secretKey []byte
}

func main() {
	cfg := loadConfig()

	db, err := datastore.Open(cfg.dbPath)
	if err != nil {
		log.Fatalf("Database setup failed: %v", err)
	}
	defer db.Close()
	log.Printf("Database ready at %s", cfg.dbPath)

	taskRepo := datastore.NewTaskRepository(db)
	userRepo := datastore.NewUserRepository(db)

	sessions := session.NewManager(cfg.secretKey)
	claimer := auth.NewGuestClaimer(taskRepo)

	taskHandler := rh.NewTaskHandler(taskRepo)
	authHandler := rh.NewAuthHandler(userRepo, sessions, claimer)

	router := api.SetupRoutes(sessions, taskHandler, authHandler)

	startServer(cfg.port, router)
}

func loadConfig() config {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		// Sessions signed with an ephemeral key are invalidated by a
		// restart. Fine for development, set SECRET_KEY in production.
		generated, err := webutil.GenerateRandomToken(sessionSecretBytes)
		if err != nil {
			log.Fatalf("Failed to generate session secret: %v", err)
		}
		secret = generated
		log.Println("WARNING: SECRET_KEY not set, using a random per-process session key.")
	}

	return config{
		port:      port,
		dbPath:    dbPath,
		secretKey: []byte(secret),
	}
}

func startServer(port string, router http.Handler) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownSignal // Block until signal received
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
