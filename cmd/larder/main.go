package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/larder/internal/database"
	"github.com/dukerupert/larder/internal/email"
	"github.com/dukerupert/larder/internal/logging"
	"github.com/dukerupert/larder/internal/objects"
	"github.com/dukerupert/larder/internal/server"
)

func main() {
	port := os.Getenv("LARDER_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("LARDER_DB_PATH")
	if dbPath == "" {
		dbPath = "larder.db"
	}

	baseURL := os.Getenv("LARDER_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}

	logger := logging.Setup(os.Getenv("LARDER_LOG_LEVEL"))

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Object storage is optional; image endpoints report unavailable when
	// the bucket is not configured.
	var objectsSvc *objects.Service
	if bucket := os.Getenv("LARDER_S3_BUCKET"); bucket != "" {
		objectsSvc = objects.NewService(objects.Config{
			Endpoint:  os.Getenv("LARDER_S3_ENDPOINT"),
			Bucket:    bucket,
			Region:    os.Getenv("LARDER_S3_REGION"),
			AccessKey: os.Getenv("LARDER_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("LARDER_S3_SECRET_KEY"),
		})
	} else {
		logger.Warn("LARDER_S3_BUCKET not set, image uploads disabled")
	}

	emailClient := email.NewClient(
		os.Getenv("LARDER_POSTMARK_TOKEN"),
		os.Getenv("LARDER_FROM_EMAIL"),
		baseURL,
	)
	if !emailClient.Configured() {
		logger.Warn("LARDER_POSTMARK_TOKEN not set, share notifications disabled")
	}

	srv := server.New(db, objectsSvc, emailClient, logger)

	// Periodic cleanup of expired sessions and stale rate-limit entries
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup", "error", err)
				} else if n > 0 {
					logger.Info("session cleanup", "deleted", n)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupDone:
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Larder running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	close(cleanupDone)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
