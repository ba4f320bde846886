package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dhamosankaran/aivideogenstudio/internal/api"
	"github.com/dhamosankaran/aivideogenstudio/internal/config"
	"github.com/dhamosankaran/aivideogenstudio/internal/db"
	"github.com/dhamosankaran/aivideogenstudio/internal/models"
	"github.com/dhamosankaran/aivideogenstudio/internal/queue"
	"github.com/dhamosankaran/aivideogenstudio/internal/services"
	"github.com/dhamosankaran/aivideogenstudio/internal/storage"
	"github.com/dhamosankaran/aivideogenstudio/internal/worker"
)

func main() {
	log.Println("Starting AI Video Gen Studio API...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	log.Println("Connected to database")

	q, err := queue.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()
	log.Println("Connected to Redis queue")

	defaults := models.RenderSettings{
		Width:  cfg.RenderWidth,
		Height: cfg.RenderHeight,
		FPS:    cfg.RenderFPS,
	}

	handler := api.NewHandler(database, q, defaults)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set — API is unprotected (dev mode)")
	}

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	// Start worker if enabled
	var workerCancel context.CancelFunc
	if cfg.WorkerEnabled {
		log.Println("Worker enabled, starting background processing...")

		cache, err := storage.NewMediaCache(cfg.MediaCacheDir)
		if err != nil {
			log.Fatalf("Failed to initialize media cache: %v", err)
		}

		profiles, err := services.NewProfileResolver(cfg.ProfileOverride)
		if err != nil {
			log.Fatalf("Failed to load render profiles: %v", err)
		}

		providerTimeout := time.Duration(cfg.ProviderTimeoutSeconds) * time.Second

		// Provider chain in priority order: local assets first, the
		// gradient tier is synthesized by the orchestrator itself.
		providers := []services.MediaProvider{
			services.NewLocalAssetProvider(cfg.AssetsDir),
		}
		if cfg.PexelsKey != "" {
			providers = append(providers, services.NewPexelsVideoProvider(cfg.PexelsKey, cache, providerTimeout))
		}
		if cfg.SerperKey != "" {
			providers = append(providers, services.NewSerperProvider(cfg.SerperKey, cache, providerTimeout))
		}
		if cfg.UnsplashKey != "" {
			providers = append(providers, services.NewUnsplashProvider(cfg.UnsplashKey, cache, providerTimeout))
		}
		if cfg.PexelsKey != "" {
			providers = append(providers, services.NewPexelsImageProvider(cfg.PexelsKey, cache, providerTimeout))
		}
		orchestrator := services.NewMediaOrchestrator(providers, cache, providerTimeout)

		transcriber := services.NewCachingTranscriber(
			services.NewOpenAITranscriber(cfg.OpenAIKey, cfg.WhisperModel),
			filepath.Join(cfg.MediaCacheDir, "transcripts"),
		)

		music := services.NewMusicLibrary(cfg.AssetsDir)

		compositor := worker.NewCompositor(
			transcriber,
			orchestrator,
			profiles,
			music,
			cfg.TempDir,
			cfg.OutputDir,
			cfg.AssetsDir,
			defaults,
		)

		w := worker.New(database, q, compositor, time.Duration(cfg.TaskTimeoutMinutes)*time.Minute)

		var workerCtx context.Context
		workerCtx, workerCancel = context.WithCancel(context.Background())
		go w.Start(workerCtx, cfg.MaxConcurrentJobs)
	}

	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	if workerCancel != nil {
		workerCancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
