package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/carrotwaxr/peek-stash-browser-sub011/api"
	"github.com/carrotwaxr/peek-stash-browser-sub011/config"
	"github.com/carrotwaxr/peek-stash-browser-sub011/handlers"
	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
	"github.com/carrotwaxr/peek-stash-browser-sub011/services/history"
	"github.com/carrotwaxr/peek-stash-browser-sub011/services/library"
	"github.com/carrotwaxr/peek-stash-browser-sub011/services/localstate"
	"github.com/carrotwaxr/peek-stash-browser-sub011/services/playback"
	"github.com/carrotwaxr/peek-stash-browser-sub011/services/transcoder"
	"github.com/carrotwaxr/peek-stash-browser-sub011/utils"
)

func main() {
	configFlag := flag.String("config", "", "path to settings.json")
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 peek Backend Starting...")

	// Determine config path (flag, env, or default)
	configPath := *configFlag
	if configPath == "" {
		configPath = os.Getenv("PEEK_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			// Redirect standard log to both console and file
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	// Apply port override if specified
	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Watch history database (with migrations)
	historyService, err := history.NewService(settings.Database.Path, settings.Playback.PlayedThresholdPercent)
	if err != nil {
		log.Fatalf("failed to open history database: %v", err)
	}

	// Local player preferences (volume, mute)
	stateService, err := localstate.NewService(nil, settings.Cache.Directory)
	if err != nil {
		log.Fatalf("failed to init player state store: %v", err)
	}

	// Upstream services
	libraryService := library.NewService(settings.Library.BaseURL, settings.Library.APIKey, settings.Library.RequestTimeoutSec)
	transcoderService := transcoder.NewService(settings.Transcoder.BaseURL, settings.Transcoder.RequestTimeoutSec, settings.Transcoder.RetryAttempts)

	// Playback session controller
	manager := playback.NewManager(libraryService, transcoderService, historyService, stateService, playback.Config{
		FallbackQuality:        models.QualityLevel(settings.Playback.FallbackQuality),
		SessionIdleTimeout:     time.Duration(settings.Playback.SessionIdleTimeoutSec) * time.Second,
		CleanupInterval:        time.Duration(settings.Playback.CleanupIntervalSec) * time.Second,
		ProgressWriteInterval:  time.Duration(settings.Playback.ProgressWriteIntervalSec) * time.Second,
		PlayedThresholdPercent: settings.Playback.PlayedThresholdPercent,
		PrefetchThreshold:      time.Duration(settings.Playback.PrefetchThresholdSec) * time.Second,
		PrefetchWorkers:        settings.Playback.PrefetchWorkers,
	})

	// Construct router and register API routes
	var r *mux.Router = utils.NewRouter()
	api.Register(r,
		handlers.NewPlaybackHandler(manager),
		handlers.NewHistoryHandler(historyService),
		handlers.NewPlayerStateHandler(stateService),
		handlers.NewSettingsHandler(cfgManager),
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // No write timeout for streaming
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Close playback sessions first so final progress lands in the database
	// and remote transcode sessions are released.
	log.Println("🧹 Closing playback sessions...")
	manager.Close()

	if err := historyService.Close(); err != nil {
		log.Printf("history close error: %v", err)
	}

	// Shutdown HTTP server gracefully
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
