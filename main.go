package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"cinedeck/config"
	"cinedeck/handlers"
	"cinedeck/internal/database"
	"cinedeck/services/catalog"
	"cinedeck/services/collections"
	"cinedeck/utils"
)

func main() {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	settingsPath := os.Getenv("CINEDECK_SETTINGS")
	if settingsPath == "" {
		settingsPath = "data/settings.json"
	}

	cfgManager := config.NewManager(settingsPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("[server] failed to load settings: %v", err)
	}

	if settings.Logging.File != "" {
		log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   settings.Logging.File,
			MaxSize:    settings.Logging.MaxSizeMB,
			MaxBackups: settings.Logging.MaxBackups,
		}))
	}

	if settings.TMDB.APIKey == "" {
		log.Printf("[server] warning: no TMDB API key configured, catalog requests will fail")
	}

	db, err := database.NewDB(database.Config{DatabasePath: settings.Database.Path})
	if err != nil {
		log.Fatalf("[server] failed to open database: %v", err)
	}
	defer db.Close()

	catalogSvc := catalog.NewService(catalog.Options{
		TMDBAPIKey:   settings.TMDB.APIKey,
		OMDBAPIKey:   settings.OMDB.APIKey,
		Language:     settings.TMDB.Language,
		Region:       settings.TMDB.Region,
		ImageBaseURL: settings.TMDB.ImageBaseURL,
	})

	mirrorFs := afero.NewOsFs()
	collectionsSvc := collections.NewService(db.Repository, mirrorFs, settings.Cache.Dir)
	defer collectionsSvc.Flush()

	router := utils.NewRouter()
	handlers.NewCatalogHandler(catalogSvc, collectionsSvc, settings.Collections.WatchedSource).Register(router)
	handlers.NewCollectionsHandler(collectionsSvc).Register(router)

	server := &http.Server{
		Addr:         settings.Server.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("[server] listening on %s", settings.Server.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[server] listen failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("[server] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[server] shutdown error: %v", err)
	}
}
