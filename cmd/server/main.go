package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dom/squad-roster/internal/api"
	"github.com/dom/squad-roster/internal/catalog"
	"github.com/dom/squad-roster/internal/config"
	"github.com/dom/squad-roster/internal/export"
	"github.com/dom/squad-roster/internal/logging"
	"github.com/dom/squad-roster/internal/persistence"
	"github.com/dom/squad-roster/internal/repository"
	"github.com/dom/squad-roster/internal/repository/bolt"
	"github.com/dom/squad-roster/internal/repository/memory"
	"github.com/dom/squad-roster/internal/repository/postgres"
	"github.com/dom/squad-roster/internal/service"
	"github.com/dom/squad-roster/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	log := logging.New(cfg.LogLevel, os.Stdout)
	logging.ConfigureStandard(log)

	// Load catalog
	layout, err := catalog.LayoutByName(cfg.CatalogLayout)
	if err != nil {
		log.Fatalf("invalid catalog layout: %v", err)
	}
	images := os.DirFS(cfg.CatalogDir)
	index, skipped, err := catalog.LoadDir(images, layout, logging.Component(log, "catalog"))
	if err != nil {
		log.Fatalf("failed to read catalog directory %s: %v", cfg.CatalogDir, err)
	}
	log.WithFields(logrus.Fields{"characters": index.Len(), "skipped": len(skipped)}).Info("catalog loaded")

	// Initialize storage
	repo, closer, err := openRepository(cfg)
	if err != nil {
		log.Fatalf("failed to open %s storage: %v", cfg.StorageBackend, err)
	}
	defer closer.Close()
	store := persistence.NewStore(repo, cfg.StorageQuota)

	// Initialize services
	renderer := export.NewGridRenderer(images, cfg.ExportTileSize, logging.Component(log, "export"))
	services := service.NewServices(index, store, renderer, cfg, log)
	res, err := services.Roster.Init(context.Background())
	if err != nil {
		log.Fatalf("failed to load roster state: %v", err)
	}
	if res.Warning != "" {
		log.Warn(res.Warning)
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub(services.Roster, logging.Component(log, "hub"))
	services.Roster.OnChange(hub.BroadcastState)
	go hub.Run()

	// Initialize router
	router := api.NewRouter(services, hub, images, cfg)

	// Create server
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ExportTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Server starting on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Stop()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}

	log.Info("Server stopped")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openRepository opens the configured storage backend.
func openRepository(cfg *config.Config) (repository.KeyValueRepository, io.Closer, error) {
	switch cfg.StorageBackend {
	case config.BackendBolt:
		store, err := bolt.Open(cfg.StoragePath, cfg.StorageQuota)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.BackendPostgres:
		db, err := postgres.NewConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStorageRepository(db, cfg.StorageQuota), sqlDB, nil
	case config.BackendMemory:
		return memory.New(cfg.StorageQuota), nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
