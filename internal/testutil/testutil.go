package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dom/squad-roster/internal/api"
	"github.com/dom/squad-roster/internal/catalog"
	"github.com/dom/squad-roster/internal/config"
	"github.com/dom/squad-roster/internal/domain"
	"github.com/dom/squad-roster/internal/export"
	"github.com/dom/squad-roster/internal/logging"
	"github.com/dom/squad-roster/internal/persistence"
	"github.com/dom/squad-roster/internal/repository/memory"
	"github.com/dom/squad-roster/internal/service"
	"github.com/dom/squad-roster/internal/websocket"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a connection.
// The test is skipped when no container runtime is available.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_squad_roster"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := db.AutoMigrate(&domain.StorageEntry{}); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		ctx := context.Background()
		tdb.Container.Terminate(ctx)
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"storage_entries",
	}

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:           "0", // Random port
		BindAddress:    "127.0.0.1",
		Environment:    "test",
		LogLevel:       "error",
		CatalogLayout:  catalog.LegacyLayout.Name,
		StorageBackend: config.BackendMemory,
		StorageQuota:   5 * 1024 * 1024,
		SwapThreshold:  0.65,
		ExportTileSize: 32,
		ExportTimeout:  5 * time.Second,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	Repo     *memory.Store
	Store    *persistence.Store
	Services *service.Services
	Hub      *websocket.Hub
	Config   *config.Config
}

// NewTestServer creates a complete test server over in-memory storage and the
// fixture catalog.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return NewTestServerWith(t, TestConfig())
}

// NewTestServerWith is NewTestServer with a caller-supplied configuration.
func NewTestServerWith(t *testing.T, cfg *config.Config) *TestServer {
	t.Helper()

	log := logging.Discard()
	index, skipped := catalog.Load(FixtureEntries, catalog.LegacyLayout, log)
	if len(skipped) > 0 {
		t.Fatalf("fixture catalog has malformed entries: %v", skipped)
	}

	repo := memory.New(0)
	store := persistence.NewStore(repo, cfg.StorageQuota)
	images := FixtureImages(t)
	renderer := export.NewGridRenderer(images, cfg.ExportTileSize, log)

	services := service.NewServices(index, store, renderer, cfg, log)
	if _, err := services.Roster.Init(context.Background()); err != nil {
		t.Fatalf("failed to init roster: %v", err)
	}

	hub := websocket.NewHub(services.Roster, log)
	services.Roster.OnChange(hub.BroadcastState)
	go hub.Run()

	router := api.NewRouter(services, hub, images, cfg)
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		Repo:     repo,
		Store:    store,
		Services: services,
		Hub:      hub,
		Config:   cfg,
	}

	t.Cleanup(func() {
		hub.Stop()
		server.Close()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// WebSocketURL returns the WebSocket URL
func (ts *TestServer) WebSocketURL() string {
	wsURL := "ws" + ts.Server.URL[4:] // Replace "http" with "ws"
	return fmt.Sprintf("%s/api/v1/ws", wsURL)
}
