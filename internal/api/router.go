package api

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dom/squad-roster/internal/api/handlers"
	"github.com/dom/squad-roster/internal/api/middleware"
	"github.com/dom/squad-roster/internal/config"
	"github.com/dom/squad-roster/internal/service"
	"github.com/dom/squad-roster/internal/websocket"
)

// NewRouter wires the HTTP surface. images serves portrait files and may be
// nil when no catalog directory is mounted.
func NewRouter(services *service.Services, hub *websocket.Hub, images fs.FS, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	if cfg.Environment != "test" {
		r.Use(chiMiddleware.Logger)
		r.Use(middleware.LocalOnly)
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	catalogHandler := handlers.NewCatalogHandler(services.Catalog)
	rosterHandler := handlers.NewRosterHandler(services.Roster)
	libraryHandler := handlers.NewLibraryHandler(services.Library)
	exportHandler := handlers.NewExportHandler(services.Export)
	wsHandler := handlers.NewWebSocketHandler(hub)

	if images != nil {
		r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.FS(images))))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/characters", func(r chi.Router) {
			r.Get("/", catalogHandler.GetAll)
			r.Get("/facets", catalogHandler.Facets)
			r.Post("/filter", catalogHandler.Filter)
			r.Get("/{id}", catalogHandler.Get)
		})

		r.Get("/state", rosterHandler.GetState)
		r.Post("/reset", rosterHandler.ResetAll)

		r.Route("/curated", func(r chi.Router) {
			r.Post("/", rosterHandler.Curate)
			r.Delete("/", rosterHandler.ClearCurated)
			r.Post("/remove", rosterHandler.Uncurate)
			r.Delete("/{id}", rosterHandler.UncurateOne)
		})

		// setID is a team set id or "active"
		r.Route("/teamsets/{setID}", func(r chi.Router) {
			r.Post("/activate", rosterHandler.Activate)
			r.Put("/name", rosterHandler.Rename)
			r.Post("/reset", rosterHandler.ResetSet)
			r.Post("/move", rosterHandler.Move)
			r.Post("/toggle", rosterHandler.Toggle)
			r.Delete("/squads/{squad}", rosterHandler.ClearSquad)
			r.Put("/squads/{squad}/slots/{slot}", rosterHandler.Assign)
			r.Delete("/squads/{squad}/slots/{slot}", rosterHandler.Remove)

			r.Get("/sharecode", libraryHandler.ShareTeamSet)
			r.Get("/export.png", exportHandler.Image)
			r.Get("/export", exportHandler.View)
		})

		r.Route("/library", func(r chi.Router) {
			r.Get("/", libraryHandler.List)
			r.Post("/", libraryHandler.Save)
			r.Post("/import", libraryHandler.Import)
			r.Get("/backup", libraryHandler.Backup)
			r.Post("/restore", libraryHandler.Restore)
			r.Delete("/{name}", libraryHandler.Delete)
			r.Put("/{name}/name", libraryHandler.Rename)
			r.Post("/{name}/load", libraryHandler.Load)
			r.Get("/{name}/sharecode", libraryHandler.ShareCode)
		})

		// WebSocket endpoint
		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
