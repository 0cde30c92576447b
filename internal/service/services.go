package service

import (
	"github.com/sirupsen/logrus"

	"github.com/dom/squad-roster/internal/catalog"
	"github.com/dom/squad-roster/internal/config"
	"github.com/dom/squad-roster/internal/export"
	"github.com/dom/squad-roster/internal/logging"
	"github.com/dom/squad-roster/internal/persistence"
)

type Services struct {
	Catalog *CatalogService
	Roster  *RosterService
	Library *LibraryService
	Export  *ExportService
}

func NewServices(index *catalog.Index, store *persistence.Store, renderer export.Renderer, cfg *config.Config, log logrus.FieldLogger) *Services {
	catalogSvc := NewCatalogService(index)
	roster := NewRosterService(store, catalogSvc, RosterOptions{
		SwapThreshold: cfg.SwapThreshold,
		Scorer:        catalogSvc.Scorer(),
	}, logging.Component(log, "roster"))

	return &Services{
		Catalog: catalogSvc,
		Roster:  roster,
		Library: NewLibraryService(store, roster, catalogSvc, logging.Component(log, "library")),
		Export:  NewExportService(roster, catalogSvc, renderer, cfg.ExportTimeout, logging.Component(log, "export")),
	}
}

var (
	_ export.CharacterLookup = (*CatalogService)(nil)
	_ CharacterLookup        = (*CatalogService)(nil)
	_ StateStore             = (*persistence.Store)(nil)
	_ LibraryStore           = (*persistence.Store)(nil)
)
