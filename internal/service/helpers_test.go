package service_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dom/squad-roster/internal/catalog"
	"github.com/dom/squad-roster/internal/config"
	"github.com/dom/squad-roster/internal/export"
	"github.com/dom/squad-roster/internal/logging"
	"github.com/dom/squad-roster/internal/persistence"
	"github.com/dom/squad-roster/internal/repository/memory"
	"github.com/dom/squad-roster/internal/service"
)

var fixtureEntries = []string{
	"65_36_elysion_ssr_b3_atk_mg_Neon_Blue_Ocean.webp",
	"12_10_tetra_sr_b1_sp_sg_Anis.webp",
	"20_20_elysion_ssr_b3_atk_ar_Rapi.webp",
	"7_5_pilgrim_ssr_b2_def_mg_Crown.webp",
	"3_15_missilis_r_b1_def_smg_Soldier.webp",
}

type harness struct {
	repo     *memory.Store
	store    *persistence.Store
	services *service.Services
}

func newHarness(t *testing.T, quota int) *harness {
	t.Helper()
	idx, skipped := catalog.Load(fixtureEntries, catalog.LegacyLayout, logging.Discard())
	require.Empty(t, skipped)

	repo := memory.New(0)
	store := persistence.NewStore(repo, quota)
	cfg := &config.Config{SwapThreshold: 0.65, ExportTileSize: 32}
	renderer := export.NewGridRenderer(nil, cfg.ExportTileSize, logging.Discard())

	return &harness{
		repo:     repo,
		store:    store,
		services: service.NewServices(idx, store, renderer, cfg, logging.Discard()),
	}
}

// newHarnessOver builds fresh services sharing h's store.
func newHarnessOver(t *testing.T, h *harness) *harness {
	t.Helper()
	idx, _ := catalog.Load(fixtureEntries, catalog.LegacyLayout, logging.Discard())
	cfg := &config.Config{SwapThreshold: 0.65, ExportTileSize: 32}
	renderer := export.NewGridRenderer(nil, cfg.ExportTileSize, logging.Discard())
	return &harness{
		repo:     h.repo,
		store:    h.store,
		services: service.NewServices(idx, h.store, renderer, cfg, logging.Discard()),
	}
}
