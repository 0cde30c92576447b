package testutil

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"
	"testing/fstest"

	"github.com/dom/squad-roster/internal/domain"
)

// FixtureEntries is a small legacy-layout catalog. Ids: 65, 12, 20, 7, 3, 41.
var FixtureEntries = []string{
	"65_36_elysion_ssr_b3_atk_mg_Neon_Blue_Ocean.webp",
	"12_10_tetra_sr_b1_sp_sg_Anis.webp",
	"20_20_elysion_ssr_b3_atk_ar_Rapi.webp",
	"7_5_pilgrim_ssr_b2_def_mg_Crown.webp",
	"3_15_missilis_r_b1_def_smg_Soldier.webp",
	"41_60_pilgrim_ssr_b1_sp_rl_Liter.png",
}

// FixtureImages returns an in-memory portrait directory. Only the png entry
// has a decodable portrait; the webp names stay missing and render as
// placeholders.
func FixtureImages(t *testing.T) fstest.MapFS {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 0xff, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode fixture portrait: %v", err)
	}

	return fstest.MapFS{
		FixtureEntries[5]: &fstest.MapFile{Data: buf.Bytes()},
	}
}

// GridBuilder builds a team set grid row by row.
type GridBuilder struct {
	grid [domain.SquadsPerSet][domain.SlotsPerSquad]string
}

// NewGridBuilder creates an empty grid
func NewGridBuilder() *GridBuilder {
	return &GridBuilder{}
}

// WithSquad fills squad i from ids in slot order ("" = Empty).
func (b *GridBuilder) WithSquad(i int, ids ...string) *GridBuilder {
	sq := domain.FitSquadIDs(ids)
	for j, slot := range sq.Slots {
		b.grid[i][j] = slot.CharacterID
	}
	return b
}

// Build returns the grid.
func (b *GridBuilder) Build() [domain.SquadsPerSet][domain.SlotsPerSquad]string {
	return b.grid
}

// Apply writes the grid into a team set of the test server's roster.
func (b *GridBuilder) Apply(t *testing.T, ts *TestServer, setID string) *domain.AppState {
	t.Helper()

	res, err := ts.Services.Roster.ReplaceTeamSet(t.Context(), setID, b.grid, "")
	if err != nil {
		t.Fatalf("failed to apply grid: %v", err)
	}
	return res.State
}

// CreateRequest creates an HTTP request with an optional JSON body
func CreateRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()

	var bodyReader *bytes.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}

// Do sends a request built by CreateRequest and closes the body on cleanup.
func Do(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(CreateRequest(t, method, url, body))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
