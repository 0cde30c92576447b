package handlers_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dom/squad-roster/internal/api/handlers"
	"github.com/dom/squad-roster/internal/domain"
	"github.com/dom/squad-roster/internal/service"
	"github.com/dom/squad-roster/internal/testutil"
)

func librarySetNames(res service.LibraryResult) []string {
	names := make([]string, len(res.Sets))
	for i, s := range res.Sets {
		names[i] = s.Name
	}
	return names
}

func TestLibraryHandler_SaveListDelete(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewGridBuilder().WithSquad(0, "65", "12").Apply(t, ts, "1")

	resp := testutil.Do(t, http.MethodGet, ts.APIURL("/library"), nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var empty service.LibraryResult
	testutil.AssertJSONResponse(t, resp, &empty)
	assert.Empty(t, empty.Sets)

	for _, name := range []string{"Raid", "arena"} {
		resp = testutil.Do(t, http.MethodPost, ts.APIURL("/library"), handlers.SaveSetRequest{Name: name, TeamSetID: "active"})
		testutil.AssertStatusCode(t, resp, http.StatusCreated)
	}

	resp = testutil.Do(t, http.MethodPost, ts.APIURL("/library"), handlers.SaveSetRequest{Name: "Raid", TeamSetID: "1"})
	testutil.AssertStatusCode(t, resp, http.StatusConflict)

	resp = testutil.Do(t, http.MethodPost, ts.APIURL("/library"), handlers.SaveSetRequest{Name: "Raid", TeamSetID: "2", Overwrite: true})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	resp = testutil.Do(t, http.MethodPost, ts.APIURL("/library"), handlers.SaveSetRequest{Name: "   "})
	testutil.AssertStatusCode(t, resp, http.StatusBadRequest)

	resp = testutil.Do(t, http.MethodGet, ts.APIURL("/library"), nil)
	var listed service.LibraryResult
	testutil.AssertJSONResponse(t, resp, &listed)
	assert.Equal(t, []string{"arena", "Raid"}, librarySetNames(listed))
	assert.Equal(t, "", listed.Sets[1].Squads[0][0], "overwritten from the empty set")

	resp = testutil.Do(t, http.MethodDelete, ts.APIURL("/library/arena"), nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var afterDelete service.LibraryResult
	testutil.AssertJSONResponse(t, resp, &afterDelete)
	assert.Equal(t, []string{"Raid"}, librarySetNames(afterDelete))

	resp = testutil.Do(t, http.MethodDelete, ts.APIURL("/library/arena"), nil)
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)
}

func TestLibraryHandler_RenameAndLoad(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewGridBuilder().WithSquad(0, "65", "12").WithSquad(4, "", "3").Apply(t, ts, "1")

	resp := testutil.Do(t, http.MethodPost, ts.APIURL("/library"), handlers.SaveSetRequest{Name: "Raid", TeamSetID: "1"})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	resp = testutil.Do(t, http.MethodPut, ts.APIURL("/library/Raid/name"), handlers.RenameRequest{Name: "Solo Raid"})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	resp = testutil.Do(t, http.MethodPost, ts.APIURL("/library/"+url.PathEscape("Solo Raid")+"/load"), handlers.LoadSetRequest{TeamSetID: "2"})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var loaded service.Result
	testutil.AssertJSONResponse(t, resp, &loaded)
	testutil.AssertSquad(t, loaded.State, "2", 0, "65", "12")
	testutil.AssertSquad(t, loaded.State, "2", 4, "", "3")
	assert.Equal(t, "Solo Raid", loaded.State.TeamSets[1].DisplayName())

	resp = testutil.Do(t, http.MethodPost, ts.APIURL("/library/missing/load"), handlers.LoadSetRequest{})
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)
}

func TestLibraryHandler_ShareAndImport(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewGridBuilder().WithSquad(0, "65", "", "12").Apply(t, ts, "1")

	resp := testutil.Do(t, http.MethodPut, ts.APIURL("/teamsets/1/name"), handlers.RenameRequest{Name: "Max: boss"})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	resp = testutil.Do(t, http.MethodGet, ts.APIURL("/teamsets/1/sharecode"), nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var shared service.ShareResult
	testutil.AssertJSONResponse(t, resp, &shared)
	assert.Equal(t, "Ma-x--colon- boss:65xx12", shared.Code)
	assert.Equal(t, "```sharecode\nMa-x--colon- boss:65xx12\n```", shared.Fenced)

	resp = testutil.Do(t, http.MethodPost, ts.APIURL("/library/import"), handlers.ImportRequest{Code: shared.Fenced})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)
	var imported service.ImportResult
	testutil.AssertJSONResponse(t, resp, &imported)
	assert.Equal(t, "Max: boss", imported.Saved.Name)
	assert.Equal(t, "65", imported.Saved.Squads[0][0])
	assert.Equal(t, "12", imported.Saved.Squads[0][2])
	assert.Empty(t, imported.Unknown)

	// Same code again gets a suffixed name; unknown ids are dropped.
	resp = testutil.Do(t, http.MethodPost, ts.APIURL("/library/import"), handlers.ImportRequest{Code: "Max-colon- boss:65x404"})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)
	var second service.ImportResult
	testutil.AssertJSONResponse(t, resp, &second)
	assert.Equal(t, "Max: boss (2)", second.Saved.Name)
	assert.Equal(t, []string{"404"}, second.Unknown)
	assert.Equal(t, "", second.Saved.Squads[0][1])

	resp = testutil.Do(t, http.MethodGet, ts.APIURL("/library/"+url.PathEscape("Max: boss")+"/sharecode"), nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var again service.ShareResult
	testutil.AssertJSONResponse(t, resp, &again)
	assert.Equal(t, shared.Code, again.Code)

	resp = testutil.Do(t, http.MethodPost, ts.APIURL("/library/import"), handlers.ImportRequest{Code: "  "})
	testutil.AssertStatusCode(t, resp, http.StatusBadRequest)
}

func TestLibraryHandler_RejectsUnknownFields(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := testutil.Do(t, http.MethodPost, ts.APIURL("/library"), map[string]string{"title": "x"})
	require.NotNil(t, resp)
	testutil.AssertStatusCode(t, resp, http.StatusBadRequest)
}

func TestLibraryHandler_BackupRestore(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewGridBuilder().WithSquad(0, "65", "12").Apply(t, ts, "1")

	resp := testutil.Do(t, http.MethodPost, ts.APIURL("/library"), handlers.SaveSetRequest{Name: "Raid", TeamSetID: "1"})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	resp = testutil.Do(t, http.MethodGet, ts.APIURL("/library/backup"), nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "saved_team_sets_")
	var backup domain.LibraryBackup
	testutil.AssertJSONResponse(t, resp, &backup)
	assert.Equal(t, domain.BackupType, backup.Type)
	require.Len(t, backup.Sets, 1)

	other := testutil.NewTestServer(t)
	resp = testutil.Do(t, http.MethodPost, other.APIURL("/library"), handlers.SaveSetRequest{Name: "Raid", TeamSetID: "2"})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	resp = testutil.Do(t, http.MethodPost, other.APIURL("/library/restore?mode=skip"), backup)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var skipped service.RestoreResult
	testutil.AssertJSONResponse(t, resp, &skipped)
	assert.Equal(t, []string{"Raid"}, skipped.Skipped)
	assert.Equal(t, "", skipped.Sets[0].Squads[0][0])

	resp = testutil.Do(t, http.MethodPost, other.APIURL("/library/restore"), backup)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var merged service.RestoreResult
	testutil.AssertJSONResponse(t, resp, &merged)
	assert.Equal(t, []string{"Raid"}, merged.Replaced)
	assert.Equal(t, "65", merged.Sets[0].Squads[0][0])

	resp = testutil.Do(t, http.MethodPost, other.APIURL("/library/restore?mode=wipe"), backup)
	testutil.AssertStatusCode(t, resp, http.StatusBadRequest)

	resp = testutil.Do(t, http.MethodPost, other.APIURL("/library/restore"), map[string]string{"type": "other"})
	testutil.AssertStatusCode(t, resp, http.StatusBadRequest)
}
