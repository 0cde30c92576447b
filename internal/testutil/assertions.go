package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dom/squad-roster/internal/domain"
)

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse decodes JSON response into v and verifies success
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertErrorResponse verifies error response with expected status and message
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	// Error responses are plain text in this API
	assert.Contains(t, string(body), expectedMessage, "error message mismatch")
}

// AssertSlot verifies the character held by one slot ("" = Empty)
func AssertSlot(t *testing.T, state *domain.AppState, setID string, ref domain.SlotRef, expected string) {
	t.Helper()

	i, ok := state.SetIndex(setID)
	require.True(t, ok, "team set %s not found", setID)
	assert.Equal(t, expected, state.TeamSets[i].Slot(ref).CharacterID, "unexpected occupant at %+v", ref)
}

// AssertSquad verifies a whole squad in slot order ("" = Empty)
func AssertSquad(t *testing.T, state *domain.AppState, setID string, squad int, expected ...string) {
	t.Helper()

	i, ok := state.SetIndex(setID)
	require.True(t, ok, "team set %s not found", setID)
	want := domain.FitSquadIDs(expected)
	got := state.TeamSets[i].Squads[squad]
	for j := range want.Slots {
		assert.Equal(t, want.Slots[j].CharacterID, got.Slots[j].CharacterID, "squad %d slot %d", squad, j)
	}
}
