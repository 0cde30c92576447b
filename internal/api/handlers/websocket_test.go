package handlers_test

import (
	"net/http"
	"testing"
	"time"

	gorillaWS "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dom/squad-roster/internal/domain"
	"github.com/dom/squad-roster/internal/lineup"
	"github.com/dom/squad-roster/internal/testutil"
	"github.com/dom/squad-roster/internal/websocket"
)

const defaultTimeout = 5 * time.Second

func refPtr(squad, slot int) *domain.SlotRef {
	r := ref(squad, slot)
	return &r
}

func TestWebSocket_SyncOnConnect(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewGridBuilder().WithSquad(0, "65").Apply(t, ts, "1")

	client := testutil.NewWSClient(t, ts.WebSocketURL())
	sync := client.ExpectStateSync(defaultTimeout)

	testutil.AssertSlot(t, sync.State, "1", ref(0, 0), "65")
	assert.Equal(t, lineup.DefaultSwapThreshold, sync.SwapThreshold)

	client.SyncState()
	again := client.ExpectStateSync(defaultTimeout)
	assert.Equal(t, sync.State, again.State)
}

func TestWebSocket_DragCommitsAndBroadcasts(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewGridBuilder().WithSquad(0, "65", "12", "20").Apply(t, ts, "1")

	dragger := testutil.NewWSClient(t, ts.WebSocketURL())
	watcher := testutil.NewWSClient(t, ts.WebSocketURL())
	dragger.ExpectStateSync(defaultTimeout)
	watcher.ExpectStateSync(defaultTimeout)

	dragger.DragStart("1", ref(0, 0))
	dragger.DragOver(refPtr(0, 2), 0.8)
	preview := dragger.ExpectDragPreview(defaultTimeout)
	assert.Equal(t, websocket.PreviewSwap, preview.Action)

	dragger.DragEnd(refPtr(0, 2), 0.8)
	result := dragger.ExpectDragResult(defaultTimeout)
	assert.Equal(t, lineup.OutcomeSwap, result.Outcome.Kind)

	update := watcher.ExpectStateSyncWhere(func(s *domain.AppState) bool {
		return s.TeamSets[0].Squads[0].Slots[0].CharacterID == "20"
	}, defaultTimeout)
	testutil.AssertSquad(t, update.State, "1", 0, "20", "12", "65")
	testutil.AssertSquad(t, ts.Services.Roster.State(), "1", 0, "20", "12", "65")
}

func TestWebSocket_CancelledDragLeavesStateAlone(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewGridBuilder().WithSquad(0, "65", "12").Apply(t, ts, "1")
	writes := ts.Repo.Writes()

	client := testutil.NewWSClient(t, ts.WebSocketURL())
	client.ExpectStateSync(defaultTimeout)

	// Cancelled mid-drag.
	client.DragStart("1", ref(0, 0))
	client.DragOver(refPtr(0, 1), 0.9)
	client.ExpectDragPreview(defaultTimeout)
	client.DragCancel()
	client.DragEnd(refPtr(0, 1), 0.9)

	// Dropped outside every slot.
	client.DragStart("1", ref(0, 1))
	client.DragEnd(nil, 0)

	client.SyncState()
	sync := client.ExpectStateSync(defaultTimeout)
	testutil.AssertSquad(t, sync.State, "1", 0, "65", "12")
	assert.Equal(t, writes, ts.Repo.Writes())
}

func TestWebSocket_Errors(t *testing.T) {
	ts := testutil.NewTestServer(t)

	client := testutil.NewWSClient(t, ts.WebSocketURL())
	client.ExpectStateSync(defaultTimeout)

	client.DragStart("1", ref(0, 0))
	client.ExpectErrorWithCode("EMPTY_SOURCE", defaultTimeout)

	client.DragStart("1", ref(99, 0))
	client.ExpectErrorWithCode("INVALID_SLOT", defaultTimeout)

	client.DragStart("9", ref(0, 0))
	client.ExpectErrorWithCode("TEAM_SET_NOT_FOUND", defaultTimeout)
}

func TestWebSocket_RejectsForeignOrigin(t *testing.T) {
	ts := testutil.NewTestServer(t)

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	_, resp, err := gorillaWS.DefaultDialer.Dial(ts.WebSocketURL(), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebSocket_RESTChangesAreBroadcast(t *testing.T) {
	ts := testutil.NewTestServer(t)

	client := testutil.NewWSClient(t, ts.WebSocketURL())
	client.ExpectStateSync(defaultTimeout)

	resp := testutil.Do(t, http.MethodPut, ts.APIURL("/teamsets/1/squads/3/slots/1"), map[string]string{"characterId": "7"})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	update := client.ExpectStateSyncWhere(func(s *domain.AppState) bool {
		return s.TeamSets[0].Squads[3].Slots[1].CharacterID == "7"
	}, defaultTimeout)
	testutil.AssertSlot(t, update.State, "1", ref(3, 1), "7")
}
