package lineup

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dom/squad-roster/internal/domain"
)

func ref(squad, slot int) domain.SlotRef {
	return domain.SlotRef{Squad: squad, Slot: slot}
}

// newModel builds a model whose squads are filled from rows ("" = empty).
func newModel(t *testing.T, rows ...[]string) *Model {
	t.Helper()
	set := domain.TeamSet{ID: "1", Name: "Defender"}
	for i, row := range rows {
		set.Squads[i] = domain.FitSquadIDs(row)
	}
	return New(&set, Options{})
}

func row(m *Model, squad int) []string {
	snap := m.Snapshot()
	out := make([]string, domain.SlotsPerSquad)
	for i, s := range snap.Squads[squad].Slots {
		out[i] = s.CharacterID
	}
	return out
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

type numberScorer map[string]int

func (s numberScorer) ScoreSquad(sq *domain.Squad) float64 {
	total := 0
	for _, slot := range sq.Slots {
		total += s[slot.CharacterID]
	}
	return float64(total) / 10
}

func TestMoveOrSwap(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]string
		src     domain.SlotRef
		dst     domain.SlotRef
		overlap float64
		want    [][]string
		outcome Outcome
	}{
		{
			name:    "move into empty slot",
			rows:    [][]string{{"a", "", "", "", ""}},
			src:     ref(0, 0),
			dst:     ref(0, 3),
			overlap: 0.1,
			want:    [][]string{{"", "", "", "a", ""}},
			outcome: Outcome{Kind: OutcomeMove},
		},
		{
			name:    "move across squads",
			rows:    [][]string{{"a", "", "", "", ""}, {"", "", "", "", ""}},
			src:     ref(0, 0),
			dst:     ref(1, 2),
			overlap: 1,
			want:    [][]string{{"", "", "", "", ""}, {"", "", "a", "", ""}},
			outcome: Outcome{Kind: OutcomeMove},
		},
		{
			name:    "swap above threshold",
			rows:    [][]string{{"a", "b", "c", "", ""}},
			src:     ref(0, 0),
			dst:     ref(0, 2),
			overlap: 0.9,
			want:    [][]string{{"c", "b", "a", "", ""}},
			outcome: Outcome{Kind: OutcomeSwap},
		},
		{
			name:    "exact threshold swaps",
			rows:    [][]string{{"a", "b", "", "", ""}},
			src:     ref(0, 0),
			dst:     ref(0, 1),
			overlap: DefaultSwapThreshold,
			want:    [][]string{{"b", "a", "", "", ""}},
			outcome: Outcome{Kind: OutcomeSwap},
		},
		{
			name:    "swap across squads",
			rows:    [][]string{{"a", "", "", "", ""}, {"x", "y", "", "", ""}},
			src:     ref(0, 0),
			dst:     ref(1, 1),
			overlap: 0.7,
			want:    [][]string{{"y", "", "", "", ""}, {"x", "a", "", "", ""}},
			outcome: Outcome{Kind: OutcomeSwap},
		},
		{
			name:    "insert shifts later slots right",
			rows:    [][]string{{"a", "b", "c", "d", "e"}},
			src:     ref(0, 3),
			dst:     ref(0, 1),
			overlap: 0.2,
			want:    [][]string{{"a", "d", "b", "c", "e"}},
			outcome: Outcome{Kind: OutcomeInsert},
		},
		{
			name:    "insert shifts earlier slots left",
			rows:    [][]string{{"a", "b", "c", "d", "e"}},
			src:     ref(0, 0),
			dst:     ref(0, 2),
			overlap: 0.2,
			want:    [][]string{{"b", "c", "a", "d", "e"}},
			outcome: Outcome{Kind: OutcomeInsert},
		},
		{
			name:    "insert uses first empty after destination",
			rows:    [][]string{{"a", "b", "", "c", ""}, {"x", "", "", "", ""}},
			src:     ref(1, 0),
			dst:     ref(0, 0),
			overlap: 0.5,
			want:    [][]string{{"x", "a", "b", "c", ""}, {"", "", "", "", ""}},
			outcome: Outcome{Kind: OutcomeInsert},
		},
		{
			name:    "insert into full squad evicts last occupant",
			rows:    [][]string{{"a", "b", "c", "d", "e"}, {"x", "", "", "", ""}},
			src:     ref(1, 0),
			dst:     ref(0, 1),
			overlap: 0,
			want:    [][]string{{"a", "x", "b", "c", "d"}, {"", "", "", "", ""}},
			outcome: Outcome{Kind: OutcomeInsert, Evicted: "e"},
		},
		{
			name:    "insert at last slot of full squad",
			rows:    [][]string{{"a", "b", "c", "d", "e"}, {"x", "", "", "", ""}},
			src:     ref(1, 0),
			dst:     ref(0, 4),
			overlap: 0,
			want:    [][]string{{"a", "b", "c", "d", "x"}, {"", "", "", "", ""}},
			outcome: Outcome{Kind: OutcomeInsert, Evicted: "e"},
		},
		{
			name:    "empty source is a no-op",
			rows:    [][]string{{"", "b", "", "", ""}},
			src:     ref(0, 0),
			dst:     ref(0, 1),
			overlap: 1,
			want:    [][]string{{"", "b", "", "", ""}},
			outcome: Outcome{Kind: OutcomeNoop},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModel(t, tt.rows...)

			out, err := m.MoveOrSwap(tt.src, tt.dst, tt.overlap)
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, out)
			for i, want := range tt.want {
				assert.Equal(t, want, row(m, i), "squad %d", i)
			}
		})
	}
}

func TestMoveOrSwap_SelfMoveIsIdentity(t *testing.T) {
	m := newModel(t, []string{"a", "b", "c", "", ""}, []string{"x", "", "", "", ""})
	before := mustJSON(t, m.Snapshot())

	for _, overlap := range []float64{0, 0.5, DefaultSwapThreshold, 1} {
		out, err := m.MoveOrSwap(ref(0, 1), ref(0, 1), overlap)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoop, out.Kind)
		assert.Equal(t, before, mustJSON(t, m.Snapshot()))
	}
}

func TestMoveOrSwap_SwapIsSymmetric(t *testing.T) {
	rows := [][]string{{"a", "b", "", "", ""}, {"", "", "c", "", ""}}
	pairs := [][2]domain.SlotRef{
		{ref(0, 0), ref(0, 1)},
		{ref(0, 1), ref(1, 2)},
		{ref(0, 0), ref(1, 2)},
	}

	for _, p := range pairs {
		forward := newModel(t, rows...)
		_, err := forward.MoveOrSwap(p[0], p[1], 1)
		require.NoError(t, err)

		backward := newModel(t, rows...)
		_, err = backward.MoveOrSwap(p[1], p[0], 1)
		require.NoError(t, err)

		assert.Equal(t, forward.Snapshot(), backward.Snapshot())
	}
}

func TestMoveOrSwap_InvalidReference(t *testing.T) {
	m := newModel(t, []string{"a", "b", "", "", ""})
	before := m.Snapshot()

	tests := []struct {
		name string
		src  domain.SlotRef
		dst  domain.SlotRef
	}{
		{name: "destination squad out of range", src: ref(0, 0), dst: ref(99, 0)},
		{name: "source slot out of range", src: ref(0, 5), dst: ref(0, 1)},
		{name: "negative source", src: ref(-1, 0), dst: ref(0, 1)},
		{name: "negative destination slot", src: ref(0, 0), dst: ref(0, -1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.MoveOrSwap(tt.src, tt.dst, 1)
			assert.ErrorIs(t, err, domain.ErrInvalidSlotReference)
			assert.Equal(t, before, m.Snapshot())
		})
	}
}

func TestAssignRemoveClear(t *testing.T) {
	m := newModel(t)

	require.NoError(t, m.Assign(ref(2, 3), "a"))
	assert.Equal(t, []string{"", "", "", "a", ""}, row(m, 2))

	require.NoError(t, m.Assign(ref(2, 3), "b"))
	assert.Equal(t, []string{"", "", "", "b", ""}, row(m, 2))

	require.NoError(t, m.Remove(ref(2, 3)))
	assert.Equal(t, []string{"", "", "", "", ""}, row(m, 2))

	require.NoError(t, m.Assign(ref(4, 0), "c"))
	require.NoError(t, m.Assign(ref(4, 4), "d"))
	require.NoError(t, m.Clear(4))
	assert.Equal(t, []string{"", "", "", "", ""}, row(m, 4))

	assert.ErrorIs(t, m.Assign(ref(99, 0), "x"), domain.ErrInvalidSlotReference)
	assert.ErrorIs(t, m.Remove(ref(0, 7)), domain.ErrInvalidSlotReference)
	assert.ErrorIs(t, m.Clear(5), domain.ErrInvalidSlotReference)
}

func TestPlaceAndToggle(t *testing.T) {
	m := newModel(t, []string{"a", "", "", "", ""})

	r, err := m.Place("b")
	require.NoError(t, err)
	assert.Equal(t, ref(0, 1), r)

	added, err := m.Toggle("c")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"a", "b", "c", "", ""}, row(m, 0))

	require.NoError(t, m.Assign(ref(3, 3), "a"))
	added, err = m.Toggle("a")
	require.NoError(t, err)
	assert.False(t, added)
	assert.False(t, m.Contains("a"))
	assert.Equal(t, []string{"", "b", "c", "", ""}, row(m, 0))

	_, err = m.Toggle("")
	assert.Error(t, err)
}

func TestPlace_FullSet(t *testing.T) {
	full := []string{"a", "b", "c", "d", "e"}
	m := newModel(t, full, full, full, full, full)

	_, err := m.Place("z")
	assert.ErrorIs(t, err, domain.ErrTeamSetFull)
	_, err = m.Toggle("z")
	assert.ErrorIs(t, err, domain.ErrTeamSetFull)
	assert.False(t, m.Contains("z"))
}

func TestScoresFollowMutations(t *testing.T) {
	set := domain.TeamSet{ID: "1"}
	set.Squads[0] = domain.FitSquadIDs([]string{"a", "b"})
	m := New(&set, Options{Scorer: numberScorer{"a": 20, "b": 15, "c": 5}})

	assert.InDelta(t, 3.5, m.Snapshot().Squads[0].Score, 1e-9)

	_, err := m.MoveOrSwap(ref(0, 0), ref(1, 0), 1)
	require.NoError(t, err)
	snap := m.Snapshot()
	assert.InDelta(t, 1.5, snap.Squads[0].Score, 1e-9)
	assert.InDelta(t, 2.0, snap.Squads[1].Score, 1e-9)

	// Failed operations leave scores alone
	require.Error(t, m.Assign(ref(9, 9), "c"))
	assert.Equal(t, snap, m.Snapshot())
}

func TestNew_CopiesInput(t *testing.T) {
	set := domain.TeamSet{ID: "1"}
	m := New(&set, Options{})
	require.NoError(t, m.Assign(ref(0, 0), "a"))

	assert.True(t, set.Squads[0].Slots[0].IsEmpty())
	assert.Equal(t, DefaultSwapThreshold, m.SwapThreshold())
}

// Every squad keeps exactly five slots and no character is duplicated by a
// drag, whatever sequence of operations runs.
func TestRandomOperations_KeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	randRef := func() domain.SlotRef {
		// Occasionally out of range
		return ref(rng.Intn(domain.SquadsPerSet+1), rng.Intn(domain.SlotsPerSquad+1))
	}
	chars := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	m := newModel(t)
	for i := 0; i < 2000; i++ {
		before := m.Snapshot()
		countBefore := occupied(before)

		switch rng.Intn(6) {
		case 0:
			_ = m.Assign(randRef(), chars[rng.Intn(len(chars))])
		case 1:
			_ = m.Remove(randRef())
		case 2:
			_ = m.Clear(rng.Intn(domain.SquadsPerSet + 1))
		case 3:
			_, _ = m.Toggle(chars[rng.Intn(len(chars))])
		default:
			out, err := m.MoveOrSwap(randRef(), randRef(), rng.Float64())
			if err != nil {
				assert.Equal(t, before, m.Snapshot())
				break
			}
			after := occupied(m.Snapshot())
			if out.Evicted != "" {
				assert.Equal(t, countBefore-1, after)
			} else {
				assert.Equal(t, countBefore, after)
			}
		}

		snap := m.Snapshot()
		raw := mustJSON(t, snap)
		var decoded struct {
			Squads []struct {
				Slots []json.RawMessage `json:"slots"`
			} `json:"squads"`
		}
		require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
		require.Len(t, decoded.Squads, domain.SquadsPerSet)
		for _, sq := range decoded.Squads {
			require.Len(t, sq.Slots, domain.SlotsPerSquad)
		}
	}
}

func occupied(set domain.TeamSet) int {
	n := 0
	for _, sq := range set.Squads {
		n += len(sq.CharacterIDs())
	}
	return n
}
