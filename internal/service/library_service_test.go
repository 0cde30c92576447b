package service_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dom/squad-roster/internal/domain"
	"github.com/dom/squad-roster/internal/repository"
	"github.com/dom/squad-roster/internal/sharecode"
)

func TestLibraryService_SaveLoad(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 0)
	roster, library := h.services.Roster, h.services.Library

	_, err := roster.Assign(ctx, "1", ref(0, 0), "65")
	require.NoError(t, err)
	_, err = roster.Assign(ctx, "1", ref(3, 4), "7")
	require.NoError(t, err)

	res, err := library.Save(ctx, "Raid", "1", false)
	require.NoError(t, err)
	require.Len(t, res.Sets, 1)
	assert.Equal(t, "Raid", res.Sets[0].Name)
	assert.Equal(t, "65", res.Sets[0].Squads[0][0])
	assert.False(t, res.Sets[0].SavedAt.IsZero())

	_, err = library.Save(ctx, "Raid", "1", false)
	assert.ErrorIs(t, err, domain.ErrSavedSetExists)
	_, err = library.Save(ctx, "Raid", "1", true)
	require.NoError(t, err)

	_, err = library.Save(ctx, "  ", "1", false)
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	loaded, err := library.Load(ctx, "Raid", "2")
	require.NoError(t, err)
	assert.Equal(t, "Raid", loaded.State.TeamSets[1].DisplayName())
	assert.Equal(t, loaded.State.TeamSets[0].Grid(), loaded.State.TeamSets[1].Grid())

	_, err = library.Load(ctx, "Missing", "2")
	assert.ErrorIs(t, err, domain.ErrSavedSetNotFound)
}

func TestLibraryService_RenameDelete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 0)
	library := h.services.Library

	for _, name := range []string{"b-set", "A-set"} {
		_, err := library.Save(ctx, name, "", false)
		require.NoError(t, err)
	}

	list, err := library.List(ctx)
	require.NoError(t, err)
	require.Len(t, list.Sets, 2)
	assert.Equal(t, "A-set", list.Sets[0].Name, "listed by name")

	_, err = library.Rename(ctx, "b-set", "A-set")
	assert.ErrorIs(t, err, domain.ErrSavedSetExists)
	_, err = library.Rename(ctx, "nope", "C")
	assert.ErrorIs(t, err, domain.ErrSavedSetNotFound)

	res, err := library.Rename(ctx, "b-set", "C-set")
	require.NoError(t, err)
	assert.Equal(t, "C-set", res.Sets[1].Name)

	res, err = library.Delete(ctx, "A-set")
	require.NoError(t, err)
	require.Len(t, res.Sets, 1)
	_, err = library.Delete(ctx, "A-set")
	assert.ErrorIs(t, err, domain.ErrSavedSetNotFound)
}

func TestLibraryService_ShareAndImport(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 0)
	roster, library := h.services.Roster, h.services.Library

	_, err := roster.Assign(ctx, "1", ref(0, 0), "65")
	require.NoError(t, err)
	_, err = roster.Assign(ctx, "1", ref(0, 2), "12")
	require.NoError(t, err)
	_, err = library.Save(ctx, "Box: x", "1", false)
	require.NoError(t, err)

	shared, err := library.ShareCode(ctx, "Box: x")
	require.NoError(t, err)
	assert.Equal(t, "Bo-x--colon- -x-:65xx12", shared.Code)
	assert.True(t, strings.HasPrefix(shared.Fenced, "```sharecode\n"))

	live, err := library.ShareTeamSet("1")
	require.NoError(t, err)
	assert.Equal(t, "Defender:65xx12", live.Code)

	imported, err := library.Import(ctx, shared.Fenced, "")
	require.NoError(t, err)
	assert.Equal(t, "Box: x (2)", imported.Saved.Name, "taken names get a suffix")
	assert.Equal(t, [5]string{"65", "", "12"}, imported.Saved.Squads[0])
	assert.Empty(t, imported.Unknown)

	_, err = library.ShareCode(ctx, "Nope")
	assert.ErrorIs(t, err, domain.ErrSavedSetNotFound)
}

func TestLibraryService_ImportDropsUnknownIDs(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 0)

	var grid [domain.SquadsPerSet][domain.SlotsPerSquad]string
	grid[0] = [5]string{"65", "404", "7"}
	code := sharecode.Encode("", grid)

	res, err := h.services.Library.Import(ctx, code, "Mine")
	require.NoError(t, err)
	assert.Equal(t, "Mine", res.Saved.Name)
	assert.Equal(t, []string{"404"}, res.Unknown)
	assert.Equal(t, [5]string{"65", "", "7"}, res.Saved.Squads[0])

	_, err = h.services.Library.Import(ctx, "```sharecode\n```", "")
	assert.ErrorIs(t, err, domain.ErrInvalidShareCode)
}

func TestLibraryService_ImportWithoutNameUsesTimestamp(t *testing.T) {
	h := newHarness(t, 0)
	res, err := h.services.Library.Import(context.Background(), "65x12", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Saved.Name, "Imported Set "))
}

func TestLibraryService_CorruptLibraryIsReset(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 0)
	require.NoError(t, h.repo.Put(ctx, repository.KeySavedSets, []byte("nope")))

	list, err := h.services.Library.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list.Sets)
	assert.NotEmpty(t, list.Warning)

	_, err = h.repo.Get(ctx, repository.KeySavedSets)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLibraryService_CorruptLibraryWarnsOnWrite(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 0)
	require.NoError(t, h.repo.Put(ctx, repository.KeySavedSets, []byte("nope")))

	res, err := h.services.Library.Save(ctx, "Raid", "1", false)
	require.NoError(t, err)
	assert.Len(t, res.Sets, 1)
	assert.Contains(t, res.Warning, "reset")

	again, err := h.services.Library.Save(ctx, "Arena", "1", false)
	require.NoError(t, err)
	assert.Empty(t, again.Warning, "reported once")

	require.NoError(t, h.repo.Put(ctx, repository.KeySavedSets, []byte("nope")))
	imported, err := h.services.Library.Import(ctx, "65x12", "Shared")
	require.NoError(t, err)
	assert.Contains(t, imported.Warning, "reset")
}

func TestLibraryService_BackupRestore(t *testing.T) {
	ctx := context.Background()
	src := newHarness(t, 0)

	_, err := src.services.Roster.Assign(ctx, "1", ref(0, 0), "65")
	require.NoError(t, err)
	for _, name := range []string{"Raid", "Arena"} {
		_, err := src.services.Library.Save(ctx, name, "1", false)
		require.NoError(t, err)
	}

	backup, err := src.services.Library.Backup(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.BackupType, backup.Backup.Type)
	assert.Equal(t, domain.BackupVersion, backup.Backup.Version)
	assert.Equal(t, 2, backup.Backup.SetCount)
	assert.Equal(t, "Arena", backup.Backup.Sets[0].Name)

	data, err := json.Marshal(backup.Backup)
	require.NoError(t, err)

	tests := []struct {
		name     string
		mode     domain.RestoreMode
		wantSets []string
		added    []string
		replaced []string
		skipped  []string
	}{
		{"merge overwrites same names", domain.RestoreMerge, []string{"Arena", "Mine", "Raid"}, []string{"Arena"}, []string{"Raid"}, nil},
		{"replace drops the current library", domain.RestoreReplace, []string{"Arena", "Raid"}, []string{"Arena", "Raid"}, nil, nil},
		{"skip keeps existing names", domain.RestoreSkip, []string{"Arena", "Mine", "Raid"}, []string{"Arena"}, nil, []string{"Raid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := newHarness(t, 0)
			_, err := dst.services.Library.Save(ctx, "Raid", "2", false)
			require.NoError(t, err)
			_, err = dst.services.Library.Save(ctx, "Mine", "2", false)
			require.NoError(t, err)

			res, err := dst.services.Library.Restore(ctx, data, tt.mode)
			require.NoError(t, err)

			names := make([]string, len(res.Sets))
			for i, s := range res.Sets {
				names[i] = s.Name
			}
			assert.Equal(t, tt.wantSets, names)
			assert.ElementsMatch(t, tt.added, res.Added)
			assert.ElementsMatch(t, tt.replaced, res.Replaced)
			assert.ElementsMatch(t, tt.skipped, res.Skipped)

			list, err := dst.services.Library.List(ctx)
			require.NoError(t, err)
			raid := list.Sets[len(list.Sets)-1]
			require.Equal(t, "Raid", raid.Name)
			if tt.mode == domain.RestoreSkip {
				assert.Equal(t, "", raid.Squads[0][0])
			} else {
				assert.Equal(t, "65", raid.Squads[0][0])
			}
		})
	}
}

func TestLibraryService_RestoreRejectsBadDocuments(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 0)
	_, err := h.services.Library.Save(ctx, "Keep", "1", false)
	require.NoError(t, err)

	bad := []string{
		`not json`,
		`{"version": "1.1", "type": "something-else", "sets": []}`,
		`{"version": "2.0", "type": "squad-roster-saved-sets", "sets": []}`,
		`{"version": "1.0", "type": "squad-roster-saved-sets", "sets": [{"name": "  "}]}`,
	}
	for _, doc := range bad {
		_, err := h.services.Library.Restore(ctx, []byte(doc), domain.RestoreReplace)
		assert.ErrorIs(t, err, domain.ErrInvalidBackup, doc)
	}

	list, err := h.services.Library.List(ctx)
	require.NoError(t, err)
	require.Len(t, list.Sets, 1, "a rejected document changes nothing")
}

func TestLibraryService_RestoreDropsUnknownIDs(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 0)

	doc := `{
		"version": "1.0",
		"type": "squad-roster-saved-sets",
		"sets": [
			{"name": "Old", "squads": [["65", "404", "7", "", "", "extra"]]},
			{"name": "Old", "squads": [["12"]]}
		]
	}`
	res, err := h.services.Library.Restore(ctx, []byte(doc), domain.RestoreMerge)
	require.NoError(t, err)
	require.Len(t, res.Sets, 1, "last set of a name wins")
	assert.Equal(t, [5]string{"12"}, res.Sets[0].Squads[0])
	assert.Empty(t, res.Unknown)
	assert.False(t, res.Sets[0].SavedAt.IsZero())

	doc = `{"version": "1.0", "type": "squad-roster-saved-sets", "sets": [{"name": "New", "squads": [["65", "404", "7"]]}]}`
	res, err = h.services.Library.Restore(ctx, []byte(doc), domain.RestoreMerge)
	require.NoError(t, err)
	assert.Equal(t, []string{"404"}, res.Unknown)
	assert.Equal(t, [5]string{"65", "", "7"}, res.Sets[0].Squads[0])
}
