package state

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	gametypes "github.com/cbodonnell/panchali/pkg/game/types"
	"github.com/cbodonnell/panchali/pkg/repositories"
	"github.com/cbodonnell/panchali/pkg/repositories/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.UnixMilli(1700000000000).UTC()

func newTestReconciler(t *testing.T) (*Reconciler, repositories.Repository, *InMemoryStateManager) {
	t.Helper()
	ctx := context.Background()
	repo, err := repositories.NewSQLiteRepository(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close(ctx) })

	states := NewInMemoryStateManager()
	r := NewReconciler(NewReconcilerOptions{
		Repository:   repo,
		StateManager: states,
		Now:          func() time.Time { return fixedNow },
	})
	return r, repo, states
}

func seedPlayingRoom(t *testing.T, repo repositories.Repository, status models.RoomStatus) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.CreateRoom(ctx, &models.Room{ID: "room-1", Code: "ABC234", HostName: "A", Status: status, CreatedAt: fixedNow}))
	for i, name := range []string{"A", "B"} {
		require.NoError(t, repo.CreatePlayer(ctx, &models.Player{
			ID:           "p" + name,
			RoomID:       "room-1",
			Name:         name,
			ConnectionID: "conn-" + name,
			AuthToken:    "token-" + name,
			IsAlive:      true,
			IsHost:       i == 0,
			JoinOrder:    i,
			JoinedAt:     fixedNow,
		}))
	}
}

func TestReconciler_SaveThenRestore(t *testing.T) {
	ctx := context.Background()
	r, repo, states := newTestReconciler(t)
	seedPlayingRoom(t, repo, models.RoomStatusPlaying)

	live := gametypes.NewGameState("room-1", "ABC234")
	live.AddPlayer(&gametypes.PlayerState{ID: "pA", Name: "A", Position: 9, Ballots: 3, HasCompletedCircle: true, IsAlive: true, IsConnected: true, JailTurnsRemaining: 1})
	live.AddPlayer(&gametypes.PlayerState{ID: "pB", Name: "B", Position: 4, Ballots: -2, IsAlive: true, IsConnected: true})
	live.CurrentTurnIndex = 1
	live.AppendLog(gametypes.ActionLogEntry{Type: gametypes.ActionRoll, PlayerID: "pA", DiceValue: 3, Message: "rolled", Timestamp: 1})
	require.NoError(t, r.Save(ctx, live))

	checkpoint, err := NewCheckpoint(live, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "pB", checkpoint.CurrentTurnPlayerID)
	require.NoError(t, repo.SaveCheckpoint(ctx, checkpoint))

	restored, err := r.Restore(ctx, "room-1")
	require.NoError(t, err)

	assert.Equal(t, "ABC234", restored.RoomCode)
	assert.Equal(t, []string{"pA", "pB"}, restored.Order)
	assert.Equal(t, 0, restored.CurrentTurnIndex)
	assert.False(t, restored.IsGameOver)

	a := restored.Players["pA"]
	assert.Equal(t, 9, a.Position)
	assert.Equal(t, 3, a.Ballots)
	assert.True(t, a.HasCompletedCircle)
	assert.True(t, a.IsAlive)
	assert.False(t, a.IsConnected)
	// jail time is not persisted
	assert.Equal(t, 0, a.JailTurnsRemaining)

	b := restored.Players["pB"]
	assert.Equal(t, 4, b.Position)
	assert.Equal(t, -2, b.Ballots)
	assert.False(t, b.HasCompletedCircle)
	assert.True(t, b.IsAlive)

	require.Len(t, restored.ActionLog, 2)
	assert.Equal(t, gametypes.ActionRoll, restored.ActionLog[0].Type)
	last := restored.ActionLog[1]
	assert.Equal(t, gametypes.ActionSystem, last.Type)
	assert.Equal(t, "Game state restored", last.Message)
	assert.Equal(t, fixedNow.UnixMilli(), last.Timestamp)

	registered, ok := states.Get(ctx, "room-1")
	require.True(t, ok)
	assert.Same(t, restored, registered)
}

func TestReconciler_RestoreWithoutCheckpoint(t *testing.T) {
	ctx := context.Background()
	r, repo, _ := newTestReconciler(t)
	seedPlayingRoom(t, repo, models.RoomStatusPlaying)

	restored, err := r.Restore(ctx, "room-1")
	require.NoError(t, err)
	require.Len(t, restored.ActionLog, 1)
	assert.Equal(t, "গেম পুনরুদ্ধার করা হয়েছে", restored.ActionLog[0].MessageBn)
}

func TestReconciler_RestoreRejects(t *testing.T) {
	ctx := context.Background()

	r, repo, states := newTestReconciler(t)
	seedPlayingRoom(t, repo, models.RoomStatusWaiting)
	_, err := r.Restore(ctx, "room-1")
	assert.ErrorIs(t, err, ErrNotRestorable)
	assert.Empty(t, states.RoomIDs())

	_, err = r.Restore(ctx, "room-unknown")
	assert.True(t, repositories.IsNotFound(err))

	require.NoError(t, repo.CreateRoom(ctx, &models.Room{ID: "room-2", Code: "EMPTY2", HostName: "x", Status: models.RoomStatusWaiting, CreatedAt: fixedNow}))
	require.NoError(t, repo.UpdateRoomStatus(ctx, "room-2", models.RoomStatusWaiting, models.RoomStatusPlaying))
	_, err = r.Restore(ctx, "room-2")
	assert.ErrorIs(t, err, ErrNotRestorable)
}

func TestNewCheckpoint(t *testing.T) {
	gs := gametypes.NewGameState("room-1", "ABC234")
	cp, err := NewCheckpoint(gs, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "", cp.CurrentTurnPlayerID)
	assert.JSONEq(t, "[]", string(cp.ActionLog))

	var entries []gametypes.ActionLogEntry
	require.NoError(t, json.Unmarshal(cp.ActionLog, &entries))
	assert.Empty(t, entries)
}
