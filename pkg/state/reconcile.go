package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cbodonnell/panchali/pkg/game"
	gametypes "github.com/cbodonnell/panchali/pkg/game/types"
	"github.com/cbodonnell/panchali/pkg/locale"
	"github.com/cbodonnell/panchali/pkg/log"
	"github.com/cbodonnell/panchali/pkg/repositories"
	"github.com/cbodonnell/panchali/pkg/repositories/models"
)

// ErrNotRestorable is returned by Restore for rooms without a game in progress.
var ErrNotRestorable = errors.New("room has no game in progress")

// Reconciler keeps live games and durable player records in step.
type Reconciler struct {
	repository repositories.Repository
	states     StateManager
	now        func() time.Time
}

type NewReconcilerOptions struct {
	Repository   repositories.Repository
	StateManager StateManager
	// Now defaults to time.Now
	Now func() time.Time
}

func NewReconciler(opts NewReconcilerOptions) *Reconciler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Reconciler{
		repository: opts.Repository,
		states:     opts.StateManager,
		now:        now,
	}
}

// Save writes every player's progress. Callers hold the room lock and
// call Save before broadcasting the change it records.
func (r *Reconciler) Save(ctx context.Context, gs *gametypes.GameState) error {
	if err := r.repository.SaveGameState(ctx, gs); err != nil {
		return fmt.Errorf("failed to save game state for room %s: %v", gs.RoomID, err)
	}
	return nil
}

// Restore rebuilds the live game of a playing room from durable records
// and registers it. The turn restarts at index 0 and every player starts
// disconnected until they rejoin. Callers hold the room lock.
func (r *Reconciler) Restore(ctx context.Context, roomID string) (*gametypes.GameState, error) {
	room, err := r.repository.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load room %s: %w", roomID, err)
	}
	if room.Status != models.RoomStatusPlaying {
		return nil, ErrNotRestorable
	}

	players, err := r.repository.ListPlayers(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load players of room %s: %w", roomID, err)
	}
	if len(players) == 0 {
		return nil, ErrNotRestorable
	}

	gs := gametypes.NewGameState(room.ID, room.Code)
	for _, p := range players {
		gs.AddPlayer(&gametypes.PlayerState{
			ID:                 p.ID,
			Name:               p.Name,
			ConnectionID:       p.ConnectionID,
			Position:           p.Position,
			Ballots:            p.Ballots,
			HasCompletedCircle: p.HasCompletedCircle,
			IsAlive:            p.IsAlive,
			IsConnected:        false,
		})
	}

	logger := log.With("room", room.Code)
	checkpoint, err := r.repository.LoadCheckpoint(ctx, roomID)
	switch {
	case err == nil:
		var entries []gametypes.ActionLogEntry
		if err := json.Unmarshal(checkpoint.ActionLog, &entries); err != nil {
			logger.Warn("Discarding unreadable action log: %v", err)
		} else {
			gs.ActionLog = entries
		}
		if checkpoint.CurrentTurnIndex != 0 {
			logger.Warn("Turn restarts at index 0, checkpoint had %s at index %d", checkpoint.CurrentTurnPlayerID, checkpoint.CurrentTurnIndex)
		}
	case repositories.IsNotFound(err):
		logger.Debug("No checkpoint to restore")
	default:
		logger.Warn("Failed to load checkpoint: %v", err)
	}

	gs.CurrentTurnIndex = 0
	text := locale.StateRestored()
	gs.AppendLog(gametypes.ActionLogEntry{
		Type:      gametypes.ActionSystem,
		Message:   text.En,
		MessageBn: text.Bn,
		Timestamp: r.now().UnixMilli(),
	})

	if err := r.states.Set(ctx, gs); err != nil {
		return nil, fmt.Errorf("failed to register restored game: %v", err)
	}
	logger.Info("Restored game with %d players", len(gs.Order))
	return gs, nil
}

// NewCheckpoint snapshots the turn pointer and action log of gs.
// Callers hold the room lock.
func NewCheckpoint(gs *gametypes.GameState, now time.Time) (*models.GameCheckpoint, error) {
	actionLog, err := json.Marshal(gs.ActionLog)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal action log: %v", err)
	}
	return &models.GameCheckpoint{
		RoomID:              gs.RoomID,
		CurrentTurnPlayerID: game.CurrentPlayerID(gs),
		CurrentTurnIndex:    gs.CurrentTurnIndex,
		ActionLog:           actionLog,
		UpdatedAt:           now,
	}, nil
}
