package state

import (
	"context"

	gametypes "github.com/cbodonnell/panchali/pkg/game/types"
)

// StateManager is the registry of live games keyed by room ID.
// Implementations must be thread-safe. The returned *GameState is shared;
// callers must hold the room's lock while reading or mutating it.
type StateManager interface {
	// Get returns the live game of a room.
	Get(ctx context.Context, roomID string) (*gametypes.GameState, bool)
	// Set registers gameState under its RoomID, replacing any previous game.
	Set(ctx context.Context, gameState *gametypes.GameState) error
	// Lock serializes work on one room. It returns the matching unlock func.
	Lock(roomID string) func()
	// RoomIDs lists the rooms with a live game.
	RoomIDs() []string
}
