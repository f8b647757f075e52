package repositories

import (
	"context"

	gametypes "github.com/cbodonnell/panchali/pkg/game/types"
	"github.com/cbodonnell/panchali/pkg/repositories/models"
)

// Repository is the durable store for rooms, players and game checkpoints.
// Implementations must be safe for concurrent use.
type Repository interface {
	Close(ctx context.Context) error

	// CreateRoom inserts a room. A duplicate code returns ErrAlreadyExists.
	CreateRoom(ctx context.Context, room *models.Room) error
	GetRoomByID(ctx context.Context, roomID string) (*models.Room, error)
	GetRoomByCode(ctx context.Context, code string) (*models.Room, error)
	// UpdateRoomStatus moves a room from one status to another. It returns
	// ErrNotFound when the room does not exist or is not currently in from.
	UpdateRoomStatus(ctx context.Context, roomID string, from, to models.RoomStatus) error

	// CreatePlayer inserts a player. A duplicate name in the room returns ErrAlreadyExists.
	CreatePlayer(ctx context.Context, player *models.Player) error
	// ListPlayers returns the players of a room in join order.
	ListPlayers(ctx context.Context, roomID string) ([]*models.Player, error)
	GetPlayerByConnection(ctx context.Context, connectionID string) (*models.Player, error)
	// UpdatePlayerConnection binds the player to connectionID.
	UpdatePlayerConnection(ctx context.Context, playerID, connectionID string) error
	// ClearPlayerConnection unbinds the player only if still bound to connectionID.
	ClearPlayerConnection(ctx context.Context, playerID, connectionID string) error
	// ClearAllConnections unbinds every player, used at startup when no connection can be live.
	ClearAllConnections(ctx context.Context) error

	// SaveGameState writes every player's progress in one transaction.
	SaveGameState(ctx context.Context, gameState *gametypes.GameState) error
	SaveCheckpoint(ctx context.Context, checkpoint *models.GameCheckpoint) error
	LoadCheckpoint(ctx context.Context, roomID string) (*models.GameCheckpoint, error)
}
