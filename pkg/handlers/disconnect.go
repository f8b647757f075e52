package handlers

import (
	"context"
	"fmt"

	"github.com/cbodonnell/panchali/pkg/game"
	"github.com/cbodonnell/panchali/pkg/log"
	"github.com/cbodonnell/panchali/pkg/messages"
	"github.com/cbodonnell/panchali/pkg/repositories"
)

// HandleDisconnect marks the player bound to connectionID as gone. A
// player holding the turn loses it. Unknown connections are ignored.
func (h *Handlers) HandleDisconnect(ctx context.Context, connectionID string) (err error) {
	ctx, span := startSpan(ctx, "handlers.HandleDisconnect")
	defer func() { endSpan(span, err) }()

	player, err := h.repository.GetPlayerByConnection(ctx, connectionID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to get player for connection %s: %v", connectionID, err)
	}

	unlock := h.states.Lock(player.RoomID)
	defer unlock()

	// a reconnect may have claimed the player while we waited for the lock
	owner, err := h.repository.GetPlayerByConnection(ctx, connectionID)
	if err != nil {
		if repositories.IsNotFound(err) {
			log.With("player", player.ID).Debug("Ignoring stale disconnect of %s", connectionID)
			return nil
		}
		return fmt.Errorf("failed to get player for connection %s: %v", connectionID, err)
	}
	if owner.ID != player.ID {
		return nil
	}

	logger := log.With("player", player.ID)
	if gs, ok := h.states.Get(ctx, player.RoomID); ok {
		logger = logger.With("room", gs.RoomCode)
		// a newer connection may have reclaimed the player already
		if ps, ok := gs.Player(player.ID); ok && ps.ConnectionID == connectionID {
			ps.IsConnected = false
			if current := gs.CurrentPlayer(); !gs.IsGameOver && current != nil && current.ID == player.ID {
				gs.CurrentTurnIndex = game.NextTurnIndex(gs)
				logger.Info("Turn holder left, turn passes to %s", game.CurrentPlayerID(gs))
				h.broadcast(ctx, player.RoomID, messages.MessageTypeNextTurn, game.NextTurnFromState(gs, messages.NextTurnReasonDisconnect))
				h.enqueueCheckpoint(player.RoomID)
			}
		}
	}

	h.broadcast(ctx, player.RoomID, messages.MessageTypePlayerDisconnected, messages.PlayerPresence{
		PlayerID:   player.ID,
		PlayerName: player.Name,
	})

	if err = h.repository.ClearPlayerConnection(ctx, player.ID, connectionID); err != nil {
		return fmt.Errorf("failed to clear connection of player %s: %v", player.ID, err)
	}
	logger.Info("Player %s disconnected", player.Name)
	return nil
}
