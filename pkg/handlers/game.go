package handlers

import (
	"context"
	"fmt"

	"github.com/cbodonnell/panchali/pkg/game"
	"github.com/cbodonnell/panchali/pkg/game/constants"
	gametypes "github.com/cbodonnell/panchali/pkg/game/types"
	"github.com/cbodonnell/panchali/pkg/locale"
	"github.com/cbodonnell/panchali/pkg/log"
	"github.com/cbodonnell/panchali/pkg/messages"
	"github.com/cbodonnell/panchali/pkg/repositories"
	"github.com/cbodonnell/panchali/pkg/repositories/models"
	"github.com/cbodonnell/panchali/pkg/stories"
	"go.opentelemetry.io/otel/attribute"
)

// StartGame starts the game of a waiting room on behalf of its host.
// Every player privately receives a game_started snapshot.
func (h *Handlers) StartGame(ctx context.Context, connectionID string, req messages.StartGameRequest) (err error) {
	ctx, span := startSpan(ctx, "handlers.StartGame")
	defer func() { endSpan(span, err) }()

	code := locale.NormalizeRoomCode(req.Code)
	span.SetAttributes(attribute.String("room.code", code))
	room, err := h.repository.GetRoomByCode(ctx, code)
	if err != nil {
		if repositories.IsNotFound(err) {
			return newError(CodeRoomNotFound, locale.ErrRoomNotFound)
		}
		return wrapInternal(fmt.Errorf("failed to get room: %v", err))
	}

	unlock := h.states.Lock(room.ID)
	defer unlock()

	players, err := h.repository.ListPlayers(ctx, room.ID)
	if err != nil {
		return wrapInternal(fmt.Errorf("failed to list players: %v", err))
	}

	var requester *models.Player
	for _, p := range players {
		if tokensEqual(p.AuthToken, req.AuthToken) {
			requester = p
			break
		}
	}
	if requester == nil || !requester.IsHost {
		return newError(CodeNotHost, locale.ErrNotHost)
	}
	if len(players) < h.minPlayers {
		return newError(CodeNotEnoughPlayers, locale.MinPlayers(h.minPlayers))
	}
	if _, running := h.states.Get(ctx, room.ID); running {
		return newError(CodeGameAlreadyStarted, locale.ErrGameAlreadyStarted)
	}

	gs := gametypes.NewGameState(room.ID, room.Code)
	for _, p := range players {
		gs.AddPlayer(&gametypes.PlayerState{
			ID:                 p.ID,
			Name:               p.Name,
			ConnectionID:       p.ConnectionID,
			Position:           constants.StartingPosition,
			Ballots:            constants.StartingBallots,
			HasCompletedCircle: false,
			IsAlive:            true,
			IsConnected:        p.ConnectionID != "",
		})
	}
	// the first turn goes to the first connected player
	if first := gs.CurrentPlayer(); first != nil && !first.IsConnected {
		gs.CurrentTurnIndex = game.NextTurnIndex(gs)
	}
	text := locale.GameStarted()
	gs.AppendLog(gametypes.ActionLogEntry{
		Type:      gametypes.ActionSystem,
		Message:   text.En,
		MessageBn: text.Bn,
		Timestamp: h.now().UnixMilli(),
	})

	if err = h.repository.UpdateRoomStatus(ctx, room.ID, models.RoomStatusWaiting, models.RoomStatusPlaying); err != nil {
		if repositories.IsNotFound(err) {
			return newError(CodeGameAlreadyStarted, locale.ErrGameAlreadyStarted)
		}
		return wrapInternal(fmt.Errorf("failed to mark room playing: %v", err))
	}
	if err = h.reconciler.Save(ctx, gs); err != nil {
		return wrapInternal(err)
	}
	if err = h.states.Set(ctx, gs); err != nil {
		return wrapInternal(err)
	}

	for _, p := range gs.OrderedPlayers() {
		h.send(ctx, p.ConnectionID, messages.MessageTypeGameStarted, game.GameStartedFromState(gs, p.ID))
	}
	h.enqueueCheckpoint(room.ID)
	log.With("room", room.Code).Info("Game started with %d players", len(players))
	return nil
}

// RollDice plays one turn for the caller, who must hold the current turn.
func (h *Handlers) RollDice(ctx context.Context, connectionID string, req messages.RollDiceRequest) (err error) {
	ctx, span := startSpan(ctx, "handlers.RollDice")
	defer func() { endSpan(span, err) }()

	if req.RoomID == "" {
		return newError(CodeInvalidRequest, locale.ErrInvalidRequest)
	}
	span.SetAttributes(attribute.String("room.id", req.RoomID))

	// room locks are only taken for games that exist
	if _, ok := h.states.Get(ctx, req.RoomID); !ok {
		return newError(CodeGameNotFound, locale.ErrGameNotFound)
	}
	unlock := h.states.Lock(req.RoomID)
	defer unlock()

	gs, ok := h.states.Get(ctx, req.RoomID)
	if !ok {
		return newError(CodeGameNotFound, locale.ErrGameNotFound)
	}
	if gs.IsGameOver {
		return newError(CodeGameOver, locale.ErrGameOver)
	}
	current := gs.CurrentPlayer()
	if current == nil || current.ConnectionID != connectionID {
		return newError(CodeNotYourTurn, locale.ErrNotYourTurn)
	}

	result := h.engine.ProcessTurn(gs, current.ID)
	if result == nil {
		return newError(CodeRollFailed, locale.ErrRollFailed)
	}

	logger := log.With("room", gs.RoomCode).With("player", current.ID)
	logger.Debug("Rolled %d from %d to %d (landed %d)", result.DiceValue, result.FromPosition, result.ToPosition, result.LandedPosition)

	now := h.now().UnixMilli()
	gs.AppendLog(gametypes.ActionLogEntry{
		Type:         gametypes.ActionRoll,
		PlayerID:     current.ID,
		PlayerName:   current.Name,
		DiceValue:    result.DiceValue,
		FromPosition: result.FromPosition,
		ToPosition:   result.ToPosition,
		BallotChange: result.Effect.BallotChange,
		Message:      result.Effect.Message,
		MessageBn:    result.Effect.MessageBn,
		Timestamp:    now,
	})

	var winner *gametypes.PlayerState
	if result.IsGameOver {
		winner = game.DetermineWinner(gs)
		text := locale.Winner(winner.Name)
		gs.AppendLog(gametypes.ActionLogEntry{
			Type:       gametypes.ActionWin,
			PlayerID:   winner.ID,
			PlayerName: winner.Name,
			Message:    text.En,
			MessageBn:  text.Bn,
			Timestamp:  now,
		})
	} else {
		gs.CurrentTurnIndex = game.NextTurnIndex(gs)
	}

	// broadcasts go out even if the save fails; the next save catches up
	if err := h.reconciler.Save(ctx, gs); err != nil {
		logger.Error("Failed to persist turn: %v", err)
	}

	h.broadcast(ctx, gs.RoomID, messages.MessageTypeDiceRolled, diceRolledFromResult(current, result))

	if !result.SkippedDueToJail {
		if story, ok := stories.ForTile(result.LandedPosition); ok {
			logger.Debug("Story %s triggered on tile %d", story.Type, result.LandedPosition)
			h.broadcast(ctx, gs.RoomID, messages.MessageTypeShowStory, messages.ShowStory{
				StoryType:  string(story.Type),
				TitleBn:    story.TitleBn,
				TitleEn:    story.TitleEn,
				PlayerName: current.Name,
				Images:     story.Images,
			})
		}
	}

	if result.IsGameOver {
		if err := h.repository.UpdateRoomStatus(ctx, gs.RoomID, models.RoomStatusPlaying, models.RoomStatusFinished); err != nil {
			logger.Error("Failed to mark room finished: %v", err)
		}
		text := locale.Winner(winner.Name)
		h.broadcast(ctx, gs.RoomID, messages.MessageTypeGameOver, messages.GameOver{
			WinnerID:   winner.ID,
			WinnerName: winner.Name,
			FinisherID: result.WinnerID,
			Players:    game.PlayerInfosFromState(gs),
			Message:    text.En,
			MessageBn:  text.Bn,
		})
		logger.Info("Game over, %s finished the lap, %s wins with %d ballots", result.WinnerID, winner.Name, winner.Ballots)
	} else {
		h.broadcast(ctx, gs.RoomID, messages.MessageTypeNextTurn, game.NextTurnFromState(gs, ""))
	}

	h.enqueueCheckpoint(gs.RoomID)
	return nil
}

func diceRolledFromResult(player *gametypes.PlayerState, result *gametypes.TurnResult) messages.DiceRolled {
	return messages.DiceRolled{
		PlayerID:         player.ID,
		PlayerName:       player.Name,
		DiceValue:        result.DiceValue,
		FromPosition:     result.FromPosition,
		LandedPosition:   result.LandedPosition,
		ToPosition:       result.ToPosition,
		BallotChange:     result.Effect.BallotChange,
		BallotChangeText: locale.BallotChange(result.Effect.BallotChange),
		Message:          result.Effect.Message,
		MessageBn:        result.Effect.MessageBn,
		CrossedStart:     result.CrossedStart,
		SkippedDueToJail: result.SkippedDueToJail,
	}
}
