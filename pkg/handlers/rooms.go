package handlers

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/cbodonnell/panchali/pkg/game"
	"github.com/cbodonnell/panchali/pkg/game/constants"
	gametypes "github.com/cbodonnell/panchali/pkg/game/types"
	"github.com/cbodonnell/panchali/pkg/locale"
	"github.com/cbodonnell/panchali/pkg/log"
	"github.com/cbodonnell/panchali/pkg/messages"
	"github.com/cbodonnell/panchali/pkg/repositories"
	"github.com/cbodonnell/panchali/pkg/repositories/models"
	"github.com/cbodonnell/panchali/pkg/state"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// maxRoomCodeAttempts bounds retries on room code collisions
const maxRoomCodeAttempts = 10

// GenerateRoomCode returns a random room code drawn from constants.RoomCodeChars.
func GenerateRoomCode() (string, error) {
	code := make([]byte, constants.RoomCodeLength)
	alphabet := big.NewInt(int64(len(constants.RoomCodeChars)))
	for i := range code {
		n, err := rand.Int(rand.Reader, alphabet)
		if err != nil {
			return "", fmt.Errorf("failed to read random: %v", err)
		}
		code[i] = constants.RoomCodeChars[n.Int64()]
	}
	return string(code), nil
}

// CreateRoom creates a waiting room hosted by the caller and subscribes
// the caller to it. Only the caller learns the auth token.
func (h *Handlers) CreateRoom(ctx context.Context, connectionID string, req messages.CreateRoomRequest) (_ *messages.CreateRoomResponse, err error) {
	ctx, span := startSpan(ctx, "handlers.CreateRoom")
	defer func() { endSpan(span, err) }()

	name := locale.NormalizeName(req.HostName)
	if text := locale.ValidateName(name); text != "" {
		return nil, newError(CodeInvalidName, text)
	}

	now := h.now().UTC()
	room := &models.Room{
		ID:        uuid.NewString(),
		HostName:  name,
		Status:    models.RoomStatusWaiting,
		CreatedAt: now,
	}
	for attempt := 0; ; attempt++ {
		if attempt == maxRoomCodeAttempts {
			return nil, wrapInternal(fmt.Errorf("no free room code after %d attempts", attempt))
		}
		room.Code, err = GenerateRoomCode()
		if err != nil {
			return nil, wrapInternal(err)
		}
		err = h.repository.CreateRoom(ctx, room)
		if err == nil {
			break
		}
		if !repositories.IsAlreadyExists(err) {
			return nil, wrapInternal(fmt.Errorf("failed to create room: %v", err))
		}
	}

	host := &models.Player{
		ID:           uuid.NewString(),
		RoomID:       room.ID,
		Name:         name,
		ConnectionID: connectionID,
		AuthToken:    uuid.NewString(),
		Position:     constants.StartingPosition,
		Ballots:      constants.StartingBallots,
		IsAlive:      true,
		IsHost:       true,
		JoinedAt:     now,
	}
	if err = h.repository.CreatePlayer(ctx, host); err != nil {
		return nil, wrapInternal(fmt.Errorf("failed to create host: %v", err))
	}
	span.SetAttributes(attribute.String("room.code", room.Code))

	h.transport.JoinRoom(connectionID, room.ID)
	log.With("room", room.Code).Info("Room created by %s", name)

	return &messages.CreateRoomResponse{
		Success:   true,
		Code:      room.Code,
		RoomID:    room.ID,
		PlayerID:  host.ID,
		AuthToken: host.AuthToken,
		IsHost:    true,
	}, nil
}

// JoinRoom adds a new player to a waiting room, or reclaims an existing
// player when the request carries that player's auth token.
func (h *Handlers) JoinRoom(ctx context.Context, connectionID string, req messages.JoinRoomRequest) (_ *messages.JoinRoomResponse, err error) {
	ctx, span := startSpan(ctx, "handlers.JoinRoom")
	defer func() { endSpan(span, err) }()

	code := locale.NormalizeRoomCode(req.Code)
	span.SetAttributes(attribute.String("room.code", code))
	room, err := h.repository.GetRoomByCode(ctx, code)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, newError(CodeRoomNotFound, locale.ErrRoomNotFound)
		}
		return nil, wrapInternal(fmt.Errorf("failed to get room: %v", err))
	}

	unlock := h.states.Lock(room.ID)
	defer unlock()

	// status may have moved while waiting for the lock
	if room, err = h.repository.GetRoomByID(ctx, room.ID); err != nil {
		return nil, wrapInternal(fmt.Errorf("failed to reload room: %v", err))
	}
	players, err := h.repository.ListPlayers(ctx, room.ID)
	if err != nil {
		return nil, wrapInternal(fmt.Errorf("failed to list players: %v", err))
	}

	if req.AuthToken != "" {
		for _, p := range players {
			if tokensEqual(p.AuthToken, req.AuthToken) {
				return h.reconnect(ctx, connectionID, room, p, players)
			}
		}
	}

	name := locale.NormalizeName(req.PlayerName)
	if text := locale.ValidateName(name); text != "" {
		return nil, newError(CodeInvalidName, text)
	}
	for _, p := range players {
		if p.Name == name {
			return nil, newError(CodeNameTaken, locale.ErrNameTaken)
		}
	}
	if room.Status != models.RoomStatusWaiting {
		return nil, newError(CodeGameAlreadyStarted, locale.ErrGameAlreadyStarted)
	}
	if len(players) >= h.maxPlayers {
		return nil, newError(CodeRoomFull, locale.RoomFull(h.maxPlayers))
	}

	player := &models.Player{
		ID:           uuid.NewString(),
		RoomID:       room.ID,
		Name:         name,
		ConnectionID: connectionID,
		AuthToken:    uuid.NewString(),
		Position:     constants.StartingPosition,
		Ballots:      constants.StartingBallots,
		IsAlive:      true,
		JoinOrder:    nextJoinOrder(players),
		JoinedAt:     h.now().UTC(),
	}
	if err = h.repository.CreatePlayer(ctx, player); err != nil {
		if repositories.IsAlreadyExists(err) {
			return nil, newError(CodeNameTaken, locale.ErrNameTaken)
		}
		return nil, wrapInternal(fmt.Errorf("failed to create player: %v", err))
	}
	players = append(players, player)

	h.transport.JoinRoom(connectionID, room.ID)
	roster := lobbyRoster(players, nil)
	h.broadcast(ctx, room.ID, messages.MessageTypePlayerJoined, messages.PlayerJoined{
		Player:  messages.PlayerRef{ID: player.ID, Name: player.Name},
		Players: roster,
	})
	log.With("room", room.Code).Info("Player %s joined", player.Name)

	return &messages.JoinRoomResponse{
		Success:   true,
		RoomID:    room.ID,
		PlayerID:  player.ID,
		AuthToken: player.AuthToken,
		IsHost:    false,
		Players:   roster,
	}, nil
}

// reconnect binds player to the caller's connection. A playing room with no
// live game is restored first. Callers hold the room lock.
func (h *Handlers) reconnect(ctx context.Context, connectionID string, room *models.Room, player *models.Player, players []*models.Player) (*messages.JoinRoomResponse, error) {
	logger := log.With("room", room.Code)

	gs, ok := h.states.Get(ctx, room.ID)
	if !ok && room.Status == models.RoomStatusPlaying {
		restored, err := h.reconciler.Restore(ctx, room.ID)
		if err != nil {
			if errors.Is(err, state.ErrNotRestorable) {
				return nil, newError(CodeGameNotFound, locale.ErrGameNotFound)
			}
			return nil, wrapInternal(fmt.Errorf("failed to restore game: %w", err))
		}
		gs = restored
	}

	if err := h.repository.UpdatePlayerConnection(ctx, player.ID, connectionID); err != nil {
		return nil, wrapInternal(fmt.Errorf("failed to update connection: %v", err))
	}
	player.ConnectionID = connectionID
	h.transport.JoinRoom(connectionID, room.ID)
	logger.Info("Player %s reconnected", player.Name)

	handedOver := false
	if gs != nil {
		if ps, ok := gs.Player(player.ID); ok {
			ps.ConnectionID = connectionID
			ps.IsConnected = true
			handedOver = h.handOverStalledTurn(gs)
			h.send(ctx, connectionID, messages.MessageTypeGameStarted, game.GameStartedFromState(gs, player.ID))
		}
	}

	h.broadcast(ctx, room.ID, messages.MessageTypePlayerReconnected, messages.PlayerPresence{
		PlayerID:   player.ID,
		PlayerName: player.Name,
	})
	if handedOver {
		logger.Info("Turn handed to %s", game.CurrentPlayerID(gs))
		h.broadcast(ctx, room.ID, messages.MessageTypeNextTurn, game.NextTurnFromState(gs, messages.NextTurnReasonReconnect))
		h.enqueueCheckpoint(room.ID)
	}

	return &messages.JoinRoomResponse{
		Success:   true,
		RoomID:    room.ID,
		PlayerID:  player.ID,
		AuthToken: player.AuthToken,
		IsHost:    player.IsHost,
		Players:   lobbyRoster(players, gs),
	}, nil
}

// handOverStalledTurn moves the turn off a disconnected holder, which
// happens after a restore or once everyone had left. It reports whether
// the turn moved.
func (h *Handlers) handOverStalledTurn(gs *gametypes.GameState) bool {
	if gs.IsGameOver {
		return false
	}
	current := gs.CurrentPlayer()
	if current == nil || current.IsConnected {
		return false
	}
	gs.CurrentTurnIndex = game.NextTurnIndex(gs)
	return true
}

func nextJoinOrder(players []*models.Player) int {
	next := 0
	for _, p := range players {
		if p.JoinOrder >= next {
			next = p.JoinOrder + 1
		}
	}
	return next
}

// lobbyRoster lists players for join responses. Live progress and
// presence come from gs when a game is running.
func lobbyRoster(players []*models.Player, gs *gametypes.GameState) []messages.LobbyPlayer {
	roster := make([]messages.LobbyPlayer, 0, len(players))
	for _, p := range players {
		lp := messages.LobbyPlayer{
			ID:          p.ID,
			Name:        p.Name,
			IsHost:      p.IsHost,
			IsConnected: p.ConnectionID != "",
			Position:    p.Position,
			Ballots:     p.Ballots,
		}
		if gs != nil {
			if ps, ok := gs.Player(p.ID); ok {
				lp.IsConnected = ps.IsConnected
				lp.Position = ps.Position
				lp.Ballots = ps.Ballots
			}
		}
		roster = append(roster, lp)
	}
	return roster
}
