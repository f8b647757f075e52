package handlers

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/cbodonnell/panchali/pkg/game"
	gametypes "github.com/cbodonnell/panchali/pkg/game/types"
	"github.com/cbodonnell/panchali/pkg/messages"
	"github.com/cbodonnell/panchali/pkg/repositories/models"
	"github.com/cbodonnell/panchali/pkg/state"
	"github.com/cbodonnell/panchali/pkg/stories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartGame(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.seedRoom(t, "guest")
	guest := room.guests[0]

	env.startGame(t, room)

	dbRoom, err := env.repository.GetRoomByID(ctx, room.roomID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusPlaying, dbRoom.Status)

	gs, ok := env.states.Get(ctx, room.roomID)
	require.True(t, ok)
	assert.Equal(t, []string{room.host.PlayerID, guest.PlayerID}, gs.Order)
	assert.Equal(t, 0, gs.CurrentTurnIndex)
	require.Len(t, gs.ActionLog, 1)
	assert.Equal(t, gametypes.ActionSystem, gs.ActionLog[0].Type)

	for conn, id := range map[string]string{"conn-host": room.host.PlayerID, "conn-guest": guest.PlayerID} {
		started := messages.GameStarted{}
		env.transport.last(t, conn, false, messages.MessageTypeGameStarted, &started)
		assert.Equal(t, id, started.YourID)
		assert.Equal(t, room.host.PlayerID, started.CurrentTurn)
		assert.Len(t, started.Players, 2)
	}

	items, err := env.checkpoint.ReadAllMessages()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{room.roomID}, items)

	err = env.handlers.StartGame(ctx, "conn-host", messages.StartGameRequest{Code: room.code, AuthToken: room.host.AuthToken})
	assertCode(t, err, CodeGameAlreadyStarted)
}

func TestStartGame_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lonely := env.seedRoom(t)
	room := env.seedRoom(t, "guest")

	tests := []struct {
		name string
		req  messages.StartGameRequest
		code Code
	}{
		{"unknown room", messages.StartGameRequest{Code: "ZZZZZZ", AuthToken: room.host.AuthToken}, CodeRoomNotFound},
		{"guest token", messages.StartGameRequest{Code: room.code, AuthToken: room.guests[0].AuthToken}, CodeNotHost},
		{"host of another room", messages.StartGameRequest{Code: room.code, AuthToken: lonely.host.AuthToken}, CodeNotHost},
		{"no token", messages.StartGameRequest{Code: room.code}, CodeNotHost},
		{"too few players", messages.StartGameRequest{Code: lonely.code, AuthToken: lonely.host.AuthToken}, CodeNotEnoughPlayers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.handlers.StartGame(ctx, "conn-host", tt.req)
			assertCode(t, err, tt.code)
		})
	}

	assert.Empty(t, env.states.RoomIDs())
}

func TestStartGame_FirstTurnSkipsDisconnectedHost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.seedRoom(t, "guest")
	require.NoError(t, env.handlers.HandleDisconnect(ctx, "conn-host"))

	env.startGame(t, room)

	gs, ok := env.states.Get(ctx, room.roomID)
	require.True(t, ok)
	assert.Equal(t, room.guests[0].PlayerID, gs.CurrentPlayer().ID)
	assert.False(t, gs.Players[room.host.PlayerID].IsConnected)
}

func TestRollDice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.seedRoom(t, "guest")
	env.startGame(t, room)
	_, _ = env.checkpoint.ReadAllMessages()
	env.transport.reset()

	// tile 3 loses two ballots
	env.dice.EXPECT().Roll().Return(3).Once()
	require.NoError(t, env.handlers.RollDice(ctx, "conn-host", messages.RollDiceRequest{RoomID: room.roomID}))

	assert.Equal(t, []string{
		messages.MessageTypeDiceRolled,
		messages.MessageTypeNextTurn,
	}, env.transport.types(room.roomID, true))

	rolled := messages.DiceRolled{}
	env.transport.last(t, room.roomID, true, messages.MessageTypeDiceRolled, &rolled)
	assert.Equal(t, room.host.PlayerID, rolled.PlayerID)
	assert.Equal(t, 3, rolled.DiceValue)
	assert.Equal(t, 0, rolled.FromPosition)
	assert.Equal(t, 3, rolled.ToPosition)
	assert.Equal(t, -2, rolled.BallotChange)
	assert.Equal(t, "-2 টা ব্যালট", rolled.BallotChangeText)
	assert.Contains(t, rolled.MessageBn, "-2")

	next := messages.NextTurn{}
	env.transport.last(t, room.roomID, true, messages.MessageTypeNextTurn, &next)
	assert.Equal(t, room.guests[0].PlayerID, next.CurrentPlayer)
	assert.Empty(t, next.Reason)

	// progress is durable before anyone hears about it
	players, err := env.repository.ListPlayers(ctx, room.roomID)
	require.NoError(t, err)
	assert.Equal(t, 3, players[0].Position)
	assert.Equal(t, -2, players[0].Ballots)

	gs, _ := env.states.Get(ctx, room.roomID)
	last := gs.ActionLog[len(gs.ActionLog)-1]
	assert.Equal(t, gametypes.ActionRoll, last.Type)
	assert.Equal(t, 3, last.DiceValue)

	items, err := env.checkpoint.ReadAllMessages()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{room.roomID}, items)

	// the host cannot roll twice
	err = env.handlers.RollDice(ctx, "conn-host", messages.RollDiceRequest{RoomID: room.roomID})
	assertCode(t, err, CodeNotYourTurn)
}

func TestRollDice_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.seedRoom(t, "guest")

	err := env.handlers.RollDice(ctx, "conn-host", messages.RollDiceRequest{RoomID: room.roomID})
	assertCode(t, err, CodeGameNotFound)

	err = env.handlers.RollDice(ctx, "conn-host", messages.RollDiceRequest{})
	assertCode(t, err, CodeInvalidRequest)

	env.startGame(t, room)
	err = env.handlers.RollDice(ctx, "conn-guest", messages.RollDiceRequest{RoomID: room.roomID})
	assertCode(t, err, CodeNotYourTurn)

	gs, _ := env.states.Get(ctx, room.roomID)
	gs.IsGameOver = true
	err = env.handlers.RollDice(ctx, "conn-host", messages.RollDiceRequest{RoomID: room.roomID})
	assertCode(t, err, CodeGameOver)
}

func TestRollDice_StoryUsesLandedTile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.seedRoom(t, "guest")
	env.startGame(t, room)
	gs, _ := env.states.Get(ctx, room.roomID)
	gs.Players[room.host.PlayerID].Position = 2
	env.transport.reset()

	// tile 8 moves back two, the story is still tile 8's
	env.dice.EXPECT().Roll().Return(6).Once()
	require.NoError(t, env.handlers.RollDice(ctx, "conn-host", messages.RollDiceRequest{RoomID: room.roomID}))

	assert.Equal(t, []string{
		messages.MessageTypeDiceRolled,
		messages.MessageTypeShowStory,
		messages.MessageTypeNextTurn,
	}, env.transport.types(room.roomID, true))

	rolled := messages.DiceRolled{}
	env.transport.last(t, room.roomID, true, messages.MessageTypeDiceRolled, &rolled)
	assert.Equal(t, 8, rolled.LandedPosition)
	assert.Equal(t, 6, rolled.ToPosition)

	story := messages.ShowStory{}
	env.transport.last(t, room.roomID, true, messages.MessageTypeShowStory, &story)
	assert.Equal(t, string(stories.StoryElectionBoycott), story.StoryType)
	assert.Equal(t, "host", story.PlayerName)
	// slides go out as file names; clients resolve the paths
	boycott, ok := stories.Get(stories.StoryElectionBoycott)
	require.True(t, ok)
	assert.Equal(t, boycott.Images, story.Images)
}

func TestRollDice_JailSkipsNextTurn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.seedRoom(t, "guest")
	env.startGame(t, room)
	gs, _ := env.states.Get(ctx, room.roomID)
	gs.Players[room.host.PlayerID].Position = 13

	// tile 16 sends the host to jail
	env.dice.EXPECT().Roll().Return(3).Once()
	require.NoError(t, env.handlers.RollDice(ctx, "conn-host", messages.RollDiceRequest{RoomID: room.roomID}))
	assert.Equal(t, 14, gs.Players[room.host.PlayerID].Position)
	assert.Equal(t, 1, gs.Players[room.host.PlayerID].JailTurnsRemaining)

	env.dice.EXPECT().Roll().Return(1).Once()
	require.NoError(t, env.handlers.RollDice(ctx, "conn-guest", messages.RollDiceRequest{RoomID: room.roomID}))
	env.transport.reset()

	// the jailed turn draws no dice and triggers no story
	require.NoError(t, env.handlers.RollDice(ctx, "conn-host", messages.RollDiceRequest{RoomID: room.roomID}))
	assert.Equal(t, []string{
		messages.MessageTypeDiceRolled,
		messages.MessageTypeNextTurn,
	}, env.transport.types(room.roomID, true))

	rolled := messages.DiceRolled{}
	env.transport.last(t, room.roomID, true, messages.MessageTypeDiceRolled, &rolled)
	assert.True(t, rolled.SkippedDueToJail)
	assert.Equal(t, 14, rolled.ToPosition)
	assert.Equal(t, 0, gs.Players[room.host.PlayerID].JailTurnsRemaining)
}

func TestRollDice_GameOver(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.seedRoom(t, "guest")
	guest := room.guests[0]
	env.startGame(t, room)
	gs, _ := env.states.Get(ctx, room.roomID)
	gs.Players[room.host.PlayerID].Position = 26
	gs.Players[room.host.PlayerID].Ballots = 1
	gs.Players[guest.PlayerID].Ballots = 5
	env.transport.reset()

	// 26 + 4 wraps to tile 2
	env.dice.EXPECT().Roll().Return(4).Once()
	require.NoError(t, env.handlers.RollDice(ctx, "conn-host", messages.RollDiceRequest{RoomID: room.roomID}))

	assert.Equal(t, []string{
		messages.MessageTypeDiceRolled,
		messages.MessageTypeGameOver,
	}, env.transport.types(room.roomID, true))

	over := messages.GameOver{}
	env.transport.last(t, room.roomID, true, messages.MessageTypeGameOver, &over)
	assert.Equal(t, room.host.PlayerID, over.FinisherID)
	// the host ends on 4 ballots, the guest still leads
	assert.Equal(t, guest.PlayerID, over.WinnerID)
	assert.Equal(t, "guest", over.WinnerName)
	assert.Contains(t, over.MessageBn, "guest")
	assert.Len(t, over.Players, 2)

	assert.True(t, gs.IsGameOver)
	assert.Equal(t, room.host.PlayerID, gs.WinnerID)
	assert.Equal(t, gametypes.ActionWin, gs.ActionLog[len(gs.ActionLog)-1].Type)

	dbRoom, err := env.repository.GetRoomByID(ctx, room.roomID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusFinished, dbRoom.Status)

	players, err := env.repository.ListPlayers(ctx, room.roomID)
	require.NoError(t, err)
	assert.True(t, players[0].HasCompletedCircle)

	err = env.handlers.RollDice(ctx, "conn-guest", messages.RollDiceRequest{RoomID: room.roomID})
	assertCode(t, err, CodeGameOver)
}

// lockCountingStates records the rooms a handler locks.
type lockCountingStates struct {
	*state.InMemoryStateManager
	mu     sync.Mutex
	locked map[string]int
}

func (s *lockCountingStates) Lock(roomID string) func() {
	s.mu.Lock()
	s.locked[roomID]++
	s.mu.Unlock()
	return s.InMemoryStateManager.Lock(roomID)
}

func TestRollDice_UnknownRoomsTakeNoLock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	states := &lockCountingStates{InMemoryStateManager: env.states, locked: make(map[string]int)}
	h := NewHandlers(NewHandlersOptions{
		Repository:   env.repository,
		StateManager: states,
		Engine:       game.NewEngine(env.dice),
		Transport:    env.transport,
	})

	for i := 0; i < 100; i++ {
		err := h.RollDice(ctx, "conn-host", messages.RollDiceRequest{RoomID: fmt.Sprintf("bogus-%d", i)})
		assertCode(t, err, CodeGameNotFound)
	}
	assert.Empty(t, states.locked)

	room := env.seedRoom(t, "guest")
	env.startGame(t, room)
	env.dice.EXPECT().Roll().Return(1).Once()
	require.NoError(t, h.RollDice(ctx, "conn-host", messages.RollDiceRequest{RoomID: room.roomID}))
	assert.Equal(t, map[string]int{room.roomID: 1}, states.locked)
}
