package game

import (
	"testing"

	mocks "github.com/cbodonnell/panchali/mocks/github.com/cbodonnell/panchali/pkg/game"
	"github.com/cbodonnell/panchali/pkg/board"
	"github.com/cbodonnell/panchali/pkg/game/constants"
	"github.com/cbodonnell/panchali/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGameState(players ...*types.PlayerState) *types.GameState {
	gs := types.NewGameState("room-1", "ABC234")
	for _, p := range players {
		gs.AddPlayer(p)
	}
	return gs
}

func newTestPlayer(id string, position int) *types.PlayerState {
	return &types.PlayerState{
		ID:          id,
		Name:        "player-" + id,
		Position:    position,
		IsAlive:     true,
		IsConnected: true,
	}
}

func TestCalculateNewPosition(t *testing.T) {
	tests := []struct {
		name         string
		current      int
		dice         int
		wantPosition int
		wantCrossed  bool
	}{
		{"simple move", 0, 3, 3, false},
		{"lands on last tile", 21, 6, 27, false},
		{"lands exactly on start", 25, 3, 0, true},
		{"passes start", 26, 5, 3, true},
		{"from last tile", 27, 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, crossed := CalculateNewPosition(tt.current, tt.dice)
			assert.Equal(t, tt.wantPosition, got)
			assert.Equal(t, tt.wantCrossed, crossed)
		})
	}
}

func TestCalculateNewPositionEveryRoll(t *testing.T) {
	for p := 0; p < board.TotalTiles; p++ {
		for d := constants.DiceMin; d <= constants.DiceMax; d++ {
			got, crossed := CalculateNewPosition(p, d)
			assert.Equal(t, (p+d)%board.TotalTiles, got, "position %d dice %d", p, d)
			assert.Equal(t, p+d >= board.TotalTiles, crossed, "position %d dice %d", p, d)
		}
	}
}

func TestApplyTileEffect(t *testing.T) {
	tests := []struct {
		name      string
		position  int
		dice      int
		want      types.TileEffectResult
		wantInBn  []string
		wantInMsg []string
	}{
		{
			name:     "gain",
			position: 27,
			dice:     2,
			want:     types.TileEffectResult{BallotChange: 7, NewPosition: 27},
			wantInBn: []string{"ইশতাহার", "+7"},
		},
		{
			name:      "lose",
			position:  1,
			dice:      1,
			want:      types.TileEffectResult{BallotChange: -3, NewPosition: 1},
			wantInBn:  []string{"ধর পাকড়", "-3"},
			wantInMsg: []string{"Home Found"},
		},
		{
			name:     "move back from election boycott",
			position: 8,
			dice:     3,
			want:     types.TileEffectResult{NewPosition: 6},
		},
		{
			name:     "move back from rumor",
			position: 23,
			dice:     5,
			want:     types.TileEffectResult{NewPosition: 21},
		},
		{
			name:      "surprise uses dice value",
			position:  22,
			dice:      4,
			want:      types.TileEffectResult{BallotChange: 4, NewPosition: 22},
			wantInMsg: []string{"4"},
		},
		{
			name:     "go to jail",
			position: 16,
			dice:     4,
			want:     types.TileEffectResult{NewPosition: constants.JailTileIndex, GoToJail: true},
		},
		{
			name:      "corner",
			position:  7,
			dice:      2,
			want:      types.TileEffectResult{NewPosition: 7},
			wantInMsg: []string{"Election Commission"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			player := newTestPlayer("1", tt.position)
			got := ApplyTileEffect(player, board.GetTile(tt.position), tt.dice)

			assert.Equal(t, tt.want.BallotChange, got.BallotChange)
			assert.Equal(t, tt.want.NewPosition, got.NewPosition)
			assert.Equal(t, tt.want.GoToJail, got.GoToJail)
			assert.NotEmpty(t, got.Message)
			assert.NotEmpty(t, got.MessageBn)
			for _, s := range tt.wantInBn {
				assert.Contains(t, got.MessageBn, s)
			}
			for _, s := range tt.wantInMsg {
				assert.Contains(t, got.Message, s)
			}
			// the player is never mutated
			assert.Equal(t, tt.position, player.Position)
			assert.Equal(t, 0, player.Ballots)
		})
	}
}

func TestApplyTileEffectMoveBackClampsAtZero(t *testing.T) {
	player := newTestPlayer("1", 1)
	tile := board.Tile{Index: 1, Effect: board.EffectMoveBack, Value: 2}

	got := ApplyTileEffect(player, tile, 1)
	assert.Equal(t, 0, got.NewPosition)
}

func TestApplyTileEffectSurpriseEveryDiceValue(t *testing.T) {
	tile := board.GetTile(22)
	require.Equal(t, board.EffectSurprise, tile.Effect)

	for d := constants.DiceMin; d <= constants.DiceMax; d++ {
		got := ApplyTileEffect(newTestPlayer("1", 22), tile, d)
		assert.Equal(t, d, got.BallotChange, "dice %d", d)
		assert.Equal(t, 22, got.NewPosition, "dice %d", d)
	}
}

func TestEngine_ProcessTurn(t *testing.T) {
	tests := []struct {
		name        string
		startPos    int
		startJail   int
		completed   bool
		dice        int
		wantFrom    int
		wantLanded  int
		wantTo      int
		wantBallots int
		wantCrossed bool
		wantOver    bool
		wantJail    int
	}{
		{
			name:        "gain tile",
			startPos:    0,
			dice:        2,
			wantLanded:  2,
			wantTo:      2,
			wantBallots: 3,
		},
		{
			name:        "lose tile goes negative",
			startPos:    0,
			dice:        1,
			wantLanded:  1,
			wantTo:      1,
			wantBallots: -3,
		},
		{
			name:       "election boycott moves back",
			startPos:   5,
			dice:       3,
			wantFrom:   5,
			wantLanded: 8,
			wantTo:     6,
		},
		{
			name:       "go to jail",
			startPos:   12,
			dice:       4,
			wantFrom:   12,
			wantLanded: 16,
			wantTo:     constants.JailTileIndex,
			wantJail:   constants.JailTurns,
		},
		{
			name:        "completing the lap ends the game",
			startPos:    25,
			dice:        3,
			wantFrom:    25,
			wantLanded:  0,
			wantTo:      0,
			wantCrossed: true,
			wantOver:    true,
		},
		{
			name:        "second lap does not win again",
			startPos:    26,
			completed:   true,
			dice:        4,
			wantFrom:    26,
			wantLanded:  2,
			wantTo:      2,
			wantBallots: 3,
			wantCrossed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dice := mocks.NewDiceRoller(t)
			dice.EXPECT().Roll().Return(tt.dice).Once()

			player := newTestPlayer("1", tt.startPos)
			player.HasCompletedCircle = tt.completed
			gs := newTestGameState(player, newTestPlayer("2", 0))

			result := NewEngine(dice).ProcessTurn(gs, "1")
			require.NotNil(t, result)

			assert.Equal(t, tt.dice, result.DiceValue)
			assert.Equal(t, tt.wantFrom, result.FromPosition)
			assert.Equal(t, tt.wantLanded, result.LandedPosition)
			assert.Equal(t, tt.wantTo, result.ToPosition)
			assert.Equal(t, tt.wantCrossed, result.CrossedStart)
			assert.Equal(t, tt.wantOver, result.IsGameOver)
			assert.False(t, result.SkippedDueToJail)

			assert.Equal(t, tt.wantTo, player.Position)
			assert.Equal(t, tt.wantBallots, player.Ballots)
			assert.Equal(t, tt.wantJail, player.JailTurnsRemaining)
			assert.Equal(t, tt.wantOver, gs.IsGameOver)
			if tt.wantOver {
				assert.Equal(t, "1", gs.WinnerID)
				assert.Equal(t, "1", result.WinnerID)
				assert.True(t, player.HasCompletedCircle)
			} else {
				assert.Empty(t, gs.WinnerID)
			}
		})
	}
}

func TestEngine_ProcessTurnJailSkipDoesNotRoll(t *testing.T) {
	// no Roll expectation: any call fails the test
	dice := mocks.NewDiceRoller(t)

	player := newTestPlayer("1", constants.JailTileIndex)
	player.JailTurnsRemaining = 1
	player.Ballots = 5
	gs := newTestGameState(player)

	result := NewEngine(dice).ProcessTurn(gs, "1")
	require.NotNil(t, result)

	assert.True(t, result.SkippedDueToJail)
	assert.Equal(t, 0, result.DiceValue)
	assert.Equal(t, constants.JailTileIndex, result.ToPosition)
	assert.Equal(t, 0, player.JailTurnsRemaining)
	assert.Equal(t, constants.JailTileIndex, player.Position)
	assert.Equal(t, 5, player.Ballots)
	assert.Contains(t, result.Effect.Message, "0 turns remaining")
}

func TestEngine_ProcessTurnJailThenPlay(t *testing.T) {
	dice := mocks.NewDiceRoller(t)
	dice.EXPECT().Roll().Return(4).Once()
	dice.EXPECT().Roll().Return(3).Once()

	player := newTestPlayer("1", 12)
	gs := newTestGameState(player)
	engine := NewEngine(dice)

	first := engine.ProcessTurn(gs, "1")
	require.NotNil(t, first)
	assert.Equal(t, constants.JailTileIndex, player.Position)

	skipped := engine.ProcessTurn(gs, "1")
	require.NotNil(t, skipped)
	assert.True(t, skipped.SkippedDueToJail)

	played := engine.ProcessTurn(gs, "1")
	require.NotNil(t, played)
	assert.False(t, played.SkippedDueToJail)
	assert.Equal(t, 17, played.ToPosition)
}

func TestEngine_ProcessTurnRejects(t *testing.T) {
	dice := mocks.NewDiceRoller(t)
	engine := NewEngine(dice)

	gs := newTestGameState(newTestPlayer("1", 0))
	assert.Nil(t, engine.ProcessTurn(gs, "missing"))

	gs.IsGameOver = true
	assert.Nil(t, engine.ProcessTurn(gs, "1"))
}

func TestNextTurnIndex(t *testing.T) {
	tests := []struct {
		name      string
		connected []bool
		current   int
		want      int
	}{
		{"advances", []bool{true, true, true}, 0, 1},
		{"wraps", []bool{true, true, true}, 2, 0},
		{"skips disconnected", []bool{true, false, true}, 0, 2},
		{"skips several", []bool{true, false, false, true}, 0, 3},
		{"back to self", []bool{true, false, false}, 0, 0},
		{"all disconnected", []bool{false, false, false}, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := newTestGameState()
			for i, c := range tt.connected {
				p := newTestPlayer(string(rune('a'+i)), 0)
				p.IsConnected = c
				gs.AddPlayer(p)
			}
			gs.CurrentTurnIndex = tt.current
			assert.Equal(t, tt.want, NextTurnIndex(gs))
		})
	}

	assert.Equal(t, 0, NextTurnIndex(newTestGameState()))
}

func TestDetermineWinner(t *testing.T) {
	a := newTestPlayer("a", 0)
	a.Ballots = 4
	b := newTestPlayer("b", 0)
	b.Ballots = 9
	c := newTestPlayer("c", 0)
	c.Ballots = 9

	gs := newTestGameState(a, b, c)
	winner := DetermineWinner(gs)
	require.NotNil(t, winner)
	assert.Equal(t, "b", winner.ID)

	assert.Nil(t, DetermineWinner(newTestGameState()))
}

func TestRandomDiceRoller(t *testing.T) {
	roller := NewRandomDiceRoller()
	seen := map[int]bool{}
	for i := 0; i < 600; i++ {
		v := roller.Roll()
		require.GreaterOrEqual(t, v, constants.DiceMin)
		require.LessOrEqual(t, v, constants.DiceMax)
		seen[v] = true
	}
	assert.Len(t, seen, constants.DiceMax-constants.DiceMin+1)
}

func TestSeededDiceRollerIsReproducible(t *testing.T) {
	a := NewSeededDiceRoller(42)
	b := NewSeededDiceRoller(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Roll(), b.Roll())
	}
}
