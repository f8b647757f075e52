package game

import (
	"github.com/cbodonnell/panchali/pkg/board"
	"github.com/cbodonnell/panchali/pkg/game/constants"
	"github.com/cbodonnell/panchali/pkg/game/types"
	"github.com/cbodonnell/panchali/pkg/locale"
)

// Engine applies dice rolls to a game state. It holds no game state of its
// own; callers serialize access to each GameState.
type Engine struct {
	dice DiceRoller
}

func NewEngine(dice DiceRoller) *Engine {
	return &Engine{
		dice: dice,
	}
}

// CalculateNewPosition advances current by diceValue around the loop and
// reports whether the move passed or landed on the start tile.
func CalculateNewPosition(current, diceValue int) (int, bool) {
	raw := current + diceValue
	return raw % board.TotalTiles, raw >= board.TotalTiles
}

// ApplyTileEffect computes the effect of tile on player without mutating
// either. player.Position must already be the landed tile.
func ApplyTileEffect(player *types.PlayerState, tile board.Tile, diceValue int) types.TileEffectResult {
	result := types.TileEffectResult{
		NewPosition: player.Position,
	}

	var text locale.Text
	switch tile.Effect {
	case board.EffectGain:
		result.BallotChange = tile.Value
		text = locale.Gain(tile.NameEn, tile.DisplayNameBn(), tile.Value)
	case board.EffectLose:
		result.BallotChange = -tile.Value
		text = locale.Lose(tile.NameEn, tile.DisplayNameBn(), tile.Value)
	case board.EffectMoveBack:
		result.NewPosition = max(0, player.Position-tile.Value)
		text = locale.MoveBack(tile.NameEn, tile.DisplayNameBn(), tile.Value)
	case board.EffectSurprise:
		result.BallotChange = diceValue
		text = locale.Surprise(diceValue)
	case board.EffectGoToJail:
		result.NewPosition = constants.JailTileIndex
		result.GoToJail = true
		text = locale.GoToJail()
	default:
		text = locale.Landed(tile.NameEn, tile.DisplayNameBn())
	}

	result.Message = text.En
	result.MessageBn = text.Bn
	return result
}

// ProcessTurn rolls for playerID and applies the outcome to gs. It returns
// nil when the player is unknown or the game is already over. It does not
// check whose turn it is and does not advance the turn.
func (e *Engine) ProcessTurn(gs *types.GameState, playerID string) *types.TurnResult {
	player, ok := gs.Player(playerID)
	if !ok || gs.IsGameOver {
		return nil
	}

	if player.JailTurnsRemaining > 0 {
		player.JailTurnsRemaining--
		text := locale.JailSkip(player.JailTurnsRemaining)
		return &types.TurnResult{
			PlayerID:       player.ID,
			FromPosition:   player.Position,
			LandedPosition: player.Position,
			ToPosition:     player.Position,
			Effect: types.TileEffectResult{
				NewPosition: player.Position,
				Message:     text.En,
				MessageBn:   text.Bn,
			},
			SkippedDueToJail: true,
		}
	}

	diceValue := e.dice.Roll()
	from := player.Position
	landed, crossedStart := CalculateNewPosition(from, diceValue)

	player.Position = landed
	effect := ApplyTileEffect(player, board.GetTile(landed), diceValue)
	player.Position = effect.NewPosition
	player.Ballots += effect.BallotChange
	if effect.GoToJail {
		player.JailTurnsRemaining = constants.JailTurns
	}

	result := &types.TurnResult{
		PlayerID:       player.ID,
		DiceValue:      diceValue,
		FromPosition:   from,
		LandedPosition: landed,
		ToPosition:     player.Position,
		Effect:         effect,
		CrossedStart:   crossedStart,
	}

	if crossedStart && !player.HasCompletedCircle {
		player.HasCompletedCircle = true
		gs.IsGameOver = true
		gs.WinnerID = player.ID
		result.IsGameOver = true
		result.WinnerID = player.ID
	}

	return result
}

// NextTurnIndex returns the index after gs.CurrentTurnIndex, skipping
// disconnected players. When nobody is connected it returns the index
// reached after one full pass.
func NextTurnIndex(gs *types.GameState) int {
	n := len(gs.Order)
	if n == 0 {
		return 0
	}
	next := (gs.CurrentTurnIndex + 1) % n
	for attempts := 0; attempts < n; attempts++ {
		if p := gs.Players[gs.Order[next]]; p != nil && p.IsConnected {
			return next
		}
		next = (next + 1) % n
	}
	return next
}

// DetermineWinner returns the player with the most ballots. Ties go to
// the earliest player in turn order. Returns nil for an empty game.
func DetermineWinner(gs *types.GameState) *types.PlayerState {
	var winner *types.PlayerState
	for _, p := range gs.OrderedPlayers() {
		if winner == nil || p.Ballots > winner.Ballots {
			winner = p
		}
	}
	return winner
}
