package game

import (
	"github.com/cbodonnell/panchali/pkg/game/types"
	"github.com/cbodonnell/panchali/pkg/messages"
)

func PlayerInfoFromState(p *types.PlayerState) messages.PlayerInfo {
	return messages.PlayerInfo{
		ID:                 p.ID,
		Name:               p.Name,
		Position:           p.Position,
		Ballots:            p.Ballots,
		HasCompletedCircle: p.HasCompletedCircle,
		IsAlive:            p.IsAlive,
		IsConnected:        p.IsConnected,
	}
}

// PlayerInfosFromState returns the public view of every player in turn order.
func PlayerInfosFromState(state *types.GameState) []messages.PlayerInfo {
	players := state.OrderedPlayers()
	out := make([]messages.PlayerInfo, 0, len(players))
	for _, p := range players {
		out = append(out, PlayerInfoFromState(p))
	}
	return out
}

func CurrentPlayerID(state *types.GameState) string {
	if p := state.CurrentPlayer(); p != nil {
		return p.ID
	}
	return ""
}

func GameStartedFromState(state *types.GameState, playerID string) *messages.GameStarted {
	return &messages.GameStarted{
		YourID:      playerID,
		Players:     PlayerInfosFromState(state),
		CurrentTurn: CurrentPlayerID(state),
	}
}

func NextTurnFromState(state *types.GameState, reason string) *messages.NextTurn {
	return &messages.NextTurn{
		CurrentPlayer: CurrentPlayerID(state),
		Players:       PlayerInfosFromState(state),
		Reason:        reason,
	}
}
