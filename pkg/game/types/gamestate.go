package types

type GameState struct {
	// RoomID is the durable room this game belongs to
	RoomID string
	// RoomCode is the join code, used as the broadcast group
	RoomCode string
	// Order is the turn order of player IDs, fixed when the game starts
	Order []string
	// Players maps player IDs to player states
	Players map[string]*PlayerState
	// CurrentTurnIndex indexes Order
	CurrentTurnIndex int
	IsGameOver       bool
	// WinnerID is the player who completed the first lap, empty until then
	WinnerID  string
	ActionLog []ActionLogEntry
}

func NewGameState(roomID, roomCode string) *GameState {
	return &GameState{
		RoomID:    roomID,
		RoomCode:  roomCode,
		Players:   make(map[string]*PlayerState),
		ActionLog: []ActionLogEntry{},
	}
}

// AddPlayer adds the player to the end of the turn order.
// Adding an ID that is already present replaces its state in place.
func (g *GameState) AddPlayer(p *PlayerState) {
	if _, ok := g.Players[p.ID]; !ok {
		g.Order = append(g.Order, p.ID)
	}
	g.Players[p.ID] = p
}

func (g *GameState) Player(id string) (*PlayerState, bool) {
	p, ok := g.Players[id]
	return p, ok
}

// PlayerByConnection returns the player bound to connectionID.
func (g *GameState) PlayerByConnection(connectionID string) (*PlayerState, bool) {
	if connectionID == "" {
		return nil, false
	}
	for _, id := range g.Order {
		if p := g.Players[id]; p != nil && p.ConnectionID == connectionID {
			return p, true
		}
	}
	return nil, false
}

// OrderedPlayers returns the players in turn order.
func (g *GameState) OrderedPlayers() []*PlayerState {
	out := make([]*PlayerState, 0, len(g.Order))
	for _, id := range g.Order {
		if p, ok := g.Players[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// CurrentPlayer returns the turn holder, or nil for an empty game.
func (g *GameState) CurrentPlayer() *PlayerState {
	if len(g.Order) == 0 || g.CurrentTurnIndex < 0 || g.CurrentTurnIndex >= len(g.Order) {
		return nil
	}
	return g.Players[g.Order[g.CurrentTurnIndex]]
}

func (g *GameState) AppendLog(entry ActionLogEntry) {
	g.ActionLog = append(g.ActionLog, entry)
}
