package types

type ActionType string

const (
	ActionRoll   ActionType = "roll"
	ActionMove   ActionType = "move"
	ActionEffect ActionType = "effect"
	ActionWin    ActionType = "win"
	ActionSystem ActionType = "system"
)

type ActionLogEntry struct {
	Type         ActionType `json:"type"`
	PlayerID     string     `json:"playerId,omitempty"`
	PlayerName   string     `json:"playerName,omitempty"`
	DiceValue    int        `json:"diceValue,omitempty"`
	FromPosition int        `json:"fromPosition,omitempty"`
	ToPosition   int        `json:"toPosition,omitempty"`
	BallotChange int        `json:"ballotChange,omitempty"`
	Message      string     `json:"message"`
	MessageBn    string     `json:"messageBn"`
	// Timestamp is unix milliseconds
	Timestamp int64 `json:"timestamp"`
}

// TileEffectResult is the outcome of the tile a player landed on.
type TileEffectResult struct {
	BallotChange int
	NewPosition  int
	Message      string
	MessageBn    string
	GoToJail     bool
}

// TurnResult is everything a single roll produced.
type TurnResult struct {
	PlayerID  string
	DiceValue int
	// FromPosition is where the player stood before rolling
	FromPosition int
	// LandedPosition is the tile reached by the dice alone
	LandedPosition int
	// ToPosition is where the player ends up after the tile effect
	ToPosition       int
	Effect           TileEffectResult
	CrossedStart     bool
	IsGameOver       bool
	WinnerID         string
	SkippedDueToJail bool
}
