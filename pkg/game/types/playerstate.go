package types

type PlayerState struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// ConnectionID is the live connection bound to the player, empty when none
	ConnectionID       string `json:"-"`
	Position           int    `json:"position"`
	Ballots            int    `json:"ballots"`
	HasCompletedCircle bool   `json:"hasCompletedCircle"`
	IsAlive            bool   `json:"isAlive"`
	IsConnected        bool   `json:"isConnected"`
	// JailTurnsRemaining counts the player's own turns still to be skipped
	JailTurnsRemaining int `json:"jailTurnsRemaining"`
}
