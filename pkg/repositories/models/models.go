package models

import "time"

type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"
	RoomStatusPlaying  RoomStatus = "playing"
	RoomStatusFinished RoomStatus = "finished"
)

// CanTransitionTo reports whether a room may move from s to next.
// Status only moves forward: waiting, playing, finished.
func (s RoomStatus) CanTransitionTo(next RoomStatus) bool {
	switch s {
	case RoomStatusWaiting:
		return next == RoomStatusPlaying
	case RoomStatusPlaying:
		return next == RoomStatusFinished
	default:
		return false
	}
}

type Room struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	HostName  string     `json:"hostName"`
	Status    RoomStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Player struct {
	ID     string `json:"id"`
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
	// ConnectionID is empty while the player has no live connection
	ConnectionID       string    `json:"-"`
	AuthToken          string    `json:"-"`
	Position           int       `json:"position"`
	Ballots            int       `json:"ballots"`
	HasCompletedCircle bool      `json:"hasCompletedCircle"`
	IsAlive            bool      `json:"isAlive"`
	IsHost             bool      `json:"isHost"`
	JoinOrder          int       `json:"joinOrder"`
	JoinedAt           time.Time `json:"joinedAt"`
}

// GameCheckpoint is the persisted turn pointer and action log of a room.
// ActionLog holds the JSON encoded log entries.
type GameCheckpoint struct {
	RoomID              string
	CurrentTurnPlayerID string
	CurrentTurnIndex    int
	ActionLog           []byte
	UpdatedAt           time.Time
}
