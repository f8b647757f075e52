package messages

import (
	"encoding/json"
	"fmt"
)

const (
	// MessageBufferSize represents the maximum size of an inbound message
	MessageBufferSize = 16 * 1024
)

// Client to server message types
const (
	MessageTypeCreateRoom = "create_room"
	MessageTypeJoinRoom   = "join_room"
	MessageTypeStartGame  = "start_game"
	MessageTypeRollDice   = "roll_dice"
)

// Server to client message types
const (
	MessageTypeAck                = "ack"
	MessageTypeError              = "error"
	MessageTypePlayerJoined       = "player_joined"
	MessageTypePlayerReconnected  = "player_reconnected"
	MessageTypePlayerDisconnected = "player_disconnected"
	MessageTypeGameStarted        = "game_started"
	MessageTypeDiceRolled         = "dice_rolled"
	MessageTypeShowStory          = "show_story"
	MessageTypeNextTurn           = "next_turn"
	MessageTypeGameOver           = "game_over"
)

// Message represents a generic message for serialization/deserialization.
// Ack is a client chosen correlation id; a request carrying one receives
// exactly one ack message echoing it.
type Message struct {
	Type    string          `json:"type"`
	Ack     uint32          `json:"ack,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals payload into a message of the given type.
func NewMessage(messageType string, payload interface{}) (*Message, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %v", messageType, err)
	}
	return &Message{
		Type:    messageType,
		Payload: b,
	}, nil
}

// NewAck marshals payload into an ack for the request correlated by ack.
func NewAck(ack uint32, payload interface{}) (*Message, error) {
	m, err := NewMessage(MessageTypeAck, payload)
	if err != nil {
		return nil, err
	}
	m.Ack = ack
	return m, nil
}

// Decode unmarshals the payload into v. An absent payload decodes as {}.
func (m *Message) Decode(v interface{}) error {
	if len(m.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %v", m.Type, err)
	}
	return nil
}

type CreateRoomRequest struct {
	HostName string `json:"hostName"`
}

type CreateRoomResponse struct {
	Success   bool   `json:"success"`
	Code      string `json:"code,omitempty"`
	RoomID    string `json:"roomId,omitempty"`
	PlayerID  string `json:"playerId,omitempty"`
	AuthToken string `json:"authToken,omitempty"`
	IsHost    bool   `json:"isHost,omitempty"`
	Error     string `json:"error,omitempty"`
}

type JoinRoomRequest struct {
	Code       string `json:"code"`
	PlayerName string `json:"playerName"`
	// AuthToken, when set, reattaches to an existing seat
	AuthToken string `json:"authToken,omitempty"`
}

type JoinRoomResponse struct {
	Success   bool          `json:"success"`
	RoomID    string        `json:"roomId,omitempty"`
	PlayerID  string        `json:"playerId,omitempty"`
	AuthToken string        `json:"authToken,omitempty"`
	IsHost    bool          `json:"isHost,omitempty"`
	Players   []LobbyPlayer `json:"players,omitempty"`
	Error     string        `json:"error,omitempty"`
}

type StartGameRequest struct {
	Code      string `json:"code"`
	AuthToken string `json:"authToken"`
}

type RollDiceRequest struct {
	RoomID    string `json:"roomId"`
	AuthToken string `json:"authToken,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// LobbyPlayer is a roster entry sent outside of a running game view.
type LobbyPlayer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsHost      bool   `json:"isHost"`
	IsConnected bool   `json:"isConnected"`
	Position    int    `json:"position"`
	Ballots     int    `json:"ballots"`
}

// PlayerInfo is the public view of a player in a running game.
type PlayerInfo struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Position           int    `json:"position"`
	Ballots            int    `json:"ballots"`
	HasCompletedCircle bool   `json:"hasCompletedCircle"`
	IsAlive            bool   `json:"isAlive"`
	IsConnected        bool   `json:"isConnected"`
}

type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PlayerJoined struct {
	Player  PlayerRef     `json:"player"`
	Players []LobbyPlayer `json:"players"`
}

// PlayerPresence is the payload of player_reconnected and player_disconnected.
type PlayerPresence struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type GameStarted struct {
	YourID      string       `json:"yourId"`
	Players     []PlayerInfo `json:"players"`
	CurrentTurn string       `json:"currentTurn"`
}

type DiceRolled struct {
	PlayerID         string `json:"playerId"`
	PlayerName       string `json:"playerName"`
	DiceValue        int    `json:"diceValue"`
	FromPosition     int    `json:"fromPosition"`
	LandedPosition   int    `json:"landedPosition"`
	ToPosition       int    `json:"toPosition"`
	BallotChange     int    `json:"ballotChange"`
	BallotChangeText string `json:"ballotChangeText,omitempty"`
	Message          string `json:"message"`
	MessageBn        string `json:"messageBn"`
	CrossedStart     bool   `json:"crossedStart"`
	SkippedDueToJail bool   `json:"skippedDueToJail"`
}

type ShowStory struct {
	StoryType  string   `json:"storyType"`
	TitleBn    string   `json:"titleBn"`
	TitleEn    string   `json:"titleEn"`
	PlayerName string   `json:"playerName"`
	Images     []string `json:"images"`
}

const (
	NextTurnReasonDisconnect = "disconnect"
	NextTurnReasonReconnect  = "reconnect"
)

type NextTurn struct {
	CurrentPlayer string       `json:"currentPlayer"`
	Players       []PlayerInfo `json:"players"`
	Reason        string       `json:"reason,omitempty"`
}

type GameOver struct {
	WinnerID   string `json:"winnerId"`
	WinnerName string `json:"winnerName"`
	// FinisherID is the player whose completed lap ended the game
	FinisherID string       `json:"finisherId"`
	Players    []PlayerInfo `json:"players"`
	Message    string       `json:"message"`
	MessageBn  string       `json:"messageBn"`
}
