package messages

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeserializeMessage(t *testing.T) {
	rolled, err := NewMessage(MessageTypeDiceRolled, DiceRolled{
		PlayerID:     "p1",
		PlayerName:   "করিম",
		DiceValue:    4,
		ToPosition:   14,
		Message:      "Go to Jail! Skip next turn.",
		MessageBn:    "জেলে যান! পরবর্তী পালা বাদ।",
		CrossedStart: false,
	})
	require.NoError(t, err)

	ack, err := NewAck(7, CreateRoomResponse{Success: true, Code: "ABC234"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		message *Message
	}{
		{name: "event", message: rolled},
		{name: "ack", message: ack},
		{name: "no payload", message: &Message{Type: MessageTypeRollDice}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := SerializeMessage(tt.message)
			require.NoError(t, err)

			got, err := DeserializeMessage(b)
			require.NoError(t, err)
			assert.Equal(t, tt.message.Type, got.Type)
			assert.Equal(t, tt.message.Ack, got.Ack)
			assert.Equal(t, string(tt.message.Payload), string(got.Payload))
		})
	}
}

func TestDeserializeMessageRejectsGarbage(t *testing.T) {
	_, err := DeserializeMessage([]byte("not zstd"))
	assert.Error(t, err)

	_, err = DeserializeMessageFlatbuffer([]byte{0xff, 0xff, 0xff, 0x7f, 0x01})
	assert.Error(t, err)

	_, err = DeserializeMessageFlatbuffer([]byte{0x01})
	assert.Error(t, err)
}

func TestSerializeJSON(t *testing.T) {
	m, err := NewMessage(MessageTypeJoinRoom, JoinRoomRequest{Code: "ABC234", PlayerName: "Rahim"})
	require.NoError(t, err)
	m.Ack = 3

	b, err := SerializeJSON(m)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "join_room", raw["type"])
	assert.Equal(t, float64(3), raw["ack"])

	got, err := DeserializeJSON(b)
	require.NoError(t, err)

	var req JoinRoomRequest
	require.NoError(t, got.Decode(&req))
	assert.Equal(t, "ABC234", req.Code)
	assert.Equal(t, "Rahim", req.PlayerName)
}

func TestDeserializeJSONRequiresType(t *testing.T) {
	_, err := DeserializeJSON([]byte(`{"payload":{}}`))
	assert.Error(t, err)

	_, err = DeserializeJSON([]byte(`{`))
	assert.Error(t, err)
}

func TestDecodeEmptyPayload(t *testing.T) {
	var req RollDiceRequest
	assert.NoError(t, (&Message{Type: MessageTypeRollDice}).Decode(&req))
	assert.Error(t, (&Message{Type: MessageTypeRollDice, Payload: []byte("[")}).Decode(&req))
}
