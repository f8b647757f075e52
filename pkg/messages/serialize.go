package messages

import (
	"encoding/json"
	"fmt"

	envelopefb "github.com/cbodonnell/panchali/flatbuffers/envelope"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/klauspost/compress/zstd"
)

var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		panic(fmt.Sprintf("failed to create zstd encoder: %v", err))
	}
	decoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MessageBufferSize*64))
	if err != nil {
		panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
	}
}

// SerializeMessage encodes m as a zstd compressed flatbuffer envelope.
func SerializeMessage(m *Message) ([]byte, error) {
	b, err := SerializeMessageFlatbuffer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message: %v", err)
	}
	return encoder.EncodeAll(b, make([]byte, 0, len(b))), nil
}

func DeserializeMessage(data []byte) (*Message, error) {
	b, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress message: %v", err)
	}

	message, err := DeserializeMessageFlatbuffer(b)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}

	return message, nil
}

func SerializeMessageFlatbuffer(m *Message) ([]byte, error) {
	builder := flatbuffers.NewBuilder(len(m.Payload) + 64)

	messageType := builder.CreateString(m.Type)
	payload := builder.CreateByteVector(m.Payload)

	envelopefb.EnvelopeStart(builder)
	envelopefb.EnvelopeAddType(builder, messageType)
	envelopefb.EnvelopeAddAck(builder, m.Ack)
	envelopefb.EnvelopeAddPayload(builder, payload)
	envelopeOffset := envelopefb.EnvelopeEnd(builder)
	builder.Finish(envelopeOffset)

	return builder.FinishedBytes(), nil
}

func DeserializeMessageFlatbuffer(b []byte) (m *Message, err error) {
	// malformed input makes the generated accessors index out of range
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("malformed envelope: %v", r)
		}
	}()

	if len(b) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("envelope too short: %d bytes", len(b))
	}

	envelope := envelopefb.GetRootAsEnvelope(b, 0)
	message := &Message{
		Type: string(envelope.Type()),
		Ack:  envelope.Ack(),
	}
	if payload := envelope.PayloadBytes(); len(payload) > 0 {
		message.Payload = append(json.RawMessage(nil), payload...)
	}
	if message.Type == "" {
		return nil, fmt.Errorf("envelope has no type")
	}

	return message, nil
}

// SerializeJSON encodes m as a JSON text frame.
func SerializeJSON(m *Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %v", err)
	}
	return b, nil
}

func DeserializeJSON(b []byte) (*Message, error) {
	message := &Message{}
	if err := json.Unmarshal(b, message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %v", err)
	}
	if message.Type == "" {
		return nil, fmt.Errorf("message has no type")
	}
	return message, nil
}
