package handlers

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/cbodonnell/panchali/pkg/game"
	"github.com/cbodonnell/panchali/pkg/game/constants"
	"github.com/cbodonnell/panchali/pkg/locale"
	"github.com/cbodonnell/panchali/pkg/log"
	"github.com/cbodonnell/panchali/pkg/messages"
	"github.com/cbodonnell/panchali/pkg/queue"
	"github.com/cbodonnell/panchali/pkg/repositories"
	"github.com/cbodonnell/panchali/pkg/state"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/cbodonnell/panchali/pkg/handlers")

// Transport is the messaging channel the handlers talk through.
// Room groups are keyed by room ID.
type Transport interface {
	JoinRoom(connectionID, room string)
	SendToClient(ctx context.Context, connectionID string, msg *messages.Message) error
	SendToRoom(ctx context.Context, room string, msg *messages.Message)
}

// Handlers turns inbound connection events into game actions.
type Handlers struct {
	repository      repositories.Repository
	states          state.StateManager
	reconciler      *state.Reconciler
	engine          *game.Engine
	transport       Transport
	checkpointQueue queue.Queue
	minPlayers      int
	maxPlayers      int
	now             func() time.Time
}

type NewHandlersOptions struct {
	Repository   repositories.Repository
	StateManager state.StateManager
	Reconciler   *state.Reconciler
	Engine       *game.Engine
	Transport    Transport
	// CheckpointQueue receives the room ID after every persisted change. Optional.
	CheckpointQueue queue.Queue
	MinPlayers      int
	MaxPlayers      int
	Now             func() time.Time
}

func NewHandlers(opts NewHandlersOptions) *Handlers {
	h := &Handlers{
		repository:      opts.Repository,
		states:          opts.StateManager,
		reconciler:      opts.Reconciler,
		engine:          opts.Engine,
		transport:       opts.Transport,
		checkpointQueue: opts.CheckpointQueue,
		minPlayers:      opts.MinPlayers,
		maxPlayers:      opts.MaxPlayers,
		now:             opts.Now,
	}
	if h.minPlayers <= 0 {
		h.minPlayers = constants.MinPlayers
	}
	if h.maxPlayers <= 0 {
		h.maxPlayers = constants.MaxPlayers
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.reconciler == nil {
		h.reconciler = state.NewReconciler(state.NewReconcilerOptions{
			Repository:   opts.Repository,
			StateManager: opts.StateManager,
			Now:          h.now,
		})
	}
	return h
}

// Dispatch routes one inbound message to its handler and reports the
// outcome to the sender. create_room and join_room are always answered
// with an ack; other requests only hear back when they fail.
func (h *Handlers) Dispatch(ctx context.Context, connectionID string, msg *messages.Message) {
	switch msg.Type {
	case messages.MessageTypeCreateRoom:
		req := messages.CreateRoomRequest{}
		if err := msg.Decode(&req); err != nil {
			h.ack(ctx, connectionID, msg.Ack, messages.CreateRoomResponse{Error: locale.ErrInvalidRequest})
			return
		}
		resp, err := h.CreateRoom(ctx, connectionID, req)
		if err != nil {
			resp = &messages.CreateRoomResponse{Error: h.report(connectionID, msg.Type, err).Message}
		}
		h.ack(ctx, connectionID, msg.Ack, resp)
	case messages.MessageTypeJoinRoom:
		req := messages.JoinRoomRequest{}
		if err := msg.Decode(&req); err != nil {
			h.ack(ctx, connectionID, msg.Ack, messages.JoinRoomResponse{Error: locale.ErrInvalidRequest})
			return
		}
		resp, err := h.JoinRoom(ctx, connectionID, req)
		if err != nil {
			resp = &messages.JoinRoomResponse{Error: h.report(connectionID, msg.Type, err).Message}
		}
		h.ack(ctx, connectionID, msg.Ack, resp)
	case messages.MessageTypeStartGame:
		req := messages.StartGameRequest{}
		if err := msg.Decode(&req); err != nil {
			h.sendError(ctx, connectionID, newError(CodeInvalidRequest, locale.ErrInvalidRequest))
			return
		}
		if err := h.StartGame(ctx, connectionID, req); err != nil {
			h.sendError(ctx, connectionID, h.report(connectionID, msg.Type, err))
		}
	case messages.MessageTypeRollDice:
		req := messages.RollDiceRequest{}
		if err := msg.Decode(&req); err != nil {
			h.sendError(ctx, connectionID, newError(CodeInvalidRequest, locale.ErrInvalidRequest))
			return
		}
		if err := h.RollDice(ctx, connectionID, req); err != nil {
			h.sendError(ctx, connectionID, h.report(connectionID, msg.Type, err))
		}
	default:
		log.Debug("Ignoring unknown message type %q from %s", msg.Type, connectionID)
		h.sendError(ctx, connectionID, newError(CodeInvalidRequest, locale.ErrInvalidRequest))
	}
}

// report logs a failed request at a level matching its kind.
func (h *Handlers) report(connectionID, messageType string, err error) *Error {
	e := AsError(err)
	switch e.Kind() {
	case KindAuthorization:
		log.Warn("Rejected %s from %s: %v", messageType, connectionID, e)
	case KindInternal:
		log.Error("Failed to handle %s from %s: %v", messageType, connectionID, e)
	default:
		log.Debug("Refused %s from %s: %v", messageType, connectionID, e)
	}
	return e
}

func (h *Handlers) ack(ctx context.Context, connectionID string, ack uint32, payload interface{}) {
	msg, err := messages.NewAck(ack, payload)
	if err != nil {
		log.Error("Failed to build ack: %v", err)
		return
	}
	if err := h.transport.SendToClient(ctx, connectionID, msg); err != nil {
		log.Warn("Failed to ack %s: %v", connectionID, err)
	}
}

func (h *Handlers) sendError(ctx context.Context, connectionID string, e *Error) {
	h.send(ctx, connectionID, messages.MessageTypeError, messages.ErrorPayload{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

func (h *Handlers) send(ctx context.Context, connectionID, messageType string, payload interface{}) {
	if connectionID == "" {
		return
	}
	msg, err := messages.NewMessage(messageType, payload)
	if err != nil {
		log.Error("Failed to build %s message: %v", messageType, err)
		return
	}
	if err := h.transport.SendToClient(ctx, connectionID, msg); err != nil {
		log.Warn("Failed to send %s to %s: %v", messageType, connectionID, err)
	}
}

func (h *Handlers) broadcast(ctx context.Context, roomID, messageType string, payload interface{}) {
	msg, err := messages.NewMessage(messageType, payload)
	if err != nil {
		log.Error("Failed to build %s message: %v", messageType, err)
		return
	}
	h.transport.SendToRoom(ctx, roomID, msg)
}

func (h *Handlers) enqueueCheckpoint(roomID string) {
	if h.checkpointQueue == nil {
		return
	}
	if err := h.checkpointQueue.Enqueue(roomID); err != nil {
		log.Warn("Failed to queue checkpoint for room %s: %v", roomID, err)
	}
}

func tokensEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
