package workers

import (
	"context"

	"github.com/cbodonnell/panchali/pkg/log"
	"github.com/cbodonnell/panchali/pkg/network"
)

// DisconnectHandler reacts to a connection going away.
type DisconnectHandler interface {
	HandleDisconnect(ctx context.Context, connectionID string) error
}

type ConnectionEventWorker struct {
	connectionEventChan <-chan network.ConnectionEvent
	disconnectHandler   DisconnectHandler
}

type NewConnectionEventWorkerOptions struct {
	ConnectionEventChan <-chan network.ConnectionEvent
	DisconnectHandler   DisconnectHandler
}

// NewConnectionEventWorker creates a new ConnectionEventWorker.
// The worker processes connection events like connect and disconnect
// in the order the transport reported them.
func NewConnectionEventWorker(opts NewConnectionEventWorkerOptions) *ConnectionEventWorker {
	return &ConnectionEventWorker{
		connectionEventChan: opts.ConnectionEventChan,
		disconnectHandler:   opts.DisconnectHandler,
	}
}

func (w *ConnectionEventWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.connectionEventChan:
			if !ok {
				return
			}
			switch event.Type {
			case network.ConnectionEventTypeConnect:
				log.Trace("Client %s connected", event.ConnectionID)
			case network.ConnectionEventTypeDisconnect:
				w.handleClientDisconnect(ctx, event)
			default:
				log.Error("Unknown connection event type: %v", event.Type)
			}
		}
	}
}

func (w *ConnectionEventWorker) handleClientDisconnect(ctx context.Context, event network.ConnectionEvent) {
	if err := w.disconnectHandler.HandleDisconnect(ctx, event.ConnectionID); err != nil {
		log.Error("Failed to handle disconnect of %s: %v", event.ConnectionID, err)
	}
}
