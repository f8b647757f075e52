package network

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cbodonnell/panchali/pkg/log"
	"github.com/cbodonnell/panchali/pkg/messages"
	"nhooyr.io/websocket"
)

const (
	// ConnectionEventChannelSize represents the size of the connection event channel
	ConnectionEventChannelSize = 1024
	// ClientSendBufferSize is how many outbound frames a slow client may lag behind
	ClientSendBufferSize = 64
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrClientClosed   = errors.New("client closed")
	ErrSendBufferFull = errors.New("client send buffer full")
)

// Framing is the websocket frame kind a client last spoke in.
// Replies use the same kind.
type Framing int32

const (
	// FramingText carries JSON messages
	FramingText Framing = iota
	// FramingBinary carries zstd compressed flatbuffer envelopes
	FramingBinary
)

func (f Framing) String() string {
	if f == FramingBinary {
		return "binary"
	}
	return "text"
}

// Encode serializes msg for this framing.
func (f Framing) Encode(msg *messages.Message) (websocket.MessageType, []byte, error) {
	if f == FramingBinary {
		b, err := messages.SerializeMessage(msg)
		return websocket.MessageBinary, b, err
	}
	b, err := messages.SerializeJSON(msg)
	return websocket.MessageText, b, err
}

type frame struct {
	typ  websocket.MessageType
	data []byte
}

// Client represents a connected client
type Client struct {
	ID         string
	RemoteAddr string

	conn      *websocket.Conn
	send      chan frame
	done      chan struct{}
	closeOnce sync.Once
	framing   atomic.Int32
}

func newClient(id, remoteAddr string, conn *websocket.Conn) *Client {
	return &Client{
		ID:         id,
		RemoteAddr: remoteAddr,
		conn:       conn,
		send:       make(chan frame, ClientSendBufferSize),
		done:       make(chan struct{}),
	}
}

func (c *Client) Framing() Framing {
	return Framing(c.framing.Load())
}

func (c *Client) setFraming(f Framing) {
	c.framing.Store(int32(f))
}

// enqueue hands a frame to the writer without blocking.
func (c *Client) enqueue(f frame) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.send <- f:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		return ErrSendBufferFull
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// writePump writes queued frames until the client closes or a write fails.
func (c *Client) writePump(ctx context.Context, writeTimeout time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case f := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(writeCtx, f.typ, f.data)
			cancel()
			if err != nil {
				log.Warn("Failed to write to client %s: %v", c.ID, err)
				c.conn.Close(websocket.StatusPolicyViolation, "write failed")
				return
			}
		}
	}
}

// ConnectionEvent represents an event that happened to a connection
type ConnectionEvent struct {
	ConnectionID string
	Type         ConnectionEventType
}

// ConnectionEventType represents the type of a connection event
type ConnectionEventType int

const (
	ConnectionEventTypeConnect ConnectionEventType = iota
	ConnectionEventTypeDisconnect
)

// ClientManager manages connected clients and their room memberships
type ClientManager struct {
	clients             map[string]*Client
	rooms               map[string]map[string]struct{}
	clientsLock         sync.RWMutex
	connectionEventChan chan ConnectionEvent
}

// NewClientManager creates a new ClientManager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients:             make(map[string]*Client),
		rooms:               make(map[string]map[string]struct{}),
		connectionEventChan: make(chan ConnectionEvent, ConnectionEventChannelSize),
	}
}

// GetConnectionEventChan returns a one-way channel for receiving connection events
func (cm *ClientManager) GetConnectionEventChan() <-chan ConnectionEvent {
	return cm.connectionEventChan
}

// ConnectClient registers a client
func (cm *ClientManager) ConnectClient(client *Client) {
	cm.clientsLock.Lock()
	cm.clients[client.ID] = client
	cm.clientsLock.Unlock()

	cm.connectionEventChan <- ConnectionEvent{
		ConnectionID: client.ID,
		Type:         ConnectionEventTypeConnect,
	}
}

// DisconnectClient removes a client from the manager and every room it joined
func (cm *ClientManager) DisconnectClient(clientID string) {
	cm.clientsLock.Lock()
	client, ok := cm.clients[clientID]
	if !ok {
		cm.clientsLock.Unlock()
		return
	}
	delete(cm.clients, clientID)
	for room, members := range cm.rooms {
		delete(members, clientID)
		if len(members) == 0 {
			delete(cm.rooms, room)
		}
	}
	cm.clientsLock.Unlock()

	client.close()
	cm.connectionEventChan <- ConnectionEvent{
		ConnectionID: clientID,
		Type:         ConnectionEventTypeDisconnect,
	}
}

func (cm *ClientManager) GetClient(clientID string) (*Client, error) {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	client, ok := cm.clients[clientID]
	if !ok {
		return nil, ErrClientNotFound
	}
	return client, nil
}

func (cm *ClientManager) Count() int {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	return len(cm.clients)
}

// JoinRoom adds the connection to a broadcast group. Unknown connections are ignored.
func (cm *ClientManager) JoinRoom(clientID, room string) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()
	if _, ok := cm.clients[clientID]; !ok {
		return
	}
	members, ok := cm.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		cm.rooms[room] = members
	}
	members[clientID] = struct{}{}
}

func (cm *ClientManager) LeaveRoom(clientID, room string) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()
	if members, ok := cm.rooms[room]; ok {
		delete(members, clientID)
		if len(members) == 0 {
			delete(cm.rooms, room)
		}
	}
}

// RoomMembers returns the connection IDs in a room, sorted.
func (cm *ClientManager) RoomMembers(room string) []string {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	ids := make([]string, 0, len(cm.rooms[room]))
	for id := range cm.rooms[room] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SendToClient queues msg for one connection in its current framing.
func (cm *ClientManager) SendToClient(ctx context.Context, clientID string, msg *messages.Message) error {
	client, err := cm.GetClient(clientID)
	if err != nil {
		return fmt.Errorf("failed to get client %s: %w", clientID, err)
	}
	typ, b, err := client.Framing().Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %v", msg.Type, err)
	}
	if err := client.enqueue(frame{typ: typ, data: b}); err != nil {
		return fmt.Errorf("failed to send %s message to client %s: %w", msg.Type, clientID, err)
	}
	return nil
}

// SendToRoom queues msg for every connection in room. Each framing is
// encoded once. Slow clients miss the message rather than block the room.
func (cm *ClientManager) SendToRoom(ctx context.Context, room string, msg *messages.Message) {
	cm.clientsLock.RLock()
	clients := make([]*Client, 0, len(cm.rooms[room]))
	for id := range cm.rooms[room] {
		if client, ok := cm.clients[id]; ok {
			clients = append(clients, client)
		}
	}
	cm.clientsLock.RUnlock()

	encoded := make(map[Framing]frame, 2)
	for _, client := range clients {
		framing := client.Framing()
		f, ok := encoded[framing]
		if !ok {
			typ, b, err := framing.Encode(msg)
			if err != nil {
				log.Error("Failed to encode %s message as %s: %v", msg.Type, framing, err)
				continue
			}
			f = frame{typ: typ, data: b}
			encoded[framing] = f
		}
		if err := client.enqueue(f); err != nil {
			log.Warn("Dropped %s message for client %s in room %s: %v", msg.Type, client.ID, room, err)
		}
	}
}
