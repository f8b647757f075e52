package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cbodonnell/panchali/pkg/locale"
	"github.com/cbodonnell/panchali/pkg/log"
	"github.com/cbodonnell/panchali/pkg/messages"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"nhooyr.io/websocket"
)

// MessageHandler processes one inbound message. Messages from a single
// connection are handled in arrival order.
type MessageHandler func(ctx context.Context, connectionID string, message *messages.Message)

// WSServer represents a WebSocket server.
type WSServer struct {
	port           int
	tls            *TLSConfig
	allowedOrigins []string
	writeTimeout   time.Duration
	clientManager  *ClientManager
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewWSServerOptions struct {
	Port           int
	TLS            *TLSConfig
	AllowedOrigins []string
	WriteTimeout   time.Duration
	ClientManager  *ClientManager
}

// NewWSServer creates a new WebSocket server.
func NewWSServer(opts NewWSServerOptions) *WSServer {
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &WSServer{
		port:           opts.Port,
		tls:            opts.TLS,
		allowedOrigins: opts.AllowedOrigins,
		writeTimeout:   writeTimeout,
		clientManager:  opts.ClientManager,
	}
}

// Handler returns the HTTP routes served by the WebSocket server.
func (s *WSServer) Handler(ctx context.Context, messageHandler MessageHandler) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: s.allowedOrigins,
		})
		if err != nil {
			log.Error("Failed to upgrade to WebSocket: %v", err)
			return
		}
		log.Debug("New WebSocket connection from %s", r.RemoteAddr)
		go s.handleWSConnection(ctx, conn, r.RemoteAddr, messageHandler)
	})
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	return r
}

// Start starts the WebSocket server and blocks until ctx is done.
func (s *WSServer) Start(ctx context.Context, messageHandler MessageHandler) {
	addr := fmt.Sprintf(":%d", s.port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(ctx, messageHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	var listenAndServe func() error
	if s.tls != nil {
		log.Info("WebSocket server listening on %s with TLS", addr)
		listenAndServe = func() error {
			return server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("WebSocket server listening on %s", addr)
		listenAndServe = server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("WebSocket server closed")
			return
		}
		log.Error("WebSocket server error: %v", err)
	}
}

// handleWSConnection handles a WebSocket connection.
func (s *WSServer) handleWSConnection(ctx context.Context, conn *websocket.Conn, remoteAddr string, messageHandler MessageHandler) {
	ctx, cancel := context.WithCancel(ctx)
	client := newClient(uuid.NewString(), remoteAddr, conn)
	conn.SetReadLimit(messages.MessageBufferSize)

	s.clientManager.ConnectClient(client)
	go client.writePump(ctx, s.writeTimeout)

	defer func() {
		cancel()
		s.clientManager.DisconnectClient(client.ID)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		message, framing, err := ReadMessageFromWS(ctx, conn)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				log.Trace("Connection closed for %s", client.ID)
				return
			case -1:
				if errors.Is(err, errMalformedMessage) {
					log.Warn("Discarding malformed message from %s: %v", client.ID, err)
					s.sendMalformed(ctx, client.ID)
					continue
				}
			}
			log.Debug("Error reading WebSocket message from %s: %v", client.ID, err)
			return
		}

		client.setFraming(framing)
		messageHandler(ctx, client.ID, message)
	}
}

func (s *WSServer) sendMalformed(ctx context.Context, clientID string) {
	msg, err := messages.NewMessage(messages.MessageTypeError, messages.ErrorPayload{
		Code:    "INVALID_MESSAGE",
		Message: locale.ErrInvalidRequest,
	})
	if err != nil {
		return
	}
	if err := s.clientManager.SendToClient(ctx, clientID, msg); err != nil {
		log.Warn("Failed to send error to %s: %v", clientID, err)
	}
}

var errMalformedMessage = errors.New("malformed message")

// ReadMessageFromWS reads a Message from a WebSocket connection and
// reports the framing it arrived in.
func ReadMessageFromWS(ctx context.Context, conn *websocket.Conn) (*messages.Message, Framing, error) {
	typ, b, err := conn.Read(ctx)
	if err != nil {
		return nil, FramingText, err
	}

	var msg *messages.Message
	framing := FramingText
	if typ == websocket.MessageBinary {
		framing = FramingBinary
		msg, err = messages.DeserializeMessage(b)
	} else {
		msg, err = messages.DeserializeJSON(b)
	}
	if err != nil {
		return nil, framing, fmt.Errorf("%w: %v", errMalformedMessage, err)
	}

	return msg, framing, nil
}
