package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/punto-backend/internal/entity"
	"github.com/rocketscienceinc/punto-backend/internal/pkg"
	peer "github.com/rocketscienceinc/punto-backend/internal/transport/websocket"
)

const (
	DefaultSendBuffer = 32
	maxMessageSize    = 1 << 20
	pingInterval      = 30 * time.Second
	pongWait          = 2 * pingInterval
	writeWait         = 10 * time.Second
)

type sessionRepo interface {
	Create(ctx context.Context, session *entity.Session) error
	GetByCode(ctx context.Context, code string) (*entity.Session, error)
	Update(ctx context.Context, session *entity.Session) error
	DeleteByCode(ctx context.Context, code string) error
}

type handlerFunc func(ctx context.Context, conn *connection, payload *peer.Payload) error

// Server relays game state between the members of a session. It never looks
// inside the state it forwards.
type Server struct {
	logger      *slog.Logger
	sessions    sessionRepo
	maxMembers  int
	sendBuffer  int
	upgrader    websocket.Upgrader
	handlers    map[string]handlerFunc
	newCode     func() (string, error)
	sessionsMux sync.Mutex

	connectionsMutex sync.RWMutex
	connections      map[string]*connection
}

// connection is one websocket client. code is guarded by Server.sessionsMux.
type connection struct {
	id   string
	code string
	ws   *websocket.Conn
	send chan []byte
}

func New(logger *slog.Logger, sessions sessionRepo, maxMembers, sendBuffer int) *Server {
	if maxMembers <= 0 || maxMembers > entity.MaxPlayers {
		maxMembers = entity.MaxPlayers
	}

	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}

	server := &Server{
		logger:     logger.With("component", "relay"),
		sessions:   sessions,
		maxMembers: maxMembers,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		handlers:    make(map[string]handlerFunc),
		newCode:     pkg.NewSessionCode,
		connections: make(map[string]*connection),
	}

	server.handlers[peer.ActionSessionCreate] = server.handleCreateSession
	server.handlers[peer.ActionSessionJoin] = server.handleJoinSession
	server.handlers[peer.ActionStateUpdate] = server.handleStateUpdate

	return server
}

// ServeHTTP - upgrades the request and serves the connection until it closes.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := &connection{
		id:   pkg.NewID(),
		ws:   ws,
		send: make(chan []byte, that.sendBuffer),
	}

	that.connectionsMutex.Lock()
	that.connections[conn.id] = conn
	that.connectionsMutex.Unlock()

	log = log.With("connectionID", conn.id)
	log.Info("WebSocket connection established")

	go func() {
		if err := that.writeMessages(conn); err != nil {
			log.Debug("writer stopped", "error", err)
		}
		_ = ws.Close()
	}()

	ctx := context.WithoutCancel(req.Context())

	if err = that.handleMessages(ctx, conn); err != nil {
		log.Info("connection closed", "error", err)
	}

	that.handleDisconnect(ctx, conn)
}

// Shutdown - closes every open connection. Their read loops then clean up membership.
func (that *Server) Shutdown() {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	for _, conn := range that.connections {
		_ = conn.ws.Close()
	}
}

// ConnectionCount - returns the number of open connections.
func (that *Server) ConnectionCount() int {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	return len(that.connections)
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, conn *connection) error {
	log := that.logger.With("method", "handleMessages", "connectionID", conn.id)

	conn.ws.SetReadLimit(maxMessageSize)
	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			return err
		}

		_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))

		message, payload, err := peer.Decode(data)
		if err != nil {
			log.Error("failed to decode message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Debug("unknown action", "action", message.Action)
			continue
		}

		if err = handler(ctx, conn, payload); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}
