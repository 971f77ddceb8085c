package websocket

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/punto-backend/internal/entity"
	peer "github.com/rocketscienceinc/punto-backend/internal/transport/websocket"
)

// writeMessages - drains the send queue of a connection and pings it while idle.
func (that *Server) writeMessages(conn *connection) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-conn.send:
			if !ok {
				_ = conn.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return nil
			}

			_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("failed to write message: %w", err)
			}
		case <-ticker.C:
			if err := conn.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("failed to write ping: %w", err)
			}
		}
	}
}

// sendMessage - queues a message for a connection. A full queue drops the message
// so a slow client never blocks the relay.
func (that *Server) sendMessage(connectionID, action string, payload peer.Payload) error {
	data, err := peer.Encode(action, payload)
	if err != nil {
		return err
	}

	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	conn, ok := that.connections[connectionID]
	if !ok {
		return fmt.Errorf("connection %s is closed", connectionID)
	}

	select {
	case conn.send <- data:
	default:
		that.logger.Warn("send queue full, message dropped", "connectionID", connectionID, "action", action)
	}

	return nil
}

func (that *Server) sendErrorResponse(connectionID, action string, cause error) error {
	if err := that.sendMessage(connectionID, action, peer.Payload{Error: cause.Error()}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}

// broadcast - sends to every member of the session except skipConnectionID.
func (that *Server) broadcast(session *entity.Session, skipConnectionID, action string, payload peer.Payload) {
	for _, member := range session.Members {
		if member.ConnectionID == skipConnectionID {
			continue
		}

		if err := that.sendMessage(member.ConnectionID, action, payload); err != nil {
			that.logger.Warn("failed to relay message", "code", session.Code, "playerID", member.PlayerID, "error", err)
		}
	}
}

// unregister - forgets the connection and stops its writer.
func (that *Server) unregister(conn *connection) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	if _, ok := that.connections[conn.id]; ok {
		delete(that.connections, conn.id)
		close(conn.send)
	}
}
