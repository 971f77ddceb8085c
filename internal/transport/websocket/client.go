package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/punto-backend/internal/apperror"
)

const (
	DefaultSendBuffer = 32
	writeWait         = 10 * time.Second
)

var ErrSendQueueFull = errors.New("send queue is full")

// Client is a session member talking to the relay over one websocket.
type Client struct {
	logger *slog.Logger
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}

	closeOnce sync.Once

	requestMu sync.Mutex
	pendingMu sync.Mutex
	pending   map[string]chan *Payload

	handlersMu        sync.RWMutex
	stateHandler      func(code string, state json.RawMessage)
	membershipHandler func(code string, members []int)
}

// Dial - connects to the relay at url, e.g. ws://localhost:9090/ws.
func Dial(ctx context.Context, logger *slog.Logger, url string, sendBuffer int) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay %s: %w", url, err)
	}

	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}

	client := &Client{
		logger:  logger.With("component", "relay-client"),
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		pending: make(map[string]chan *Payload),
	}

	go client.readMessages()
	go client.writeMessages()

	return client, nil
}

// CreateSession - opens a new session. An empty code lets the relay pick one.
func (that *Client) CreateSession(ctx context.Context, code string) (string, int, error) {
	response, err := that.request(ctx, ActionSessionCreate, Payload{Code: code})
	if err != nil {
		return "", 0, err
	}

	return response.Code, response.PlayerID, nil
}

// JoinSession - joins an existing session. Returns the assigned player id and the
// latest state the relay holds for the session, if any.
func (that *Client) JoinSession(ctx context.Context, code string) (int, json.RawMessage, error) {
	response, err := that.request(ctx, ActionSessionJoin, Payload{Code: code})
	if err != nil {
		return 0, nil, err
	}

	return response.PlayerID, response.State, nil
}

// BroadcastState - queues the state for the relay without waiting.
func (that *Client) BroadcastState(code string, state json.RawMessage) error {
	data, err := Encode(ActionStateUpdate, Payload{Code: code, State: state})
	if err != nil {
		return err
	}

	return that.enqueue(data)
}

func (that *Client) OnStateReceived(handler func(code string, state json.RawMessage)) {
	that.handlersMu.Lock()
	that.stateHandler = handler
	that.handlersMu.Unlock()
}

func (that *Client) OnMembershipChanged(handler func(code string, members []int)) {
	that.handlersMu.Lock()
	that.membershipHandler = handler
	that.handlersMu.Unlock()
}

// Done - is closed once the connection is gone.
func (that *Client) Done() <-chan struct{} {
	return that.done
}

func (that *Client) Close() error {
	var err error

	that.closeOnce.Do(func() {
		close(that.done)

		_ = that.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		err = that.conn.Close()
	})

	if err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}

	return nil
}

// request - sends a request and waits for the reply with the same action.
// Requests are sent one at a time.
func (that *Client) request(ctx context.Context, action string, payload Payload) (*Payload, error) {
	that.requestMu.Lock()
	defer that.requestMu.Unlock()

	data, err := Encode(action, payload)
	if err != nil {
		return nil, err
	}

	reply := make(chan *Payload, 1)

	that.pendingMu.Lock()
	that.pending[action] = reply
	that.pendingMu.Unlock()

	defer func() {
		that.pendingMu.Lock()
		delete(that.pending, action)
		that.pendingMu.Unlock()
	}()

	if err = that.enqueue(data); err != nil {
		return nil, err
	}

	select {
	case response := <-reply:
		if response.Error != "" {
			return nil, fmt.Errorf("%s: %w", action, apperror.FromMessage(response.Error))
		}

		return response, nil
	case <-that.done:
		return nil, apperror.ErrNotConnected
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", action, ctx.Err())
	}
}

func (that *Client) enqueue(data []byte) error {
	select {
	case <-that.done:
		return apperror.ErrNotConnected
	default:
	}

	select {
	case that.send <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (that *Client) writeMessages() {
	log := that.logger.With("method", "writeMessages")

	for {
		select {
		case <-that.done:
			return
		case data := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error("failed to write message", "error", err)
				_ = that.Close()
				return
			}
		}
	}
}

func (that *Client) readMessages() {
	log := that.logger.With("method", "readMessages")

	defer func() {
		_ = that.Close()
	}()

	for {
		_, data, err := that.conn.ReadMessage()
		if err != nil {
			select {
			case <-that.done:
			default:
				log.Info("relay connection lost", "error", err)
			}

			return
		}

		message, payload, err := Decode(data)
		if err != nil {
			log.Error("failed to decode message", "error", err)
			continue
		}

		that.dispatch(message.Action, payload)
	}
}

func (that *Client) dispatch(action string, payload *Payload) {
	switch action {
	case ActionStateUpdate:
		if payload.Error != "" {
			that.logger.Warn("state update rejected by relay", "error", payload.Error)
			return
		}

		that.handlersMu.RLock()
		handler := that.stateHandler
		that.handlersMu.RUnlock()

		if handler != nil {
			handler(payload.Code, payload.State)
		}
	case ActionSessionMembers:
		that.handlersMu.RLock()
		handler := that.membershipHandler
		that.handlersMu.RUnlock()

		if handler != nil {
			handler(payload.Code, payload.Members)
		}
	default:
		that.pendingMu.Lock()
		reply, ok := that.pending[action]
		that.pendingMu.Unlock()

		if !ok {
			that.logger.Debug("unexpected reply", "action", action)
			return
		}

		select {
		case reply <- payload:
		default:
		}
	}
}
