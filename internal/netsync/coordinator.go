package netsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/rocketscienceinc/punto-backend/internal/apperror"
	"github.com/rocketscienceinc/punto-backend/internal/entity"
	"github.com/rocketscienceinc/punto-backend/internal/punto"
)

type Role string

const (
	RoleNone  Role = ""
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

var ErrAlreadyInSession = errors.New("coordinator already joined a session")

// Transport carries session traffic to the other peers.
type Transport interface {
	CreateSession(ctx context.Context, code string) (string, int, error)
	JoinSession(ctx context.Context, code string) (int, json.RawMessage, error)
	BroadcastState(code string, state json.RawMessage) error
	OnStateReceived(handler func(code string, state json.RawMessage))
	OnMembershipChanged(handler func(code string, members []int))
	Close() error
}

// Game is the local game being replicated.
type Game interface {
	State() *entity.GameState
	ReplaceState(state *entity.GameState)
	AddPlayer(playerID int) error
	PlayerIDs() []int
}

// Coordinator keeps one local game in step with a session. The host owns the
// roster; every peer publishes its state after each local change and adopts
// whatever state it receives.
type Coordinator struct {
	logger    *slog.Logger
	transport Transport
	game      Game

	connectMu sync.Mutex
	applyMu   sync.Mutex // orders the state handed over on join against relayed states

	mu       sync.Mutex
	code     string
	playerID int
	role     Role
	received bool
}

func New(logger *slog.Logger, transport Transport, game Game) *Coordinator {
	coordinator := &Coordinator{
		logger:    logger.With("component", "netsync"),
		transport: transport,
		game:      game,
	}

	transport.OnStateReceived(coordinator.handleState)
	transport.OnMembershipChanged(coordinator.handleMembership)

	return coordinator
}

// Host - creates a session, takes player id 1 and publishes the current state.
func (that *Coordinator) Host(ctx context.Context) (string, error) {
	that.connectMu.Lock()
	defer that.connectMu.Unlock()

	that.mu.Lock()
	if that.role != RoleNone {
		that.mu.Unlock()
		return "", ErrAlreadyInSession
	}
	that.mu.Unlock()

	code, playerID, err := that.transport.CreateSession(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	that.mu.Lock()
	that.code = code
	that.playerID = playerID
	that.role = RoleHost
	that.mu.Unlock()

	that.logger.Info("hosting session", "code", code)

	that.BroadcastState(that.game.State())

	return code, nil
}

// Join - joins a session by code and adopts the latest state the relay holds,
// unless a newer one has already arrived.
func (that *Coordinator) Join(ctx context.Context, code string) (int, error) {
	that.connectMu.Lock()
	defer that.connectMu.Unlock()

	that.mu.Lock()
	if that.role != RoleNone {
		that.mu.Unlock()
		return 0, ErrAlreadyInSession
	}
	that.code = code
	that.mu.Unlock()

	playerID, rawState, err := that.transport.JoinSession(ctx, code)
	if err != nil {
		that.mu.Lock()
		that.code = ""
		that.mu.Unlock()

		return 0, fmt.Errorf("failed to join session %s: %w", code, err)
	}

	that.applyMu.Lock()
	defer that.applyMu.Unlock()

	that.mu.Lock()
	that.playerID = playerID
	that.role = RoleGuest
	adopt := !that.received && len(rawState) > 0
	that.mu.Unlock()

	that.logger.Info("joined session", "code", code, "playerID", playerID)

	if adopt {
		that.applyState(rawState)
	}

	return playerID, nil
}

// Session - returns the session code, the local player id and the role.
func (that *Coordinator) Session() (string, int, Role) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.code, that.playerID, that.role
}

// BroadcastState - publishes a local state. Failures are logged and dropped.
func (that *Coordinator) BroadcastState(state *entity.GameState) {
	log := that.logger.With("method", "BroadcastState")

	that.mu.Lock()
	code, role := that.code, that.role
	that.mu.Unlock()

	if role == RoleNone || state == nil {
		return
	}

	rawState, err := json.Marshal(state)
	if err != nil {
		log.Error("failed to marshal state", "error", err)
		return
	}

	if err = that.transport.BroadcastState(code, rawState); err != nil {
		log.Warn("failed to broadcast state", "code", code, "error", err)
	}
}

func (that *Coordinator) Close() error {
	that.mu.Lock()
	that.role = RoleNone
	that.code = ""
	that.mu.Unlock()

	if err := that.transport.Close(); err != nil && !errors.Is(err, apperror.ErrNotConnected) {
		return fmt.Errorf("failed to close transport: %w", err)
	}

	return nil
}

func (that *Coordinator) handleState(code string, rawState json.RawMessage) {
	that.applyMu.Lock()
	defer that.applyMu.Unlock()

	that.mu.Lock()
	if code != that.code || that.code == "" {
		that.mu.Unlock()
		return
	}
	that.received = true
	that.mu.Unlock()

	that.applyState(rawState)
}

func (that *Coordinator) applyState(rawState json.RawMessage) {
	var state entity.GameState
	if err := json.Unmarshal(rawState, &state); err != nil {
		that.logger.Error("failed to unmarshal received state", "error", err)
		return
	}

	if err := state.Validate(); err != nil {
		that.logger.Warn("rejecting received state", "error", err)
		return
	}

	that.game.ReplaceState(&state)
}

// handleMembership - on the host, deals newly joined players into the game. The
// controller then publishes the grown state itself.
func (that *Coordinator) handleMembership(code string, members []int) {
	log := that.logger.With("method", "handleMembership")

	that.mu.Lock()
	host := that.role == RoleHost && code == that.code
	that.mu.Unlock()

	if !host {
		return
	}

	present := that.game.PlayerIDs()
	for _, id := range members {
		if slices.Contains(present, id) {
			continue
		}

		if err := that.game.AddPlayer(id); err != nil && !errors.Is(err, punto.ErrPlayerExists) {
			log.Error("failed to add player", "playerID", id, "error", err)
			continue
		}

		log.Info("player added to game", "code", code, "playerID", id)
	}
}
