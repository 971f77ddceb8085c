package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/punto-backend/internal/apperror"
	"github.com/rocketscienceinc/punto-backend/internal/entity"
	peer "github.com/rocketscienceinc/punto-backend/internal/transport/websocket"
)

const createAttempts = 5

var (
	ErrAlreadyInSession = errors.New("already in a session")
	ErrCodeRequired     = errors.New("session code is required")
)

// handleCreateSession - opens a session with the caller as player 1. A random code
// is generated unless the caller asks for one.
func (that *Server) handleCreateSession(ctx context.Context, conn *connection, payload *peer.Payload) error {
	log := that.logger.With("method", "handleCreateSession", "connectionID", conn.id)

	that.sessionsMux.Lock()
	defer that.sessionsMux.Unlock()

	if conn.code != "" {
		return that.sendErrorResponse(conn.id, peer.ActionSessionCreate, ErrAlreadyInSession)
	}

	session, err := that.createSession(ctx, payload.Code, conn.id)
	if errors.Is(err, apperror.ErrSessionExists) {
		return that.sendErrorResponse(conn.id, peer.ActionSessionCreate, err)
	}

	if err != nil {
		_ = that.sendErrorResponse(conn.id, peer.ActionSessionCreate, errors.New("failed to create session"))
		return err
	}

	conn.code = session.Code

	log.Info("session created", "code", session.Code)

	return that.sendMessage(conn.id, peer.ActionSessionCreate, peer.Payload{
		Code:     session.Code,
		PlayerID: 1,
	})
}

func (that *Server) createSession(ctx context.Context, code, connectionID string) (*entity.Session, error) {
	session := &entity.Session{
		Code:    code,
		Members: []entity.SessionMember{{PlayerID: 1, ConnectionID: connectionID}},
	}

	if code != "" {
		if err := that.sessions.Create(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to create session %s: %w", code, err)
		}

		return session, nil
	}

	for range createAttempts {
		generated, err := that.newCode()
		if err != nil {
			return nil, err
		}

		session.Code = generated

		err = that.sessions.Create(ctx, session)
		if errors.Is(err, apperror.ErrSessionExists) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}

		return session, nil
	}

	return nil, fmt.Errorf("no free session code after %d attempts", createAttempts)
}

// handleJoinSession - adds the caller under the lowest free player id, hands it the
// latest state and tells every member about the new roster.
func (that *Server) handleJoinSession(ctx context.Context, conn *connection, payload *peer.Payload) error {
	log := that.logger.With("method", "handleJoinSession", "connectionID", conn.id)

	if payload.Code == "" {
		return that.sendErrorResponse(conn.id, peer.ActionSessionJoin, ErrCodeRequired)
	}

	that.sessionsMux.Lock()
	defer that.sessionsMux.Unlock()

	if conn.code != "" {
		return that.sendErrorResponse(conn.id, peer.ActionSessionJoin, ErrAlreadyInSession)
	}

	session, err := that.sessions.GetByCode(ctx, payload.Code)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		return that.sendErrorResponse(conn.id, peer.ActionSessionJoin, err)
	}

	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	playerID := entity.FirstFreePlayerID(session.PlayerIDs())
	if len(session.Members) >= that.maxMembers || playerID == 0 {
		log.Info("session is full", "code", session.Code)
		return that.sendErrorResponse(conn.id, peer.ActionSessionJoin, apperror.ErrSessionFull)
	}

	session.Members = append(session.Members, entity.SessionMember{PlayerID: playerID, ConnectionID: conn.id})
	if err = that.sessions.Update(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	conn.code = session.Code

	log.Info("player joined session", "code", session.Code, "playerID", playerID)

	if err = that.sendMessage(conn.id, peer.ActionSessionJoin, peer.Payload{
		Code:     session.Code,
		PlayerID: playerID,
		State:    session.State,
	}); err != nil {
		return err
	}

	that.broadcast(session, "", peer.ActionSessionMembers, peer.Payload{
		Code:    session.Code,
		Members: session.PlayerIDs(),
	})

	return nil
}

// handleStateUpdate - keeps the state as the latest for the session and relays it to
// the other members.
func (that *Server) handleStateUpdate(ctx context.Context, conn *connection, payload *peer.Payload) error {
	that.sessionsMux.Lock()
	defer that.sessionsMux.Unlock()

	if conn.code == "" || conn.code != payload.Code {
		return that.sendErrorResponse(conn.id, peer.ActionStateUpdate, apperror.ErrSessionNotFound)
	}

	session, err := that.sessions.GetByCode(ctx, conn.code)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	session.State = payload.State
	if err = that.sessions.Update(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	that.broadcast(session, conn.id, peer.ActionStateUpdate, peer.Payload{
		Code:  session.Code,
		State: session.State,
	})

	return nil
}

// handleDisconnect - removes the member, tells the rest and drops the session once it is empty.
func (that *Server) handleDisconnect(ctx context.Context, conn *connection) {
	log := that.logger.With("method", "handleDisconnect", "connectionID", conn.id)

	that.unregister(conn)

	that.sessionsMux.Lock()
	defer that.sessionsMux.Unlock()

	if conn.code == "" {
		return
	}

	code := conn.code
	conn.code = ""

	session, err := that.sessions.GetByCode(ctx, code)
	if err != nil {
		log.Error("failed to get session", "code", code, "error", err)
		return
	}

	session.RemoveConnection(conn.id)

	if session.IsEmpty() {
		if err = that.sessions.DeleteByCode(ctx, code); err != nil {
			log.Error("failed to delete session", "code", code, "error", err)
		}

		log.Info("session closed", "code", code)

		return
	}

	if err = that.sessions.Update(ctx, session); err != nil {
		log.Error("failed to update session", "code", code, "error", err)
		return
	}

	that.broadcast(session, "", peer.ActionSessionMembers, peer.Payload{
		Code:    session.Code,
		Members: session.PlayerIDs(),
	})

	log.Info("player left session", "code", code)
}
