package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/punto-backend/internal/apperror"
	"github.com/rocketscienceinc/punto-backend/internal/entity"
	"github.com/rocketscienceinc/punto-backend/internal/netsync"
	"github.com/rocketscienceinc/punto-backend/internal/usecase"
)

type gameService interface {
	CreateGame(playerIDs, aiPlayerIDs []int) (*usecase.ManagedGame, error)
	Game(id string) (*usecase.ManagedGame, error)
	Delete(id string) error
	Host(ctx context.Context, id, relayURL string) (string, error)
	Join(ctx context.Context, id, relayURL, code string) (int, error)
}

type createGameRequest struct {
	Players   []int `json:"players"`
	AIPlayers []int `json:"aiPlayers"`
}

type selectRequest struct {
	PlayerID  int `json:"playerId"`
	CardIndex int `json:"cardIndex"`
}

type cellRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type aiRequest struct {
	PlayerID int  `json:"playerId"`
	Enabled  bool `json:"enabled"`
}

type sessionRequest struct {
	RelayURL string `json:"relayUrl"`
	Code     string `json:"code"`
}

type sessionResponse struct {
	Code     string       `json:"code,omitempty"`
	PlayerID int          `json:"playerId,omitempty"`
	Role     netsync.Role `json:"role,omitempty"`
}

type gameResponse struct {
	ID        string            `json:"id"`
	State     *entity.GameState `json:"state"`
	Phase     usecase.Phase     `json:"phase"`
	Status    string            `json:"status"`
	Statuses  []string          `json:"statuses"`
	WinnerID  int               `json:"winnerId,omitempty"`
	CanUndo   bool              `json:"canUndo"`
	CanRedo   bool              `json:"canRedo"`
	AIPlayers []int             `json:"aiPlayers"`
	Session   *sessionResponse  `json:"session,omitempty"`
	Accepted  *bool             `json:"accepted,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handlers struct {
	logger *slog.Logger
	games  gameService
}

func NewHandlers(logger *slog.Logger, games gameService) *Handlers {
	return &Handlers{
		logger: logger.With("component", "rest"),
		games:  games,
	}
}

// Register - mounts the game routes on r.
func (that *Handlers) Register(r chi.Router) {
	r.Post("/games", that.createGame)

	r.Route("/games/{id}", func(r chi.Router) {
		r.Get("/", that.getGame)
		r.Delete("/", that.deleteGame)
		r.Post("/select", that.selectCard)
		r.Post("/cell", that.clickCell)
		r.Post("/undo", that.undo)
		r.Post("/redo", that.redo)
		r.Post("/restart", that.restart)
		r.Post("/ai", that.setAI)
		r.Post("/host", that.host)
		r.Post("/join", that.join)
	})
}

func (that *Handlers) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}

	game, err := that.games.CreateGame(req.Players, req.AIPlayers)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, toGameResponse(game, nil))
}

func (that *Handlers) getGame(w http.ResponseWriter, r *http.Request) {
	game, ok := that.lookup(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, toGameResponse(game, nil))
}

func (that *Handlers) deleteGame(w http.ResponseWriter, r *http.Request) {
	if err := that.games.Delete(chi.URLParam(r, "id")); err != nil {
		that.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *Handlers) selectCard(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	game, ok := that.lookupWithBody(w, r, &req)
	if !ok {
		return
	}

	accepted := game.Controller.SelectCard(req.PlayerID, req.CardIndex)
	writeJSON(w, http.StatusOK, toGameResponse(game, &accepted))
}

func (that *Handlers) clickCell(w http.ResponseWriter, r *http.Request) {
	var req cellRequest
	game, ok := that.lookupWithBody(w, r, &req)
	if !ok {
		return
	}

	accepted := game.Controller.ClickCell(req.Row, req.Col)
	writeJSON(w, http.StatusOK, toGameResponse(game, &accepted))
}

func (that *Handlers) undo(w http.ResponseWriter, r *http.Request) {
	game, ok := that.lookup(w, r)
	if !ok {
		return
	}

	accepted := game.Controller.Undo()
	writeJSON(w, http.StatusOK, toGameResponse(game, &accepted))
}

func (that *Handlers) redo(w http.ResponseWriter, r *http.Request) {
	game, ok := that.lookup(w, r)
	if !ok {
		return
	}

	accepted := game.Controller.Redo()
	writeJSON(w, http.StatusOK, toGameResponse(game, &accepted))
}

func (that *Handlers) restart(w http.ResponseWriter, r *http.Request) {
	game, ok := that.lookup(w, r)
	if !ok {
		return
	}

	if err := game.Controller.Restart(); err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGameResponse(game, nil))
}

func (that *Handlers) setAI(w http.ResponseWriter, r *http.Request) {
	var req aiRequest
	game, ok := that.lookupWithBody(w, r, &req)
	if !ok {
		return
	}

	game.Controller.SetAIEnabled(req.PlayerID, req.Enabled)
	writeJSON(w, http.StatusOK, toGameResponse(game, nil))
}

func (that *Handlers) host(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RelayURL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "relayUrl is required"})
		return
	}

	if _, err := that.games.Host(r.Context(), chi.URLParam(r, "id"), req.RelayURL); err != nil {
		that.writeError(w, err)
		return
	}

	that.getGame(w, r)
}

func (that *Handlers) join(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RelayURL == "" || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "relayUrl and code are required"})
		return
	}

	if _, err := that.games.Join(r.Context(), chi.URLParam(r, "id"), req.RelayURL, req.Code); err != nil {
		that.writeError(w, err)
		return
	}

	that.getGame(w, r)
}

func (that *Handlers) lookup(w http.ResponseWriter, r *http.Request) (*usecase.ManagedGame, bool) {
	game, err := that.games.Game(chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, err)
		return nil, false
	}

	return game, true
}

func (that *Handlers) lookupWithBody(w http.ResponseWriter, r *http.Request, req any) (*usecase.ManagedGame, bool) {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return nil, false
	}

	return that.lookup(w, r)
}

// writeError - maps known failures to status codes; anything else is logged as a server error.
func (that *Handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperror.ErrGameNotFound), errors.Is(err, apperror.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, apperror.ErrSessionFull), errors.Is(err, netsync.ErrAlreadyInSession):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, apperror.ErrRelayNotAllowed):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, apperror.ErrNotConnected):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		that.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func toGameResponse(game *usecase.ManagedGame, accepted *bool) gameResponse {
	controller := game.Controller
	state := controller.State()

	aiPlayers := make([]int, 0, len(state.Players))
	for _, player := range state.Players {
		if controller.AIEnabled(player.ID) {
			aiPlayers = append(aiPlayers, player.ID)
		}
	}

	response := gameResponse{
		ID:        game.ID,
		State:     state,
		Phase:     controller.Phase(),
		Status:    controller.Status(),
		Statuses:  game.Recorder.Statuses(),
		WinnerID:  controller.Winner(),
		CanUndo:   controller.CanUndo(),
		CanRedo:   controller.CanRedo(),
		AIPlayers: aiPlayers,
		Accepted:  accepted,
	}

	if code, playerID, role := game.Session(); role != netsync.RoleNone {
		response.Session = &sessionResponse{Code: code, PlayerID: playerID, Role: role}
	}

	return response
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
