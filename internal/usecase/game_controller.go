package usecase

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rocketscienceinc/punto-backend/internal/ai"
	"github.com/rocketscienceinc/punto-backend/internal/entity"
	"github.com/rocketscienceinc/punto-backend/internal/history"
	"github.com/rocketscienceinc/punto-backend/internal/punto"
	"github.com/rocketscienceinc/punto-backend/internal/scheduler"
)

type Phase string

const (
	PhaseAwaitingSelection Phase = "awaiting_selection"
	PhaseAwaitingPlacement Phase = "awaiting_placement"
	PhaseAiThinking        Phase = "ai_thinking"
	PhaseGameOver          Phase = "game_over"
)

const (
	DefaultThinkMin = 700 * time.Millisecond
	DefaultThinkMax = 1700 * time.Millisecond
)

// Presenter receives every externally visible change. It is called outside the
// controller lock and must not call back into the controller synchronously.
type Presenter interface {
	RenderBoard(state *entity.GameState)
	RenderHand(player *entity.Player)
	RenderStatus(message string)
}

// Broadcaster replicates the state after local mutations.
type Broadcaster interface {
	BroadcastState(state *entity.GameState)
}

type ControllerOptions struct {
	PlayerIDs    []int
	AIPlayerIDs  []int
	HistoryLimit int
	ThinkMin     time.Duration
	ThinkMax     time.Duration
	Clock        clock.Clock
	Rand         *rand.Rand
}

// update collects what a transition produced, published once the lock is released.
type update struct {
	state     *entity.GameState
	statuses  []string
	broadcast bool
}

func (that *update) status(format string, args ...any) {
	that.statuses = append(that.statuses, fmt.Sprintf(format, args...))
}

// GameController drives one game: turn order, history, AI turns and replication hooks.
// Every entry point is one atomic transition.
type GameController struct {
	logger    *slog.Logger
	presenter Presenter

	thinkMin time.Duration
	thinkMax time.Duration

	mu          sync.Mutex
	publishMu   sync.Mutex
	state       *entity.GameState
	history     *history.History
	evaluator   *ai.Evaluator
	scheduler   *scheduler.Scheduler
	rnd         *rand.Rand
	broadcaster Broadcaster
	aiEnabled   map[int]bool
	tickets     map[int]uint64
	ticketSeq   uint64
	status      string
}

func NewGameController(logger *slog.Logger, presenter Presenter, opts ControllerOptions) (*GameController, error) {
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint: gosec // game randomness
	}

	if opts.ThinkMin <= 0 && opts.ThinkMax <= 0 {
		opts.ThinkMin, opts.ThinkMax = DefaultThinkMin, DefaultThinkMax
	}

	ids := opts.PlayerIDs
	if len(ids) == 0 {
		ids = []int{1, 2, 3, 4}
	}

	state, err := punto.NewGame(ids, rnd)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	that := &GameController{
		logger:    logger.With("component", "game_controller"),
		presenter: presenter,
		thinkMin:  opts.ThinkMin,
		thinkMax:  opts.ThinkMax,
		state:     state,
		history:   history.New(opts.HistoryLimit),
		evaluator: ai.NewEvaluator(rnd),
		scheduler: scheduler.New(opts.Clock),
		rnd:       rnd,
		aiEnabled: make(map[int]bool),
		tickets:   make(map[int]uint64),
	}

	for _, id := range opts.AIPlayerIDs {
		that.aiEnabled[id] = true
	}

	return that, nil
}

// Start - announces the fresh game and hands the first turn to the AI if needed.
func (that *GameController) Start() {
	that.mu.Lock()
	out := &update{}
	out.status("Game started! %s, place a card in center.", that.state.CurrentPlayer().Name)
	that.settleLocked(out)
	that.release(out)
}

func (that *GameController) SetBroadcaster(broadcaster Broadcaster) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.broadcaster = broadcaster
}

// State - returns a copy of the live state.
func (that *GameController) State() *entity.GameState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state.Clone()
}

func (that *GameController) Phase() Phase {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.phaseLocked()
}

// Status - returns the last status message.
func (that *GameController) Status() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.status
}

// Winner - returns the id of the player holding four in a row, or 0.
func (that *GameController) Winner() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, player := range that.state.Players {
		if punto.CheckWin(that.state, player.ID) {
			return player.ID
		}
	}

	return 0
}

func (that *GameController) AIEnabled(playerID int) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.aiEnabled[playerID]
}

func (that *GameController) CanUndo() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.history.CanUndo()
}

func (that *GameController) CanRedo() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.history.CanRedo()
}

// SelectCard - marks a hand tile of the current human player for placement.
// Selections by anyone else, or of a missing tile, are ignored.
func (that *GameController) SelectCard(playerID, cardIndex int) bool {
	that.mu.Lock()

	current := that.state.CurrentPlayer()
	if that.state.GameOver || current == nil || current.ID != playerID || that.aiEnabled[playerID] {
		that.mu.Unlock()
		return false
	}

	tile, ok := current.Card(cardIndex)
	if !ok {
		that.mu.Unlock()
		return false
	}

	that.state.SelectedCard = &entity.SelectedCard{PlayerID: playerID, CardIndex: cardIndex}

	out := &update{}
	if that.state.FirstMove {
		out.status("Selected: %s %d. Place at center (4,4).", tile.Color, tile.Value)
	} else {
		out.status("Selected: %s %d. Choose a valid board position.", tile.Color, tile.Value)
	}

	that.release(out)

	return true
}

// ClickCell - places the selected tile at (row, col).
func (that *GameController) ClickCell(row, col int) bool {
	that.mu.Lock()

	selected := that.state.SelectedCard
	if that.state.GameOver || selected == nil {
		that.mu.Unlock()
		return false
	}

	// A computer-controlled selection is committed by the AI only.
	_, thinking := that.tickets[selected.PlayerID]
	if thinking || that.aiEnabled[selected.PlayerID] {
		that.mu.Unlock()
		return false
	}

	player, ok := that.state.PlayerByID(selected.PlayerID)
	if !ok || !player.IsCurrent {
		that.mu.Unlock()
		return false
	}

	out := &update{}
	if !that.placeLocked(player, selected.CardIndex, row, col, out) {
		if that.state.FirstMove {
			out.status("First move must be center (4,4).")
		} else {
			out.status("Invalid move! Choose an adjacent empty square or valid stack.")
		}

		that.release(out)

		return false
	}

	that.release(out)

	return true
}

// Undo - rolls back to the state before the last placement and cancels every pending AI move.
func (that *GameController) Undo() bool {
	that.mu.Lock()

	if !that.history.CanUndo() {
		that.mu.Unlock()
		return false
	}

	that.cancelAllLocked()

	previous, _ := that.history.Undo(that.state)

	that.state = previous
	that.state.GameOver = false

	out := &update{broadcast: true}
	out.status("Move undone")
	that.settleLocked(out)
	that.release(out)

	return true
}

// Redo - reapplies the last undone state and cancels every pending AI move.
func (that *GameController) Redo() bool {
	that.mu.Lock()

	if !that.history.CanRedo() {
		that.mu.Unlock()
		return false
	}

	that.cancelAllLocked()

	next, _ := that.history.Redo(that.state)

	that.state = next

	out := &update{broadcast: true}
	out.status("Move redone")
	that.settleLocked(out)
	that.release(out)

	return true
}

// Restart - deals a new game for the same players and forgets the history.
func (that *GameController) Restart() error {
	that.mu.Lock()

	that.cancelAllLocked()

	ids := make([]int, 0, len(that.state.Players))
	for _, player := range that.state.Players {
		ids = append(ids, player.ID)
	}

	state, err := punto.NewGame(ids, that.rnd)
	if err != nil {
		that.mu.Unlock()
		return fmt.Errorf("failed to restart game: %w", err)
	}

	that.state = state
	that.history.Clear()

	out := &update{broadcast: true}
	out.status("Game started! %s, place a card in center.", state.CurrentPlayer().Name)
	that.settleLocked(out)
	that.release(out)

	return nil
}

// SetAIEnabled - switches computer control for a player. Disabling cancels its pending move;
// enabling on the player's own turn starts thinking at once.
func (that *GameController) SetAIEnabled(playerID int, enabled bool) {
	that.mu.Lock()

	that.aiEnabled[playerID] = enabled

	out := &update{}
	if !enabled {
		that.cancelLocked(playerID)
		that.release(out)

		return
	}

	current := that.state.CurrentPlayer()
	if current != nil && current.ID == playerID {
		if that.state.SelectedCard != nil && that.state.SelectedCard.PlayerID == playerID {
			that.state.SelectedCard = nil
		}

		if _, pending := that.tickets[playerID]; !pending {
			that.settleLocked(out)
		}
	}

	that.release(out)
}

// ReplaceState - adopts a state received from the network as a whole. Pending AI moves
// are dropped; a locally controlled AI resumes if it is now its turn.
func (that *GameController) ReplaceState(state *entity.GameState) {
	if err := state.Validate(); err != nil {
		that.logger.With("method", "ReplaceState").Warn("ignoring malformed state", "error", err)
		return
	}

	that.mu.Lock()

	that.cancelAllLocked()
	that.state = state.Clone()

	out := &update{}
	that.settleLocked(out)
	that.release(out)
}

// AddPlayer - deals a new player into the running game.
func (that *GameController) AddPlayer(playerID int) error {
	that.mu.Lock()

	if err := punto.AddPlayer(that.state, playerID, that.rnd); err != nil {
		that.mu.Unlock()
		return fmt.Errorf("failed to add player: %w", err)
	}

	out := &update{broadcast: true}
	out.status("%s joined the game.", that.state.MustPlayer(playerID).Name)
	that.release(out)

	return nil
}

func (that *GameController) PlayerIDs() []int {
	that.mu.Lock()
	defer that.mu.Unlock()

	ids := make([]int, 0, len(that.state.Players))
	for _, player := range that.state.Players {
		ids = append(ids, player.ID)
	}

	return ids
}

// Close - cancels every pending AI move.
func (that *GameController) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.cancelAllLocked()
}

// placeLocked records history and applies the move; on success the turn moves on.
func (that *GameController) placeLocked(player *entity.Player, cardIndex, row, col int, out *update) bool {
	tile, ok := player.Card(cardIndex)
	if !ok || !punto.IsValidMove(row, col, tile, that.state) {
		return false
	}

	that.history.Push(that.state)

	result := punto.ApplyMove(that.state, player.ID, cardIndex, row, col)
	if !result.Applied {
		return false
	}

	that.state.SelectedCard = nil
	out.broadcast = true

	if that.aiEnabled[player.ID] {
		out.status("%s (AI) placed a card.", player.Name)
	}

	switch {
	case result.WinnerID != 0:
		out.status("%s wins! Four %s in a row!", player.Name, player.Color)
	case result.Stalemate:
		out.status("Game over! No valid moves remaining.")
	default:
		that.advanceLocked(out)
		that.settleLocked(out)
	}

	return true
}

// advanceLocked passes the turn to the next player who can place a tile, at most one
// full round. With nobody able to move the game ends in a stalemate.
func (that *GameController) advanceLocked(out *update) {
	players := that.state.Players
	count := len(players)

	for step := 1; step <= count; step++ {
		index := (that.state.CurrentPlayerIndex + step) % count
		player := players[index]

		if !punto.PlayerHasValidMove(that.state, player.ID) {
			if player.HasCards() {
				out.status("%s has no valid move and is skipped.", that.displayName(player))
			}

			continue
		}

		that.state.SetCurrent(index)
		out.status("%s's turn. Select a card.", player.Name)

		return
	}

	that.state.GameOver = true
	out.status("Game over! No valid moves remaining.")
}

// settleLocked makes sure the current player can move and starts the AI on its turn.
func (that *GameController) settleLocked(out *update) {
	if that.state.GameOver {
		return
	}

	current := that.state.CurrentPlayer()
	if current == nil {
		return
	}

	if !punto.PlayerHasValidMove(that.state, current.ID) {
		if current.HasCards() {
			out.status("%s has no valid move and is skipped.", that.displayName(current))
		}

		that.advanceLocked(out)

		current = that.state.CurrentPlayer()
		if that.state.GameOver {
			return
		}
	}

	if that.aiEnabled[current.ID] {
		that.scheduleLocked(current, out)
	}
}

// scheduleLocked computes the AI move now and commits it after the think delay.
func (that *GameController) scheduleLocked(player *entity.Player, out *update) {
	move := that.evaluator.BestMove(that.state, player.ID)
	if move == nil {
		return
	}

	that.ticketSeq++
	ticket := that.ticketSeq
	that.tickets[player.ID] = ticket

	that.state.SelectedCard = &entity.SelectedCard{PlayerID: player.ID, CardIndex: move.CardIndex}
	out.status("%s (AI) is thinking...", player.Name)

	playerID := player.ID
	delay := scheduler.RandomDelay(that.rnd, that.thinkMin, that.thinkMax)
	that.scheduler.Schedule(playerID, delay, func() {
		that.commitAI(playerID, ticket, *move)
	})
}

// commitAI applies a scheduled AI move after checking it still fits the live state.
func (that *GameController) commitAI(playerID int, ticket uint64, move ai.Move) {
	log := that.logger.With("method", "commitAI", "player", playerID)

	that.mu.Lock()

	if that.tickets[playerID] != ticket {
		that.mu.Unlock()
		log.Debug("discarding cancelled ai move")
		return
	}

	delete(that.tickets, playerID)

	current := that.state.CurrentPlayer()
	if that.state.GameOver || current == nil || current.ID != playerID || !that.aiEnabled[playerID] {
		that.clearSelectionLocked(playerID)
		that.mu.Unlock()
		log.Debug("discarding stale ai move")
		return
	}

	out := &update{}
	if !that.placeLocked(current, move.CardIndex, move.Row, move.Col, out) {
		log.Debug("ai move no longer valid, recomputing")
		that.clearSelectionLocked(playerID)
		that.settleLocked(out)
	}

	that.release(out)
}

func (that *GameController) clearSelectionLocked(playerID int) {
	if that.state.SelectedCard != nil && that.state.SelectedCard.PlayerID == playerID {
		that.state.SelectedCard = nil
	}
}

func (that *GameController) cancelLocked(playerID int) {
	if _, ok := that.tickets[playerID]; !ok {
		return
	}

	delete(that.tickets, playerID)
	that.scheduler.Cancel(playerID)
	that.clearSelectionLocked(playerID)
}

func (that *GameController) cancelAllLocked() {
	that.tickets = make(map[int]uint64)
	that.scheduler.CancelAll()
}

func (that *GameController) phaseLocked() Phase {
	if that.state.GameOver {
		return PhaseGameOver
	}

	if current := that.state.CurrentPlayer(); current != nil {
		if _, thinking := that.tickets[current.ID]; thinking {
			return PhaseAiThinking
		}
	}

	if that.state.SelectedCard != nil {
		return PhaseAwaitingPlacement
	}

	return PhaseAwaitingSelection
}

func (that *GameController) displayName(player *entity.Player) string {
	if that.aiEnabled[player.ID] {
		return player.Name + " (AI)"
	}

	return player.Name
}

// release snapshots the state, unlocks the controller and publishes the update.
// publishMu is taken before unlocking so updates reach the presenter in order.
func (that *GameController) release(out *update) {
	out.state = that.state.Clone()
	if len(out.statuses) > 0 {
		that.status = out.statuses[len(out.statuses)-1]
	}

	broadcaster := that.broadcaster

	that.publishMu.Lock()
	that.mu.Unlock()
	defer that.publishMu.Unlock()

	if that.presenter != nil {
		that.presenter.RenderBoard(out.state)
		for _, player := range out.state.Players {
			that.presenter.RenderHand(player)
		}

		for _, message := range out.statuses {
			that.presenter.RenderStatus(message)
		}
	}

	if out.broadcast && broadcaster != nil {
		broadcaster.BroadcastState(out.state)
	}
}
