package usecase

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/punto-backend/internal/ai"
	"github.com/rocketscienceinc/punto-backend/internal/entity"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type mockPresenter struct {
	mock.Mock
}

func (that *mockPresenter) RenderBoard(state *entity.GameState) {
	that.Called(state)
}

func (that *mockPresenter) RenderHand(player *entity.Player) {
	that.Called(player)
}

func (that *mockPresenter) RenderStatus(message string) {
	that.Called(message)
}

type mockBroadcaster struct {
	mock.Mock
}

func (that *mockBroadcaster) BroadcastState(state *entity.GameState) {
	that.Called(state)
}

// recordingPresenter keeps every status message.
type recordingPresenter struct {
	mu       sync.Mutex
	statuses []string
	boards   int
}

func (that *recordingPresenter) RenderBoard(*entity.GameState) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.boards++
}

func (that *recordingPresenter) RenderHand(*entity.Player) {}

func (that *recordingPresenter) RenderStatus(message string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.statuses = append(that.statuses, message)
}

func (that *recordingPresenter) Statuses() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]string{}, that.statuses...)
}

// quietT lets mock assertions be polled without failing the test.
type quietT struct{}

func (quietT) Logf(string, ...any)   {}
func (quietT) Errorf(string, ...any) {}
func (quietT) FailNow()              {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestController(t *testing.T, presenter Presenter, clk clock.Clock, ids, aiIDs []int) *GameController {
	t.Helper()

	ctrl, err := NewGameController(testLogger(), presenter, ControllerOptions{
		PlayerIDs:   ids,
		AIPlayerIDs: aiIDs,
		Clock:       clk,
		Rand:        rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	return ctrl
}

// craftedState builds a state past its first move with explicit hands.
func craftedState(hands map[int][]entity.Tile) *entity.GameState {
	state := entity.NewGameState()
	state.FirstMove = false

	for id := 1; id <= entity.MaxPlayers; id++ {
		if hand, ok := hands[id]; ok {
			player := entity.NewPlayer(id)
			player.Hand = hand
			state.Players = append(state.Players, player)
		}
	}

	state.SetCurrent(0)

	return state
}

func tileOf(color entity.Color, value int) entity.Tile {
	return entity.Tile{Value: value, Color: color}
}

func occupied(state *entity.GameState) int {
	count := 0
	for row := 0; row < entity.BoardSize; row++ {
		for col := 0; col < entity.BoardSize; col++ {
			if state.Board.Get(row, col) != nil {
				count++
			}
		}
	}

	return count
}

func TestGameController_SelectCard(t *testing.T) {
	t.Run("Current player selects a card", func(t *testing.T) {
		// Given: a fresh two player game
		presenter := &mockPresenter{}
		ctrl := newTestController(t, presenter, clock.NewMock(), []int{1, 2}, nil)
		tile := ctrl.State().Players[0].Hand[2]

		presenter.On("RenderBoard", mock.AnythingOfType("*entity.GameState")).Once()
		presenter.On("RenderHand", mock.AnythingOfType("*entity.Player")).Twice()
		presenter.On("RenderStatus", fmt.Sprintf("Selected: %s %d. Place at center (4,4).", tile.Color, tile.Value)).Once()

		// When: player 1 selects the third card
		ok := ctrl.SelectCard(1, 2)

		// Then: the selection is stored and rendered
		require.True(t, ok)
		assert.Equal(t, &entity.SelectedCard{PlayerID: 1, CardIndex: 2}, ctrl.State().SelectedCard)
		assert.Equal(t, PhaseAwaitingPlacement, ctrl.Phase())
		presenter.AssertExpectations(t)
	})

	t.Run("Invalid selections are ignored", func(t *testing.T) {
		// Given: a fresh two player game
		presenter := &mockPresenter{}
		ctrl := newTestController(t, presenter, clock.NewMock(), []int{1, 2}, nil)

		// When: the wrong player or a missing card is selected
		assert.False(t, ctrl.SelectCard(2, 0))
		assert.False(t, ctrl.SelectCard(1, 3))
		assert.False(t, ctrl.SelectCard(1, -1))
		assert.False(t, ctrl.SelectCard(4, 0))

		// Then: nothing was selected or rendered
		assert.Nil(t, ctrl.State().SelectedCard)
		assert.Equal(t, PhaseAwaitingSelection, ctrl.Phase())
		presenter.AssertNotCalled(t, "RenderStatus", mock.Anything)
	})
}

func TestGameController_ClickCell(t *testing.T) {
	t.Run("First placement must be the center", func(t *testing.T) {
		// Given: player 1 has selected a card
		presenter := &recordingPresenter{}
		broadcaster := &mockBroadcaster{}
		ctrl := newTestController(t, presenter, clock.NewMock(), []int{1, 2}, nil)
		ctrl.SetBroadcaster(broadcaster)
		require.True(t, ctrl.SelectCard(1, 0))

		// When: clicking a corner
		ok := ctrl.ClickCell(0, 0)

		// Then: the move is refused with a hint and nothing is broadcast
		assert.False(t, ok)
		assert.True(t, ctrl.State().FirstMove)
		assert.Equal(t, "First move must be center (4,4).", ctrl.Status())
		broadcaster.AssertNotCalled(t, "BroadcastState", mock.Anything)

		// When: clicking the center
		broadcaster.On("BroadcastState", mock.AnythingOfType("*entity.GameState")).Once()
		ok = ctrl.ClickCell(entity.CenterRow, entity.CenterCol)

		// Then: the tile is placed and the turn passes to player 2
		require.True(t, ok)
		state := ctrl.State()
		assert.False(t, state.FirstMove)
		assert.Nil(t, state.SelectedCard)
		assert.Equal(t, 2, state.CurrentPlayer().ID)
		assert.NotNil(t, state.Board.Get(entity.CenterRow, entity.CenterCol))
		assert.True(t, ctrl.CanUndo())
		assert.Equal(t, "Player 2's turn. Select a card.", ctrl.Status())
		broadcaster.AssertExpectations(t)
	})

	t.Run("Click without a selection does nothing", func(t *testing.T) {
		ctrl := newTestController(t, &recordingPresenter{}, clock.NewMock(), []int{1, 2}, nil)

		assert.False(t, ctrl.ClickCell(entity.CenterRow, entity.CenterCol))
		assert.True(t, ctrl.State().FirstMove)
	})

	t.Run("Winning placement ends the game", func(t *testing.T) {
		// Given: red has three in the top row
		ctrl := newTestController(t, &recordingPresenter{}, clock.NewMock(), []int{1, 2}, nil)
		state := craftedState(map[int][]entity.Tile{
			1: {tileOf(entity.ColorRed, 4)},
			2: {tileOf(entity.ColorBlue, 1)},
		})
		for col := 0; col < 3; col++ {
			state.Board.Set(0, col, tileOf(entity.ColorRed, 2).PlacedBy(1))
		}
		ctrl.ReplaceState(state)

		// When: player 1 completes the row
		require.True(t, ctrl.SelectCard(1, 0))
		require.True(t, ctrl.ClickCell(0, 3))

		// Then: player 1 wins and further input is ignored
		assert.Equal(t, PhaseGameOver, ctrl.Phase())
		assert.Equal(t, 1, ctrl.Winner())
		assert.Equal(t, "Player 1 wins! Four red in a row!", ctrl.Status())
		assert.False(t, ctrl.SelectCard(1, 0))
	})

	t.Run("Players with empty hands are skipped", func(t *testing.T) {
		// Given: player 2 has run out of cards
		ctrl := newTestController(t, &recordingPresenter{}, clock.NewMock(), []int{1, 2, 3}, nil)
		state := craftedState(map[int][]entity.Tile{
			1: {tileOf(entity.ColorRed, 2)},
			2: {},
			3: {tileOf(entity.ColorYellow, 1)},
		})
		state.Players[0].Deck = []entity.Tile{tileOf(entity.ColorRed, 3)}
		state.Board.Set(4, 4, tileOf(entity.ColorRed, 5).PlacedBy(1))
		ctrl.ReplaceState(state)

		// When: player 1 moves
		require.True(t, ctrl.SelectCard(1, 0))
		require.True(t, ctrl.ClickCell(4, 5))

		// Then: the turn goes straight to player 3
		assert.Equal(t, 3, ctrl.State().CurrentPlayer().ID)
		assert.Equal(t, "Player 3's turn. Select a card.", ctrl.Status())
	})

	t.Run("Players without a legal placement are skipped with a message", func(t *testing.T) {
		// Given: a board full of green nines except one corner
		presenter := &recordingPresenter{}
		ctrl := newTestController(t, presenter, clock.NewMock(), []int{1, 2, 3}, nil)
		state := craftedState(map[int][]entity.Tile{
			1: {tileOf(entity.ColorRed, 1)},
			2: {tileOf(entity.ColorBlue, 1)},
			3: {tileOf(entity.ColorYellow, 5)},
		})
		for row := 0; row < entity.BoardSize; row++ {
			for col := 0; col < entity.BoardSize; col++ {
				if row != 0 || col != 0 {
					state.Board.Set(row, col, tileOf(entity.ColorGreen, 9).PlacedBy(4))
				}
			}
		}
		ctrl.ReplaceState(state)

		// When: player 1 fills the corner with a 1
		require.True(t, ctrl.SelectCard(1, 0))
		require.True(t, ctrl.ClickCell(0, 0))

		// Then: player 2 cannot beat the 1 and is skipped
		assert.Equal(t, 3, ctrl.State().CurrentPlayer().ID)
		assert.Contains(t, presenter.Statuses(), "Player 2 has no valid move and is skipped.")
	})

	t.Run("Last card with nobody able to move ends in a stalemate", func(t *testing.T) {
		// Given: player 1 holds the only card left
		ctrl := newTestController(t, &recordingPresenter{}, clock.NewMock(), []int{1, 2}, nil)
		state := craftedState(map[int][]entity.Tile{
			1: {tileOf(entity.ColorRed, 1)},
			2: {},
		})
		state.Board.Set(4, 4, tileOf(entity.ColorBlue, 3).PlacedBy(2))
		ctrl.ReplaceState(state)

		// When: it is placed
		require.True(t, ctrl.SelectCard(1, 0))
		require.True(t, ctrl.ClickCell(4, 5))

		// Then: the game ends without a winner
		assert.Equal(t, PhaseGameOver, ctrl.Phase())
		assert.Zero(t, ctrl.Winner())
		assert.Equal(t, "Game over! No valid moves remaining.", ctrl.Status())
	})
}

func TestGameController_UndoRedo(t *testing.T) {
	t.Run("Undo then Redo reproduces the state", func(t *testing.T) {
		// Given: two placements
		presenter := &recordingPresenter{}
		ctrl := newTestController(t, presenter, clock.NewMock(), []int{1, 2}, nil)
		require.True(t, ctrl.SelectCard(1, 0))
		require.True(t, ctrl.ClickCell(4, 4))
		require.True(t, ctrl.SelectCard(2, 1))
		require.True(t, ctrl.ClickCell(4, 5))
		before := ctrl.State()

		// When: undoing and redoing
		require.True(t, ctrl.Undo())
		undone := ctrl.State()
		require.True(t, ctrl.Redo())

		// Then: undo went back to player 2's selection and redo restored everything
		assert.Nil(t, undone.Board.Get(4, 5))
		assert.Equal(t, &entity.SelectedCard{PlayerID: 2, CardIndex: 1}, undone.SelectedCard)
		assert.Equal(t, before, ctrl.State())
		assert.Contains(t, presenter.Statuses(), "Move undone")
		assert.Equal(t, "Move redone", ctrl.Status())
	})

	t.Run("Nothing to undo or redo", func(t *testing.T) {
		ctrl := newTestController(t, &recordingPresenter{}, clock.NewMock(), []int{1, 2}, nil)

		assert.False(t, ctrl.Undo())
		assert.False(t, ctrl.Redo())
	})

	t.Run("Undo after a win clears gameOver", func(t *testing.T) {
		// Given: a finished game
		ctrl := newTestController(t, &recordingPresenter{}, clock.NewMock(), []int{1, 2}, nil)
		state := craftedState(map[int][]entity.Tile{
			1: {tileOf(entity.ColorRed, 4)},
			2: {tileOf(entity.ColorBlue, 1)},
		})
		for col := 0; col < 3; col++ {
			state.Board.Set(0, col, tileOf(entity.ColorRed, 2).PlacedBy(1))
		}
		ctrl.ReplaceState(state)
		require.True(t, ctrl.SelectCard(1, 0))
		require.True(t, ctrl.ClickCell(0, 3))
		require.Equal(t, PhaseGameOver, ctrl.Phase())

		// When: undoing the winning move
		require.True(t, ctrl.Undo())

		// Then: play can continue from the selection
		assert.False(t, ctrl.State().GameOver)
		assert.Equal(t, PhaseAwaitingPlacement, ctrl.Phase())
		assert.Zero(t, ctrl.Winner())

		// When: redoing it
		require.True(t, ctrl.Redo())

		// Then: the win is back
		assert.Equal(t, PhaseGameOver, ctrl.Phase())
		assert.Equal(t, 1, ctrl.Winner())
	})

	t.Run("New placement clears redo", func(t *testing.T) {
		ctrl := newTestController(t, &recordingPresenter{}, clock.NewMock(), []int{1, 2}, nil)
		require.True(t, ctrl.SelectCard(1, 0))
		require.True(t, ctrl.ClickCell(4, 4))
		require.True(t, ctrl.Undo())
		require.True(t, ctrl.CanRedo())

		require.True(t, ctrl.ClickCell(4, 4))

		assert.False(t, ctrl.CanRedo())
	})
}

func TestGameController_AI(t *testing.T) {
	t.Run("AI commits its move after the think delay", func(t *testing.T) {
		// Given: player 2 is computer controlled
		clk := clock.NewMock()
		presenter := &recordingPresenter{}
		broadcaster := &mockBroadcaster{}
		broadcaster.On("BroadcastState", mock.AnythingOfType("*entity.GameState")).Twice()
		ctrl := newTestController(t, presenter, clk, []int{1, 2}, []int{2})
		ctrl.SetBroadcaster(broadcaster)

		// When: player 1 opens
		require.True(t, ctrl.SelectCard(1, 0))
		require.True(t, ctrl.ClickCell(4, 4))

		// Then: the AI is thinking with a card picked
		assert.Equal(t, PhaseAiThinking, ctrl.Phase())
		assert.Equal(t, "Player 2 (AI) is thinking...", ctrl.Status())
		require.NotNil(t, ctrl.State().SelectedCard)
		assert.Equal(t, 2, ctrl.State().SelectedCard.PlayerID)
		assert.False(t, ctrl.SelectCard(2, 0))

		// When: the think delay passes
		clk.Add(DefaultThinkMax)

		// Then: the AI has placed and it is player 1's turn again
		assert.Eventually(t, func() bool {
			state := ctrl.State()
			return occupied(state) == 2 && state.CurrentPlayer().ID == 1
		}, waitFor, tick)
		assert.Equal(t, PhaseAwaitingSelection, ctrl.Phase())
		assert.Eventually(t, func() bool {
			return broadcaster.AssertNumberOfCalls(quietT{}, "BroadcastState", 2)
		}, waitFor, tick)
		assert.Contains(t, presenter.Statuses(), "Player 2 (AI) placed a card.")
	})

	t.Run("Cell clicks are ignored while the AI is thinking", func(t *testing.T) {
		// Given: the AI has picked a card for player 2
		clk := clock.NewMock()
		ctrl := newTestController(t, &recordingPresenter{}, clk, []int{1, 2}, []int{2})
		require.True(t, ctrl.SelectCard(1, 0))
		require.True(t, ctrl.ClickCell(4, 4))
		require.Equal(t, PhaseAiThinking, ctrl.Phase())

		// When: someone clicks a cell next to the opening tile
		accepted := ctrl.ClickCell(3, 3)

		// Then: the AI's tile stays in its hand and the AI keeps the turn
		assert.False(t, accepted)
		state := ctrl.State()
		assert.Nil(t, state.Board.Get(3, 3))
		assert.Equal(t, 1, occupied(state))
		assert.Equal(t, 2, state.CurrentPlayer().ID)
		assert.Equal(t, PhaseAiThinking, ctrl.Phase())

		// When: the think delay passes
		clk.Add(DefaultThinkMax)

		// Then: the AI places its own move
		assert.Eventually(t, func() bool { return occupied(ctrl.State()) == 2 }, waitFor, tick)
	})

	t.Run("Undo cancels the pending AI move", func(t *testing.T) {
		// Given: the AI is thinking
		clk := clock.NewMock()
		ctrl := newTestController(t, &recordingPresenter{}, clk, []int{1, 2}, []int{2})
		require.True(t, ctrl.SelectCard(1, 0))
		require.True(t, ctrl.ClickCell(4, 4))
		require.Equal(t, PhaseAiThinking, ctrl.Phase())

		// When: player 1 undoes and the think delay passes
		require.True(t, ctrl.Undo())
		clk.Add(2 * DefaultThinkMax)

		// Then: the AI never moves on the rolled back board
		assert.Never(t, func() bool { return occupied(ctrl.State()) > 0 }, 100*time.Millisecond, tick)
		assert.Equal(t, PhaseAwaitingPlacement, ctrl.Phase())
		assert.Equal(t, 1, ctrl.State().CurrentPlayer().ID)
	})

	t.Run("Disabling AI cancels its move and enabling resumes it", func(t *testing.T) {
		// Given: the AI is thinking
		clk := clock.NewMock()
		ctrl := newTestController(t, &recordingPresenter{}, clk, []int{1, 2}, []int{2})
		require.True(t, ctrl.SelectCard(1, 0))
		require.True(t, ctrl.ClickCell(4, 4))

		// When: AI control is switched off
		ctrl.SetAIEnabled(2, false)
		clk.Add(2 * DefaultThinkMax)

		// Then: player 2 is left to a human
		assert.Never(t, func() bool { return occupied(ctrl.State()) > 1 }, 100*time.Millisecond, tick)
		assert.Equal(t, PhaseAwaitingSelection, ctrl.Phase())
		assert.False(t, ctrl.AIEnabled(2))

		// When: AI control is switched back on
		ctrl.SetAIEnabled(2, true)
		require.Equal(t, PhaseAiThinking, ctrl.Phase())
		clk.Add(DefaultThinkMax)

		// Then: the AI plays
		assert.Eventually(t, func() bool { return occupied(ctrl.State()) == 2 }, waitFor, tick)
	})

	t.Run("Fired but cancelled commit is discarded", func(t *testing.T) {
		// Given: the AI is thinking
		clk := clock.NewMock()
		ctrl := newTestController(t, &recordingPresenter{}, clk, []int{1, 2}, []int{2})
		require.True(t, ctrl.SelectCard(1, 0))
		require.True(t, ctrl.ClickCell(4, 4))

		ctrl.mu.Lock()
		staleTicket := ctrl.tickets[2]
		move := ctrl.evaluator.BestMove(ctrl.state, 2)
		ctrl.mu.Unlock()
		require.NotNil(t, move)

		// When: the move is cancelled and rescheduled, then the old timer body runs late
		ctrl.SetAIEnabled(2, false)
		ctrl.SetAIEnabled(2, true)
		ctrl.commitAI(2, staleTicket, *move)

		// Then: the stale commit changed nothing and the new one is still pending
		assert.Equal(t, 1, occupied(ctrl.State()))
		assert.Equal(t, PhaseAiThinking, ctrl.Phase())
	})

	t.Run("Commit against a changed hand is not applied", func(t *testing.T) {
		// Given: the AI is thinking
		clk := clock.NewMock()
		ctrl := newTestController(t, &recordingPresenter{}, clk, []int{1, 2}, []int{2})
		require.True(t, ctrl.SelectCard(1, 0))
		require.True(t, ctrl.ClickCell(4, 4))

		ctrl.mu.Lock()
		ticket := ctrl.tickets[2]
		ctrl.mu.Unlock()

		// When: the commit refers to a cell no tile can reach
		ctrl.commitAI(2, ticket, ai.Move{CardIndex: 0, Row: 0, Col: 0})

		// Then: nothing is placed and the AI thinks again
		assert.Equal(t, 1, occupied(ctrl.State()))
		assert.Equal(t, PhaseAiThinking, ctrl.Phase())
	})

	t.Run("Two AI players finish a game on their own", func(t *testing.T) {
		// Given: both seats are computer controlled
		clk := clock.NewMock()
		ctrl := newTestController(t, &recordingPresenter{}, clk, []int{1, 2}, []int{1, 2})

		// When: the game starts and time keeps passing
		ctrl.Start()

		// Then: the game reaches its end with every tile accounted for
		assert.Eventually(t, func() bool {
			clk.Add(DefaultThinkMax)
			return ctrl.Phase() == PhaseGameOver
		}, 10*time.Second, time.Millisecond)

		state := ctrl.State()
		assert.Positive(t, occupied(state))
		if ctrl.Winner() == 0 {
			assert.False(t, state.Players[0].HasCards() && state.Players[1].HasCards())
		}
	})
}

func TestGameController_Restart(t *testing.T) {
	// Given: a game with a move played and the AI thinking
	clk := clock.NewMock()
	broadcaster := &mockBroadcaster{}
	broadcaster.On("BroadcastState", mock.AnythingOfType("*entity.GameState")).Twice()
	ctrl := newTestController(t, &recordingPresenter{}, clk, []int{1, 2}, []int{2})
	ctrl.SetBroadcaster(broadcaster)
	require.True(t, ctrl.SelectCard(1, 0))
	require.True(t, ctrl.ClickCell(4, 4))

	// When: restarting
	require.NoError(t, ctrl.Restart())
	clk.Add(2 * DefaultThinkMax)

	// Then: a fresh game waits for player 1 and the old AI move never lands
	state := ctrl.State()
	assert.True(t, state.FirstMove)
	assert.Equal(t, 1, state.CurrentPlayer().ID)
	assert.False(t, ctrl.CanUndo())
	assert.Never(t, func() bool { return occupied(ctrl.State()) > 0 }, 100*time.Millisecond, tick)
	assert.Equal(t, "Game started! Player 1, place a card in center.", ctrl.Status())
	broadcaster.AssertExpectations(t)
}

func TestGameController_ReplaceState(t *testing.T) {
	t.Run("Received state replaces the local one without echo", func(t *testing.T) {
		// Given: a local game and a received state
		broadcaster := &mockBroadcaster{}
		ctrl := newTestController(t, &recordingPresenter{}, clock.NewMock(), []int{1, 2}, nil)
		ctrl.SetBroadcaster(broadcaster)

		received := craftedState(map[int][]entity.Tile{
			1: {tileOf(entity.ColorRed, 4)},
			2: {tileOf(entity.ColorBlue, 7)},
		})
		received.Board.Set(4, 4, tileOf(entity.ColorRed, 1).PlacedBy(1))
		received.SetCurrent(1)

		// When: it is applied
		ctrl.ReplaceState(received)

		// Then: the local state equals it and nothing is broadcast back
		assert.True(t, received.Equal(ctrl.State()))
		broadcaster.AssertNotCalled(t, "BroadcastState", mock.Anything)

		// And: later changes to the received value do not leak in
		received.GameOver = true
		assert.False(t, ctrl.State().GameOver)
	})

	t.Run("Malformed state is ignored and the controller stays usable", func(t *testing.T) {
		// Given: a local game
		ctrl := newTestController(t, &recordingPresenter{}, clock.NewMock(), []int{1, 2}, nil)
		before := ctrl.State()

		// When: a state with a missing player record arrives
		ctrl.ReplaceState(&entity.GameState{Players: []*entity.Player{nil}})

		// Then: nothing changed and the next move goes through
		assert.True(t, before.Equal(ctrl.State()))
		require.True(t, ctrl.SelectCard(1, 0))
		assert.True(t, ctrl.ClickCell(4, 4))
	})

	t.Run("Local AI resumes on its turn", func(t *testing.T) {
		clk := clock.NewMock()
		ctrl := newTestController(t, &recordingPresenter{}, clk, []int{1, 2}, []int{2})

		received := craftedState(map[int][]entity.Tile{
			1: {tileOf(entity.ColorRed, 4)},
			2: {tileOf(entity.ColorBlue, 7)},
		})
		received.Board.Set(4, 4, tileOf(entity.ColorRed, 1).PlacedBy(1))
		received.SetCurrent(1)

		ctrl.ReplaceState(received)
		require.Equal(t, PhaseAiThinking, ctrl.Phase())
		clk.Add(DefaultThinkMax)

		assert.Eventually(t, func() bool { return occupied(ctrl.State()) == 2 }, waitFor, tick)
	})
}

func TestGameController_AddPlayer(t *testing.T) {
	// Given: a host-only game
	broadcaster := &mockBroadcaster{}
	broadcaster.On("BroadcastState", mock.AnythingOfType("*entity.GameState")).Once()
	ctrl := newTestController(t, &recordingPresenter{}, clock.NewMock(), []int{1}, nil)
	ctrl.SetBroadcaster(broadcaster)

	// When: player 3 joins
	require.NoError(t, ctrl.AddPlayer(3))

	// Then: the player is dealt in and the state is broadcast
	assert.Equal(t, []int{1, 3}, ctrl.PlayerIDs())
	assert.Equal(t, "Player 3 joined the game.", ctrl.Status())
	broadcaster.AssertExpectations(t)

	// When: the same id joins again
	err := ctrl.AddPlayer(3)

	// Then: it is rejected
	require.Error(t, err)
	assert.Equal(t, []int{1, 3}, ctrl.PlayerIDs())
}
