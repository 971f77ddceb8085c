package punto

import (
	"github.com/rocketscienceinc/punto-backend/internal/entity"
)

// WinLength is the number of same-colored contiguous cells that wins the game.
const WinLength = 4

// lastWindowStart is the last index a window of WinLength can start at on one line.
const lastWindowStart = entity.BoardSize - WinLength

// MoveResult reports what ApplyMove did. WinnerID is 0 when nobody won.
type MoveResult struct {
	Applied   bool
	WinnerID  int
	Stalemate bool
}

// IsValidMove - checks if tile may be placed at (row, col).
// The first move must go to the center; later moves either stack a strictly
// higher value on an occupied cell or touch an occupied cell (8-neighborhood).
func IsValidMove(row, col int, tile entity.Tile, state *entity.GameState) bool {
	if !entity.InBounds(row, col) {
		return false
	}

	if state.FirstMove {
		return row == entity.CenterRow && col == entity.CenterCol
	}

	if existing := state.Board.Get(row, col); existing != nil {
		return tile.Value > existing.Value
	}

	return state.Board.HasNeighbor(row, col)
}

// ApplyMove - places the player's hand tile at (row, col).
// An illegal request returns Applied=false and leaves state untouched.
func ApplyMove(state *entity.GameState, playerID, cardIndex, row, col int) MoveResult {
	if state.GameOver {
		return MoveResult{}
	}

	player, ok := state.PlayerByID(playerID)
	if !ok {
		return MoveResult{}
	}

	tile, ok := player.Card(cardIndex)
	if !ok || !IsValidMove(row, col, tile, state) {
		return MoveResult{}
	}

	player.TakeCard(cardIndex)
	player.Draw()
	state.Board.Set(row, col, tile.PlacedBy(player.ID))
	state.FirstMove = false

	if CheckWin(state, playerID) {
		state.GameOver = true
		return MoveResult{Applied: true, WinnerID: playerID}
	}

	if !HasAnyValidMove(state) {
		state.GameOver = true
		return MoveResult{Applied: true, Stalemate: true}
	}

	return MoveResult{Applied: true}
}

// CheckWin - reports whether the player's color shows four contiguous cells in a
// row, column or diagonal anywhere on the board.
func CheckWin(state *entity.GameState, playerID int) bool {
	player, ok := state.PlayerByID(playerID)
	if !ok {
		return false
	}

	return hasLine(&state.Board, player.Color)
}

// hasLine scans every window of WinLength cells along rows, columns and both diagonals.
func hasLine(board *entity.Board, color entity.Color) bool {
	// rows and columns
	for line := 0; line < entity.BoardSize; line++ {
		for start := 0; start <= lastWindowStart; start++ {
			if windowMatches(board, color, line, start, 0, 1) || windowMatches(board, color, start, line, 1, 0) {
				return true
			}
		}
	}

	// diagonals
	for row := 0; row <= lastWindowStart; row++ {
		for col := 0; col <= lastWindowStart; col++ {
			if windowMatches(board, color, row, col, 1, 1) {
				return true
			}

			if windowMatches(board, color, row, col+WinLength-1, 1, -1) {
				return true
			}
		}
	}

	return false
}

func windowMatches(board *entity.Board, color entity.Color, row, col, dRow, dCol int) bool {
	for i := 0; i < WinLength; i++ {
		cell := board.Get(row+i*dRow, col+i*dCol)
		if cell == nil || cell.Color != color {
			return false
		}
	}

	return true
}

// WinsAt - reports whether placing a tile of color at (row, col) would complete a line.
// The board is not modified.
func WinsAt(state *entity.GameState, row, col int, tile entity.Tile) bool {
	board := state.Board
	placed := entity.PlacedTile{Value: tile.Value, Color: tile.Color}
	board[row][col] = &placed

	return hasLine(&board, tile.Color)
}

// PlayerHasValidMove - reports whether any of the player's hand tiles fits somewhere.
func PlayerHasValidMove(state *entity.GameState, playerID int) bool {
	player, ok := state.PlayerByID(playerID)
	if !ok {
		return false
	}

	for _, tile := range player.Hand {
		for row := 0; row < entity.BoardSize; row++ {
			for col := 0; col < entity.BoardSize; col++ {
				if IsValidMove(row, col, tile, state) {
					return true
				}
			}
		}
	}

	return false
}

// HasAnyValidMove - reports whether some player with cards can still place one.
func HasAnyValidMove(state *entity.GameState) bool {
	for _, player := range state.Players {
		if player.HasCards() && PlayerHasValidMove(state, player.ID) {
			return true
		}
	}

	return false
}
