package entity

const (
	BoardSize = 9

	CenterRow = 4
	CenterCol = 4
)

// Board is the 9x9 grid. A nil cell is empty.
type Board [BoardSize][BoardSize]*PlacedTile

func InBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}

// Get - returns the occupant of a cell, nil for empty or out-of-range cells.
func (that *Board) Get(row, col int) *PlacedTile {
	if !InBounds(row, col) {
		return nil
	}

	return that[row][col]
}

// Set - stores tile at the given cell; out-of-range writes are ignored.
func (that *Board) Set(row, col int, tile *PlacedTile) {
	if !InBounds(row, col) {
		return
	}

	that[row][col] = tile
}

func (that *Board) IsOccupied(row, col int) bool {
	return that.Get(row, col) != nil
}

// HasNeighbor - reports whether any of the 8 surrounding cells is occupied.
func (that *Board) HasNeighbor(row, col int) bool {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}

			if that.IsOccupied(row+dr, col+dc) {
				return true
			}
		}
	}

	return false
}

// CountColor - returns the number of visible cells showing the color.
func (that *Board) CountColor(color Color) int {
	count := 0
	for row := range that {
		for _, cell := range that[row] {
			if cell != nil && cell.Color == color {
				count++
			}
		}
	}

	return count
}

// Clone - returns a deep copy; no PlacedTile pointer is shared with the original.
func (that *Board) Clone() Board {
	var out Board
	for row := range that {
		for col, cell := range that[row] {
			if cell != nil {
				placed := *cell
				out[row][col] = &placed
			}
		}
	}

	return out
}

func (that *Board) Equal(other *Board) bool {
	for row := range that {
		for col, cell := range that[row] {
			theirs := other[row][col]
			if (cell == nil) != (theirs == nil) {
				return false
			}

			if cell != nil && *cell != *theirs {
				return false
			}
		}
	}

	return true
}
