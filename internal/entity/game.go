package entity

import (
	"errors"
	"fmt"
)

var ErrInvalidState = errors.New("invalid game state")

// SelectedCard points at a hand tile chosen by a player but not yet placed.
type SelectedCard struct {
	PlayerID  int `json:"playerId"`
	CardIndex int `json:"cardIndex"`
}

// GameState is the aggregate shared by the engine, history, AI and network sync.
// Its JSON form is the session state message exchanged between peers.
type GameState struct {
	Board              Board         `json:"board"`
	Players            []*Player     `json:"players"`
	CurrentPlayerIndex int           `json:"currentPlayerIndex"`
	FirstMove          bool          `json:"firstMove"`
	SelectedCard       *SelectedCard `json:"selectedCard"`
	GameOver           bool          `json:"gameOver"`
}

// NewGameState - returns an empty board with no players, waiting for the first move.
func NewGameState() *GameState {
	return &GameState{
		Players:   []*Player{},
		FirstMove: true,
	}
}

// Validate - checks the shape of a state that arrived from outside the engine: a player
// list of known, unique ids and a current index pointing into it.
func (that *GameState) Validate() error {
	if that == nil {
		return fmt.Errorf("%w: no state", ErrInvalidState)
	}

	if len(that.Players) == 0 || len(that.Players) > MaxPlayers {
		return fmt.Errorf("%w: %d players", ErrInvalidState, len(that.Players))
	}

	seen := make(map[int]bool, len(that.Players))
	for i, player := range that.Players {
		if player == nil {
			return fmt.Errorf("%w: player %d is missing", ErrInvalidState, i)
		}

		if player.ID < 1 || player.ID > MaxPlayers || seen[player.ID] {
			return fmt.Errorf("%w: bad player id %d", ErrInvalidState, player.ID)
		}

		seen[player.ID] = true
	}

	if that.CurrentPlayerIndex < 0 || that.CurrentPlayerIndex >= len(that.Players) {
		return fmt.Errorf("%w: current player index %d", ErrInvalidState, that.CurrentPlayerIndex)
	}

	return nil
}

// PlayerByID - finds a player record by id.
func (that *GameState) PlayerByID(id int) (*Player, bool) {
	for _, player := range that.Players {
		if player.ID == id {
			return player, true
		}
	}

	return nil, false
}

// MustPlayer - like PlayerByID, but a missing record is an engine fault.
func (that *GameState) MustPlayer(id int) *Player {
	player, ok := that.PlayerByID(id)
	if !ok {
		panic(fmt.Sprintf("entity: no player record for id %d", id))
	}

	return player
}

func (that *GameState) PlayerIndex(id int) int {
	for i, player := range that.Players {
		if player.ID == id {
			return i
		}
	}

	return -1
}

// CurrentPlayer - returns the player whose turn it is, nil when the index is out of range.
func (that *GameState) CurrentPlayer() *Player {
	if that.CurrentPlayerIndex < 0 || that.CurrentPlayerIndex >= len(that.Players) {
		return nil
	}

	return that.Players[that.CurrentPlayerIndex]
}

// SetCurrent - moves the turn to the player at index and keeps the isCurrent flags in step.
func (that *GameState) SetCurrent(index int) {
	that.CurrentPlayerIndex = index
	for i, player := range that.Players {
		player.IsCurrent = i == index
	}
}

// TileCount - returns hand + deck + placed tiles of the color. Stacked-over tiles
// leave the board view, so the count is exact only while nothing was covered.
func (that *GameState) TileCount(color Color) int {
	count := that.Board.CountColor(color)
	for _, player := range that.Players {
		count += player.CountColor(color)
	}

	return count
}

// Clone - returns a fully independent deep copy used for history snapshots.
func (that *GameState) Clone() *GameState {
	out := &GameState{
		Board:              that.Board.Clone(),
		CurrentPlayerIndex: that.CurrentPlayerIndex,
		FirstMove:          that.FirstMove,
		GameOver:           that.GameOver,
	}

	if that.Players != nil {
		out.Players = make([]*Player, len(that.Players))
		for i, player := range that.Players {
			out.Players[i] = player.Clone()
		}
	}

	if that.SelectedCard != nil {
		selected := *that.SelectedCard
		out.SelectedCard = &selected
	}

	return out
}

// Restore - replaces every field with a deep copy of snapshot.
func (that *GameState) Restore(snapshot *GameState) {
	*that = *snapshot.Clone()
}

func (that *GameState) Equal(other *GameState) bool {
	if that == nil || other == nil {
		return that == other
	}

	if that.CurrentPlayerIndex != other.CurrentPlayerIndex ||
		that.FirstMove != other.FirstMove ||
		that.GameOver != other.GameOver {
		return false
	}

	if (that.SelectedCard == nil) != (other.SelectedCard == nil) {
		return false
	}

	if that.SelectedCard != nil && *that.SelectedCard != *other.SelectedCard {
		return false
	}

	if len(that.Players) != len(other.Players) {
		return false
	}

	for i := range that.Players {
		if !that.Players[i].Equal(other.Players[i]) {
			return false
		}
	}

	return that.Board.Equal(&other.Board)
}
