package punto

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/rocketscienceinc/punto-backend/internal/entity"
)

var (
	ErrInvalidPlayerID = errors.New("player id must be between 1 and 4")
	ErrPlayerExists    = errors.New("player already in game")
	ErrNoPlayers       = errors.New("game needs at least one player")
)

// NewDeck - returns the ordered, unshuffled deck of a color: two runs of 1..9.
func NewDeck(color entity.Color) []entity.Tile {
	deck := make([]entity.Tile, 0, entity.TilesPerColor)
	for set := 0; set < entity.SetsPerColor; set++ {
		for value := entity.MinTileValue; value <= entity.MaxTileValue; value++ {
			deck = append(deck, entity.Tile{Value: value, Color: color})
		}
	}

	return deck
}

// Deal - shuffles a fresh deck into the player and moves the first tiles into the hand.
func Deal(player *entity.Player, rnd *rand.Rand) {
	deck := NewDeck(player.Color)
	rnd.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	player.Hand = append([]entity.Tile{}, deck[:entity.HandSize]...)
	player.Deck = append([]entity.Tile{}, deck[entity.HandSize:]...)
}

// NewGame - builds a fresh game for the given player ids with shuffled decks and
// dealt hands. The lowest id moves first.
func NewGame(playerIDs []int, rnd *rand.Rand) (*entity.GameState, error) {
	if len(playerIDs) == 0 {
		return nil, ErrNoPlayers
	}

	ids := append([]int{}, playerIDs...)
	sort.Ints(ids)

	state := entity.NewGameState()
	for _, id := range ids {
		if err := addPlayer(state, id, rnd); err != nil {
			return nil, err
		}
	}

	state.SetCurrent(0)

	return state, nil
}

// AddPlayer - deals a new player into a running game, keeping players ordered by id.
// The current player does not change.
func AddPlayer(state *entity.GameState, id int, rnd *rand.Rand) error {
	current := state.CurrentPlayer()

	if err := addPlayer(state, id, rnd); err != nil {
		return err
	}

	if current == nil {
		state.SetCurrent(0)
		return nil
	}

	state.SetCurrent(state.PlayerIndex(current.ID))

	return nil
}

func addPlayer(state *entity.GameState, id int, rnd *rand.Rand) error {
	if id < 1 || id > entity.MaxPlayers {
		return fmt.Errorf("%w: %d", ErrInvalidPlayerID, id)
	}

	if _, ok := state.PlayerByID(id); ok {
		return fmt.Errorf("%w: %d", ErrPlayerExists, id)
	}

	player := entity.NewPlayer(id)
	Deal(player, rnd)

	state.Players = append(state.Players, player)
	sort.SliceStable(state.Players, func(i, j int) bool {
		return state.Players[i].ID < state.Players[j].ID
	})

	return nil
}
