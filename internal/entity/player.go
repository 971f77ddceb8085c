package entity

import "fmt"

const (
	MaxPlayers = 4
	HandSize   = 3
)

type Player struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Color     Color  `json:"color"`
	Hand      []Tile `json:"hand"`
	Deck      []Tile `json:"deck"`
	IsCurrent bool   `json:"isCurrent"`
}

// NewPlayer - creates a player with the fixed color of its id and empty hand and deck.
func NewPlayer(id int) *Player {
	return &Player{
		ID:    id,
		Name:  fmt.Sprintf("Player %d", id),
		Color: ColorForPlayer(id),
		Hand:  []Tile{},
		Deck:  []Tile{},
	}
}

func (that *Player) HasCards() bool {
	return len(that.Hand) > 0
}

// Card - returns the hand tile at index.
func (that *Player) Card(index int) (Tile, bool) {
	if index < 0 || index >= len(that.Hand) {
		return Tile{}, false
	}

	return that.Hand[index], true
}

// TakeCard - removes and returns the hand tile at index.
func (that *Player) TakeCard(index int) (Tile, bool) {
	tile, ok := that.Card(index)
	if !ok {
		return Tile{}, false
	}

	hand := make([]Tile, 0, len(that.Hand)-1)
	hand = append(hand, that.Hand[:index]...)
	that.Hand = append(hand, that.Hand[index+1:]...)

	return tile, true
}

// Draw - moves the top of the deck into the hand. Returns false when the deck is empty.
func (that *Player) Draw() bool {
	if len(that.Deck) == 0 {
		return false
	}

	that.Hand = append(that.Hand, that.Deck[0])
	that.Deck = that.Deck[1:]

	return true
}

// CountColor - returns how many tiles of the color are still held in hand and deck.
func (that *Player) CountColor(color Color) int {
	count := 0
	for _, tile := range that.Hand {
		if tile.Color == color {
			count++
		}
	}

	for _, tile := range that.Deck {
		if tile.Color == color {
			count++
		}
	}

	return count
}

func (that *Player) Clone() *Player {
	out := *that
	out.Hand = cloneTiles(that.Hand)
	out.Deck = cloneTiles(that.Deck)

	return &out
}

func (that *Player) Equal(other *Player) bool {
	return that.ID == other.ID &&
		that.Name == other.Name &&
		that.Color == other.Color &&
		that.IsCurrent == other.IsCurrent &&
		equalTiles(that.Hand, other.Hand) &&
		equalTiles(that.Deck, other.Deck)
}
