package entity

const (
	MinTileValue = 1
	MaxTileValue = 9

	// SetsPerColor is how many full 1..9 runs every color deck holds.
	SetsPerColor  = 2
	TilesPerColor = SetsPerColor * MaxTileValue
)

type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
)

// Colors lists the colors in player-id order: player 1 is red, player 4 is green.
var Colors = [MaxPlayers]Color{ColorRed, ColorBlue, ColorYellow, ColorGreen}

// ColorForPlayer - returns the fixed color of a player id, or "" for ids outside 1..4.
func ColorForPlayer(id int) Color {
	if id < 1 || id > MaxPlayers {
		return ""
	}

	return Colors[id-1]
}

// Tile is a numbered, colored playing piece held in a hand or deck.
type Tile struct {
	Value int   `json:"value"`
	Color Color `json:"color"`
}

// PlacedTile is a tile lying on the board together with the player who placed it.
type PlacedTile struct {
	Value   int   `json:"value"`
	Color   Color `json:"color"`
	OwnerID int   `json:"ownerId"`
}

func (that Tile) PlacedBy(ownerID int) *PlacedTile {
	return &PlacedTile{
		Value:   that.Value,
		Color:   that.Color,
		OwnerID: ownerID,
	}
}

func cloneTiles(tiles []Tile) []Tile {
	if tiles == nil {
		return nil
	}

	out := make([]Tile, len(tiles))
	copy(out, tiles)

	return out
}

func equalTiles(a, b []Tile) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
