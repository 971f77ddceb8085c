package ai

import (
	"math/rand"
	"sync"

	"github.com/rocketscienceinc/punto-backend/internal/entity"
	"github.com/rocketscienceinc/punto-backend/internal/punto"
)

// Weights are the heuristic terms added up for every candidate placement.
type Weights struct {
	Win          float64
	StackOver    float64
	OwnNeighbor  float64
	Danger       float64
	CenterFactor float64
	MaxJitter    float64
}

// DefaultWeights is the tuning used by the computer opponent.
var DefaultWeights = Weights{
	Win:          100000,
	StackOver:    250,
	OwnNeighbor:  80,
	Danger:       450,
	CenterFactor: 4,
	MaxJitter:    8,
}

// Move is a placement chosen by the evaluator.
type Move struct {
	CardIndex int
	Row       int
	Col       int
	Score     float64
}

// Evaluator scores legal placements and picks the best one.
// It never mutates the states it is given.
type Evaluator struct {
	weights Weights

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewEvaluator(rnd *rand.Rand) *Evaluator {
	return NewEvaluatorWithWeights(rnd, DefaultWeights)
}

func NewEvaluatorWithWeights(rnd *rand.Rand, weights Weights) *Evaluator {
	return &Evaluator{
		weights: weights,
		rnd:     rnd,
	}
}

// BestMove - returns the highest scoring legal placement for the player, or nil when
// the player has no legal placement. Candidates are visited by hand index, then row,
// then column; a winning placement ends the search at once.
func (that *Evaluator) BestMove(state *entity.GameState, playerID int) *Move {
	player, ok := state.PlayerByID(playerID)
	if !ok {
		return nil
	}

	var best *Move

	for cardIndex, tile := range player.Hand {
		for row := 0; row < entity.BoardSize; row++ {
			for col := 0; col < entity.BoardSize; col++ {
				if !punto.IsValidMove(row, col, tile, state) {
					continue
				}

				if punto.WinsAt(state, row, col, tile) {
					return &Move{CardIndex: cardIndex, Row: row, Col: col, Score: that.weights.Win}
				}

				score := that.Score(state, player, row, col, tile)
				if best == nil || score > best.Score {
					best = &Move{CardIndex: cardIndex, Row: row, Col: col, Score: score}
				}
			}
		}
	}

	return best
}

// Score - rates a legal, non-winning placement of tile at (row, col) for player.
func (that *Evaluator) Score(state *entity.GameState, player *entity.Player, row, col int, tile entity.Tile) float64 {
	score := 0.0

	if existing := state.Board.Get(row, col); existing != nil && tile.Value > existing.Value {
		score += that.weights.StackOver
	}

	score += that.weights.OwnNeighbor * float64(ownNeighbors(&state.Board, row, col, player.Color))
	score += that.weights.Danger * float64(dangerCount(state, player.ID, row, col))
	score -= that.weights.CenterFactor * float64(centerDistance(row, col))
	score += that.jitter()

	return score
}

func (that *Evaluator) jitter() float64 {
	if that.weights.MaxJitter <= 0 {
		return 0
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	return that.rnd.Float64() * that.weights.MaxJitter
}

func ownNeighbors(board *entity.Board, row, col int, color entity.Color) int {
	count := 0
	for dRow := -1; dRow <= 1; dRow++ {
		for dCol := -1; dCol <= 1; dCol++ {
			if dRow == 0 && dCol == 0 {
				continue
			}

			if cell := board.Get(row+dRow, col+dCol); cell != nil && cell.Color == color {
				count++
			}
		}
	}

	return count
}

// dangerCount counts opponent hand tiles that would legally win at (row, col).
// Several winning tiles of one opponent are all counted.
func dangerCount(state *entity.GameState, playerID, row, col int) int {
	count := 0
	for _, opponent := range state.Players {
		if opponent.ID == playerID {
			continue
		}

		for _, tile := range opponent.Hand {
			if punto.IsValidMove(row, col, tile, state) && punto.WinsAt(state, row, col, tile) {
				count++
			}
		}
	}

	return count
}

func centerDistance(row, col int) int {
	return abs(row-entity.CenterRow) + abs(col-entity.CenterCol)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}
