package bot

import (
	"github.com/freeeve/broadside/api/pkg/battleship"
)

// Strategy picks the next cell to attack on an opponent's board. The board
// may have its Ship cells masked; strategies only rely on Hit and Miss.
type Strategy interface {
	Name() string
	ChooseTarget(b *battleship.Board) (battleship.Coord, error)
}

// StrategyForDifficulty returns the appropriate strategy for a difficulty
// level. The server's AI opponent uses "random".
func StrategyForDifficulty(difficulty string) Strategy {
	switch difficulty {
	case "hunt", "medium":
		return HuntStrategy{}
	default:
		return RandomStrategy{}
	}
}

// RandomStrategy picks uniformly among all cells that are neither Hit nor
// Miss.
type RandomStrategy struct{}

func (RandomStrategy) Name() string { return "random" }

func (RandomStrategy) ChooseTarget(b *battleship.Board) (battleship.Coord, error) {
	cells := b.Unprobed()
	if len(cells) == 0 {
		return battleship.Coord{}, battleship.ErrNoMovesLeft
	}
	return cells[botIntn(len(cells))], nil
}
