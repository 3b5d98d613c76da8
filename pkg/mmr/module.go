// Package mmr applies Elo rating updates to match outcomes.
package mmr

import "math"

const (
	// K is the default K-factor.
	K = 32
	// D is the default deviation.
	D = 400
)

type Elo struct {
	K int
	D int
}

func NewElo() *Elo {
	return &Elo{K, D}
}

type Outcome struct {
	Delta  int
	Rating int
}

// ExpectedScore gives the chance that the first rating beats the second.
func (e *Elo) ExpectedScore(ratingA, ratingB int) float64 {
	return 1 / (1 + math.Pow(10, float64(ratingB-ratingA)/float64(e.D)))
}

// Outcome returns the rating change for both sides given the first side's
// score: 1 for a win, 0.5 for a draw, 0 for a loss.
func (e *Elo) Outcome(ratingA, ratingB int, score float64) (Outcome, Outcome) {
	delta := int(float64(e.K) * (score - e.ExpectedScore(ratingA, ratingB)))
	return Outcome{delta, ratingA + delta}, Outcome{-delta, ratingB - delta}
}

// TeamOutcome rates every player on both teams against the opposing team's
// average, which keeps individual adjustments sane in uneven lobbies.
func (e *Elo) TeamOutcome(winners, losers []int) ([]Outcome, []Outcome) {
	winnerAvg := average(winners)
	loserAvg := average(losers)

	winnerOutcomes := make([]Outcome, len(winners))
	for i, rating := range winners {
		out, _ := e.Outcome(rating, loserAvg, 1)
		winnerOutcomes[i] = out
	}
	loserOutcomes := make([]Outcome, len(losers))
	for i, rating := range losers {
		out, _ := e.Outcome(rating, winnerAvg, 0)
		loserOutcomes[i] = out
	}
	return winnerOutcomes, loserOutcomes
}

func average(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return sum / len(ratings)
}
