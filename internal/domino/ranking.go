package domino

import (
	"cmp"
	"slices"
)

// Standing is a seat annotated with its position in the running order.
type Standing struct {
	GamePlayer
	Rank int
}

// Rank orders seats by total ascending, seat position breaking ties. Tied
// totals share a rank (1, 1, 3, ...); rank 1 is the leader.
func Rank(players []GamePlayer) []Standing {
	sorted := slices.Clone(players)
	slices.SortStableFunc(sorted, compareStanding)

	out := make([]Standing, len(sorted))
	for i, p := range sorted {
		rank := i + 1
		if i > 0 && p.TotalScore == sorted[i-1].TotalScore {
			rank = out[i-1].Rank
		}
		out[i] = Standing{GamePlayer: p, Rank: rank}
	}
	return out
}

// Winner returns the seat with the lowest total, lowest seat position on a
// tie. ok is false when players is empty.
func Winner(players []GamePlayer) (GamePlayer, bool) {
	if len(players) == 0 {
		return GamePlayer{}, false
	}
	return slices.MinFunc(players, compareStanding), true
}

func compareStanding(a, b GamePlayer) int {
	return cmp.Or(
		cmp.Compare(a.TotalScore, b.TotalScore),
		cmp.Compare(a.SeatPosition, b.SeatPosition),
	)
}
