package domino

import "fmt"

// SpinnerSequence is the double each round must be opened with: a countdown
// from double-six to double-blank and back up again.
var SpinnerSequence = [...]int{6, 5, 4, 3, 2, 1, 0, 0, 1, 2, 3, 4, 5, 6}

// TotalRounds is the number of rounds in a match.
const TotalRounds = len(SpinnerSequence)

const (
	MinPlayers = 2
	MaxPlayers = 8
)

// MaxRoundScore bounds a single player's score in one round. Scorecards
// take at most three digits, and the bound keeps a full match total far
// from integer overflow.
const MaxRoundScore = 999

// SpinnerValue returns the pip count of the double required in round i.
// i must be in [0, TotalRounds).
func SpinnerValue(roundIndex int) int {
	return SpinnerSequence[roundIndex]
}

// ShakerSeatIndex returns the seat of the player who opens round i.
func ShakerSeatIndex(roundIndex, playerCount int) int {
	return roundIndex % playerCount
}

// RoundLabel returns the display name of round i, e.g. "Double-6".
func RoundLabel(roundIndex int) string {
	return fmt.Sprintf("Double-%d", SpinnerValue(roundIndex))
}

func RoundLabels() []string {
	labels := make([]string, TotalRounds)
	for i := range labels {
		labels[i] = RoundLabel(i)
	}
	return labels
}

// ValidRoundIndex reports whether i addresses a playable round.
func ValidRoundIndex(roundIndex int) bool {
	return roundIndex >= 0 && roundIndex < TotalRounds
}
