package match

import (
	"context"
	"fmt"

	"github.com/playperu/dominoscore/internal/domino"
)

// PlayerStats summarizes a player's completed games. BestScore is the
// lowest final total, since fewer points is better.
type PlayerStats struct {
	Player       domino.Player
	GamesPlayed  int
	GamesWon     int
	TotalScore   int
	AverageScore float64
	BestScore    int
	WinRate      float64
}

func (e *Engine) PlayerStats(ctx context.Context, playerID string) (PlayerStats, error) {
	p, err := e.store.GetPlayer(ctx, playerID)
	if err != nil {
		return PlayerStats{}, err
	}
	return e.statsFor(ctx, p)
}

// AllPlayerStats returns stats for every player, ordered by name.
func (e *Engine) AllPlayerStats(ctx context.Context) ([]PlayerStats, error) {
	players, err := e.store.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PlayerStats, 0, len(players))
	for _, p := range players {
		st, err := e.statsFor(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (e *Engine) statsFor(ctx context.Context, p domino.Player) (PlayerStats, error) {
	results, err := e.store.PlayerResults(ctx, p.ID)
	if err != nil {
		return PlayerStats{}, fmt.Errorf("loading results for %s: %w", p.ID, err)
	}
	return summarize(p, results), nil
}

func summarize(p domino.Player, results []domino.GamePlayer) PlayerStats {
	st := PlayerStats{Player: p, GamesPlayed: len(results)}
	for i, r := range results {
		st.TotalScore += r.TotalScore
		if r.IsWinner {
			st.GamesWon++
		}
		if i == 0 || r.TotalScore < st.BestScore {
			st.BestScore = r.TotalScore
		}
	}
	if st.GamesPlayed > 0 {
		st.AverageScore = float64(st.TotalScore) / float64(st.GamesPlayed)
		st.WinRate = float64(st.GamesWon) / float64(st.GamesPlayed)
	}
	return st
}
