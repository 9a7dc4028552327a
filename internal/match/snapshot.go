package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playperu/dominoscore/internal/domino"
)

// RoundPlan describes how a round is opened.
type RoundPlan struct {
	RoundIndex     int
	Label          string
	SpinnerValue   int
	ShakerSeat     int
	ShakerPlayerID string
}

// RoundResult is a submitted round with every seat's score.
type RoundResult struct {
	RoundPlan
	RoundID     string
	CompletedAt *time.Time
	Scores      map[string]int
}

// Seat joins a seat with its player identity and standing.
type Seat struct {
	Player       domino.Player
	SeatPosition int
	TotalScore   int
	IsWinner     bool
	Rank         int
}

// Snapshot is everything a view of one game needs.
type Snapshot struct {
	Game            domino.Game
	Seats           []Seat // seat order
	Standings       []Seat // rank order, leader first
	CompletedRounds int
	// CurrentRound is nil once the match is completed.
	CurrentRound *RoundPlan
	Rounds       []RoundResult
}

func (s Snapshot) Completed() bool { return s.Game.Status == domino.GameStatusCompleted }

func (e *Engine) GetGame(ctx context.Context, gameID string) (domino.Game, error) {
	return e.store.GetGame(ctx, gameID)
}

// GameFilter selects games in ListGames.
type GameFilter string

const (
	GameFilterAll       GameFilter = ""
	GameFilterOpen      GameFilter = "active"
	GameFilterCompleted GameFilter = "completed"
)

// ListGames returns games newest first. GameFilterOpen covers active and
// paused games.
func (e *Engine) ListGames(ctx context.Context, filter GameFilter) ([]domino.Game, error) {
	switch filter {
	case GameFilterAll:
		return e.store.ListGames(ctx)
	case GameFilterOpen:
		return e.store.ListGames(ctx, domino.GameStatusActive, domino.GameStatusPaused)
	case GameFilterCompleted:
		return e.store.ListGames(ctx, domino.GameStatusCompleted)
	}
	return nil, fmt.Errorf("%w: unknown game filter %q", domino.ErrInvalid, filter)
}

// RoundPlan returns spinner and shaker for any round up to the current one.
func (e *Engine) RoundPlan(ctx context.Context, gameID string, roundIndex int) (RoundPlan, error) {
	var plan RoundPlan
	err := e.store.Atomic(ctx, func(ctx context.Context, r Repo) error {
		g, err := r.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		if !domino.ValidRoundIndex(roundIndex) || roundIndex > g.CurrentRoundIndex {
			return fmt.Errorf("%w: round %d is not reachable, game is at round %d",
				domino.ErrInvalid, roundIndex, g.CurrentRoundIndex)
		}
		seats, err := r.SeatedPlayers(ctx, gameID)
		if err != nil {
			return fmt.Errorf("loading seats: %w", err)
		}
		plan = planFor(roundIndex, seats)
		return nil
	})
	return plan, err
}

func planFor(roundIndex int, seats []domino.GamePlayer) RoundPlan {
	seat := domino.ShakerSeatIndex(roundIndex, len(seats))
	return RoundPlan{
		RoundIndex:     roundIndex,
		Label:          domino.RoundLabel(roundIndex),
		SpinnerValue:   domino.SpinnerValue(roundIndex),
		ShakerSeat:     seat,
		ShakerPlayerID: seats[seat].PlayerID,
	}
}

// Snapshot reads the whole game in one transaction, so totals always agree
// with the round history even while rounds are being submitted.
func (e *Engine) Snapshot(ctx context.Context, gameID string) (Snapshot, error) {
	var snap Snapshot
	err := e.store.Atomic(ctx, func(ctx context.Context, r Repo) error {
		var err error
		snap, err = readSnapshot(ctx, r, gameID)
		return err
	})
	return snap, err
}

func readSnapshot(ctx context.Context, r Repo, gameID string) (Snapshot, error) {
	g, err := r.GetGame(ctx, gameID)
	if err != nil {
		return Snapshot{}, err
	}
	gps, err := r.SeatedPlayers(ctx, gameID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading seats: %w", err)
	}
	rounds, err := r.ListRounds(ctx, gameID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading rounds: %w", err)
	}
	scores, err := r.GameRoundScores(ctx, gameID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading scores: %w", err)
	}

	players := make(map[string]domino.Player, len(gps))
	for _, gp := range gps {
		p, err := r.GetPlayer(ctx, gp.PlayerID)
		if err != nil {
			return Snapshot{}, fmt.Errorf("loading player %s: %w", gp.PlayerID, err)
		}
		players[p.ID] = p
	}

	snap := Snapshot{
		Game:            g,
		CompletedRounds: g.CompletedRounds(),
		Seats:           make([]Seat, len(gps)),
	}

	ranks := make(map[string]int, len(gps))
	for _, st := range domino.Rank(gps) {
		ranks[st.PlayerID] = st.Rank
		snap.Standings = append(snap.Standings, seatFrom(st.GamePlayer, players, st.Rank))
	}
	for i, gp := range gps {
		snap.Seats[i] = seatFrom(gp, players, ranks[gp.PlayerID])
	}

	byRound := make(map[string]map[string]int, len(rounds))
	for _, s := range scores {
		if byRound[s.RoundID] == nil {
			byRound[s.RoundID] = make(map[string]int)
		}
		byRound[s.RoundID][s.PlayerID] = s.Score
	}
	for _, rd := range rounds {
		snap.Rounds = append(snap.Rounds, RoundResult{
			RoundPlan: RoundPlan{
				RoundIndex:     rd.RoundIndex,
				Label:          domino.RoundLabel(rd.RoundIndex),
				SpinnerValue:   rd.SpinnerValue,
				ShakerSeat:     domino.ShakerSeatIndex(rd.RoundIndex, len(gps)),
				ShakerPlayerID: rd.ShakerPlayerID,
			},
			RoundID:     rd.ID,
			CompletedAt: rd.CompletedAt,
			Scores:      byRound[rd.ID],
		})
	}

	if !snap.Completed() && domino.ValidRoundIndex(g.CurrentRoundIndex) && len(gps) > 0 {
		plan := planFor(g.CurrentRoundIndex, gps)
		snap.CurrentRound = &plan
	}
	return snap, nil
}

func seatFrom(gp domino.GamePlayer, players map[string]domino.Player, rank int) Seat {
	return Seat{
		Player:       players[gp.PlayerID],
		SeatPosition: gp.SeatPosition,
		TotalScore:   gp.TotalScore,
		IsWinner:     gp.IsWinner,
		Rank:         rank,
	}
}

func isNotFound(err error) bool { return errors.Is(err, domino.ErrNotFound) }
