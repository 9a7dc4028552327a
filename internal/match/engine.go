// Package match implements the match engine: the score ledger that applies
// and reverses round results, and the state machine that gates which
// commands a game accepts.
package match

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playperu/dominoscore/internal/domino"
	"github.com/playperu/dominoscore/internal/events"
)

// Engine executes commands against games. Callers serialize commands per
// game; the engine itself holds no per-game state.
type Engine struct {
	store  Store
	pub    Publisher
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Engine)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store Store, pub Publisher, logger *slog.Logger, opts ...Option) *Engine {
	if pub == nil {
		pub = discardPublisher{}
	}
	e := &Engine{
		store:  store,
		pub:    pub,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateGame seats the given players in list order and starts an active
// game at round 0.
func (e *Engine) CreateGame(ctx context.Context, playerIDs []string) (domino.Game, error) {
	if n := len(playerIDs); n < domino.MinPlayers || n > domino.MaxPlayers {
		return domino.Game{}, fmt.Errorf("%w: a game needs %d to %d players, got %d",
			domino.ErrInvalid, domino.MinPlayers, domino.MaxPlayers, n)
	}
	seen := make(map[string]bool, len(playerIDs))
	for _, id := range playerIDs {
		if seen[id] {
			return domino.Game{}, fmt.Errorf("%w: player %s listed twice", domino.ErrInvalid, id)
		}
		seen[id] = true
	}

	g := domino.Game{
		Status:    domino.GameStatusActive,
		CreatedAt: e.now(),
	}
	err := e.store.Atomic(ctx, func(ctx context.Context, r Repo) error {
		for _, id := range playerIDs {
			if _, err := r.GetPlayer(ctx, id); err != nil {
				return fmt.Errorf("player %s: %w", id, err)
			}
		}
		id, err := r.CreateGame(ctx, g, playerIDs)
		if err != nil {
			return fmt.Errorf("creating game: %w", err)
		}
		g.ID = id
		return nil
	})
	if err != nil {
		return domino.Game{}, err
	}

	e.logger.Info("game created", "game_id", g.ID, "players", len(playerIDs))
	e.publish(events.TypeGameCreated, g.ID, 0, "")
	return g, nil
}

// SubmitRound records the scores of round roundIndex and advances the game.
// It reports whether this submission completed the match.
func (e *Engine) SubmitRound(ctx context.Context, gameID string, roundIndex int, scores map[string]int) (bool, error) {
	var (
		completed bool
		winnerID  string
	)
	err := e.store.Atomic(ctx, func(ctx context.Context, r Repo) error {
		g, err := r.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		if g.Status != domino.GameStatusActive {
			return fmt.Errorf("%w: game is %s", domino.ErrConflict, g.Status)
		}
		if roundIndex != g.CurrentRoundIndex {
			return fmt.Errorf("%w: expected round %d, got %d", domino.ErrInvalid, g.CurrentRoundIndex, roundIndex)
		}
		if !domino.ValidRoundIndex(roundIndex) {
			return fmt.Errorf("%w: round %d is past the last round", domino.ErrConflict, roundIndex)
		}

		seats, err := r.SeatedPlayers(ctx, gameID)
		if err != nil {
			return fmt.Errorf("loading seats: %w", err)
		}
		if err := validateScores(seats, scores); err != nil {
			return err
		}

		now := e.now()
		shaker := seats[domino.ShakerSeatIndex(roundIndex, len(seats))]
		roundID, err := r.CreateRound(ctx, domino.Round{
			GameID:         gameID,
			RoundIndex:     roundIndex,
			SpinnerValue:   domino.SpinnerValue(roundIndex),
			ShakerPlayerID: shaker.PlayerID,
			CompletedAt:    &now,
		})
		if err != nil {
			return fmt.Errorf("creating round: %w", err)
		}

		batch := make([]domino.RoundScore, len(seats))
		for i, s := range seats {
			batch[i] = domino.RoundScore{RoundID: roundID, PlayerID: s.PlayerID, Score: scores[s.PlayerID]}
		}
		if err := r.SaveRoundScores(ctx, roundID, batch); err != nil {
			return fmt.Errorf("saving round scores: %w", err)
		}

		for i := range seats {
			delta := scores[seats[i].PlayerID]
			if err := r.AdjustPlayerScore(ctx, gameID, seats[i].PlayerID, delta); err != nil {
				return fmt.Errorf("adjusting total: %w", err)
			}
			seats[i].TotalScore += delta
		}

		g.CurrentRoundIndex = roundIndex + 1
		if g.CurrentRoundIndex == domino.TotalRounds {
			w, _ := domino.Winner(seats)
			g.Status = domino.GameStatusCompleted
			g.CompletedAt = &now
			g.WinnerPlayerID = w.PlayerID
			if err := r.SetPlayerWinner(ctx, gameID, w.PlayerID, true); err != nil {
				return fmt.Errorf("marking winner: %w", err)
			}
			completed = true
			winnerID = w.PlayerID
		}
		return r.UpdateGame(ctx, g)
	})
	if err != nil {
		return false, err
	}

	e.logger.Info("round submitted", "game_id", gameID, "round_index", roundIndex, "completed", completed)
	e.publish(events.TypeRoundSubmitted, gameID, roundIndex, "")
	if completed {
		e.logger.Info("game completed", "game_id", gameID, "winner_id", winnerID)
		e.publish(events.TypeGameCompleted, gameID, roundIndex, winnerID)
	}
	return completed, nil
}

func validateScores(seats []domino.GamePlayer, scores map[string]int) error {
	if len(scores) != len(seats) {
		return fmt.Errorf("%w: expected %d scores, got %d", domino.ErrInvalid, len(seats), len(scores))
	}
	for _, s := range seats {
		v, ok := scores[s.PlayerID]
		if !ok {
			return fmt.Errorf("%w: missing score for player %s", domino.ErrInvalid, s.PlayerID)
		}
		if v < 0 {
			return fmt.Errorf("%w: score for player %s is negative", domino.ErrInvalid, s.PlayerID)
		}
		if v > domino.MaxRoundScore {
			return fmt.Errorf("%w: score for player %s exceeds %d", domino.ErrInvalid, s.PlayerID, domino.MaxRoundScore)
		}
	}
	return nil
}

// UndoLastRound reverses the most recent round of the game. It returns false
// when the game has no rounds. Undoing the final round of a completed game
// reopens it: status returns to active and every winner mark is cleared.
func (e *Engine) UndoLastRound(ctx context.Context, gameID string) (bool, error) {
	var (
		undone     bool
		roundIndex int
	)
	err := e.store.Atomic(ctx, func(ctx context.Context, r Repo) error {
		g, err := r.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		if g.Status == domino.GameStatusPaused {
			return fmt.Errorf("%w: game is paused", domino.ErrConflict)
		}

		latest, err := r.LatestRound(ctx, gameID)
		if isNotFound(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("loading latest round: %w", err)
		}

		scores, err := r.RoundScores(ctx, latest.ID)
		if err != nil {
			return fmt.Errorf("loading round scores: %w", err)
		}
		for _, s := range scores {
			if err := r.AdjustPlayerScore(ctx, gameID, s.PlayerID, -s.Score); err != nil {
				return fmt.Errorf("reverting total: %w", err)
			}
		}
		if err := r.DeleteRoundScores(ctx, latest.ID); err != nil {
			return fmt.Errorf("deleting round scores: %w", err)
		}
		if err := r.DeleteRound(ctx, latest.ID); err != nil {
			return fmt.Errorf("deleting round: %w", err)
		}

		if g.Status == domino.GameStatusCompleted {
			seats, err := r.SeatedPlayers(ctx, gameID)
			if err != nil {
				return fmt.Errorf("loading seats: %w", err)
			}
			for _, s := range seats {
				if !s.IsWinner {
					continue
				}
				if err := r.SetPlayerWinner(ctx, gameID, s.PlayerID, false); err != nil {
					return fmt.Errorf("clearing winner: %w", err)
				}
			}
			g.Status = domino.GameStatusActive
			g.CompletedAt = nil
			g.WinnerPlayerID = ""
		}

		g.CurrentRoundIndex = latest.RoundIndex
		if err := r.UpdateGame(ctx, g); err != nil {
			return err
		}
		undone = true
		roundIndex = latest.RoundIndex
		return nil
	})
	if err != nil || !undone {
		return false, err
	}

	e.logger.Info("round undone", "game_id", gameID, "round_index", roundIndex)
	e.publish(events.TypeRoundUndone, gameID, roundIndex, "")
	return true, nil
}

func (e *Engine) PauseGame(ctx context.Context, gameID string) error {
	return e.transition(ctx, gameID, domino.GameStatusActive, domino.GameStatusPaused, events.TypeGamePaused)
}

func (e *Engine) ResumeGame(ctx context.Context, gameID string) error {
	return e.transition(ctx, gameID, domino.GameStatusPaused, domino.GameStatusActive, events.TypeGameResumed)
}

func (e *Engine) transition(ctx context.Context, gameID string, from, to domino.GameStatus, evType string) error {
	var roundIndex int
	err := e.store.Atomic(ctx, func(ctx context.Context, r Repo) error {
		g, err := r.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		if g.Status != from {
			return fmt.Errorf("%w: game is %s, must be %s", domino.ErrConflict, g.Status, from)
		}
		g.Status = to
		roundIndex = g.CurrentRoundIndex
		return r.UpdateGame(ctx, g)
	})
	if err != nil {
		return err
	}

	e.logger.Info("game status changed", "game_id", gameID, "from", from, "to", to)
	e.publish(evType, gameID, roundIndex, "")
	return nil
}

// DeleteGame removes the game with its seats, rounds and scores.
func (e *Engine) DeleteGame(ctx context.Context, gameID string) error {
	if err := e.store.DeleteGame(ctx, gameID); err != nil {
		return err
	}
	e.logger.Info("game deleted", "game_id", gameID)
	e.publish(events.TypeGameDeleted, gameID, 0, "")
	return nil
}

func (e *Engine) publish(typ, gameID string, roundIndex int, winnerID string) {
	e.pub.Publish(events.Event{
		Type:           typ,
		GameID:         gameID,
		RoundIndex:     roundIndex,
		WinnerPlayerID: winnerID,
		At:             e.now(),
	})
}
