package match_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/playperu/dominoscore/internal/domino"
	"github.com/playperu/dominoscore/internal/match"
)

var errDiskFull = errors.New("disk full")

// faultyStore fails one Repo method inside transactions after letting skip
// calls through.
type faultyStore struct {
	match.Store

	mu     sync.Mutex
	method string
	skip   int
}

func (s *faultyStore) failOn(method string, skip int) {
	s.mu.Lock()
	s.method, s.skip = method, skip
	s.mu.Unlock()
}

func (s *faultyStore) trip(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if method != s.method {
		return nil
	}
	if s.skip > 0 {
		s.skip--
		return nil
	}
	return errDiskFull
}

func (s *faultyStore) Atomic(ctx context.Context, fn func(ctx context.Context, r match.Repo) error) error {
	return s.Store.Atomic(ctx, func(ctx context.Context, r match.Repo) error {
		return fn(ctx, faultyRepo{Repo: r, s: s})
	})
}

type faultyRepo struct {
	match.Repo
	s *faultyStore
}

func (r faultyRepo) SaveRoundScores(ctx context.Context, roundID string, scores []domino.RoundScore) error {
	if err := r.s.trip("SaveRoundScores"); err != nil {
		return err
	}
	return r.Repo.SaveRoundScores(ctx, roundID, scores)
}

func (r faultyRepo) AdjustPlayerScore(ctx context.Context, gameID, playerID string, delta int) error {
	if err := r.s.trip("AdjustPlayerScore"); err != nil {
		return err
	}
	return r.Repo.AdjustPlayerScore(ctx, gameID, playerID, delta)
}

func (r faultyRepo) SetPlayerWinner(ctx context.Context, gameID, playerID string, isWinner bool) error {
	if err := r.s.trip("SetPlayerWinner"); err != nil {
		return err
	}
	return r.Repo.SetPlayerWinner(ctx, gameID, playerID, isWinner)
}

func (r faultyRepo) DeleteRound(ctx context.Context, roundID string) error {
	if err := r.s.trip("DeleteRound"); err != nil {
		return err
	}
	return r.Repo.DeleteRound(ctx, roundID)
}

func (r faultyRepo) UpdateGame(ctx context.Context, g domino.Game) error {
	if err := r.s.trip("UpdateGame"); err != nil {
		return err
	}
	return r.Repo.UpdateGame(ctx, g)
}

func setupFaulty(t *testing.T) (fixture, *faultyStore) {
	t.Helper()
	var fs *faultyStore
	f := setupWith(t, ":memory:", func(s match.Store) match.Store {
		fs = &faultyStore{Store: s}
		return fs
	})
	return f, fs
}

// scores per round for seats A, B, C, D.
var roundScores = []int{1, 10, 5, 20}

func submitRounds(t *testing.T, f fixture, gameID string, ids []string, from, to int) {
	t.Helper()
	for i := from; i < to; i++ {
		scores := make(map[string]int, len(ids))
		for seat, id := range ids {
			scores[id] = roundScores[seat]
		}
		if _, err := f.engine.SubmitRound(context.Background(), gameID, i, scores); err != nil {
			t.Fatalf("submit round %d: %v", i, err)
		}
	}
}

func scaled(n int) []int {
	out := make([]int, len(roundScores))
	for i, v := range roundScores {
		out[i] = v * n
	}
	return out
}

func TestFinalSubmitFailureRollsBack(t *testing.T) {
	f, fs := setupFaulty(t)
	ctx := context.Background()
	ids := f.players(t, "A", "B", "C", "D")
	gameID := f.game(t, ids)

	last := domino.TotalRounds - 1
	submitRounds(t, f, gameID, ids, 0, last)
	published := len(f.pub.types())

	final := map[string]int{ids[0]: 1, ids[1]: 10, ids[2]: 5, ids[3]: 20}
	tests := []struct {
		method string
		skip   int
	}{
		{"SaveRoundScores", 0},
		{"AdjustPlayerScore", 2},
		{"SetPlayerWinner", 0},
		{"UpdateGame", 0},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			fs.failOn(tt.method, tt.skip)
			defer fs.failOn("", 0)

			completed, err := f.engine.SubmitRound(ctx, gameID, last, final)
			if !errors.Is(err, errDiskFull) {
				t.Fatalf("err = %v, want %v", err, errDiskFull)
			}
			if completed {
				t.Error("failed submit reported completion")
			}

			if got := f.totals(t, gameID); !equalInts(got, scaled(last)) {
				t.Errorf("totals = %v, want %v", got, scaled(last))
			}
			g, _ := f.engine.GetGame(ctx, gameID)
			if g.Status != domino.GameStatusActive || g.CurrentRoundIndex != last || g.WinnerPlayerID != "" || g.CompletedAt != nil {
				t.Errorf("game changed: %+v", g)
			}
			rd, err := f.store.LatestRound(ctx, gameID)
			if err != nil || rd.RoundIndex != last-1 {
				t.Errorf("latest round = %d (%v), want %d", rd.RoundIndex, err, last-1)
			}
			seats, _ := f.store.SeatedPlayers(ctx, gameID)
			for _, s := range seats {
				if s.IsWinner {
					t.Errorf("winner flag left on %s", s.PlayerID)
				}
			}
			if got := len(f.pub.types()); got != published {
				t.Errorf("failed submit published %d events", got-published)
			}
		})
	}

	completed, err := f.engine.SubmitRound(ctx, gameID, last, final)
	if err != nil || !completed {
		t.Fatalf("retry: completed=%v err=%v", completed, err)
	}
	if got := f.totals(t, gameID); !equalInts(got, scaled(domino.TotalRounds)) {
		t.Errorf("totals after retry = %v", got)
	}
}

func TestUndoFailureRollsBack(t *testing.T) {
	f, fs := setupFaulty(t)
	ctx := context.Background()
	ids := f.players(t, "A", "B", "C", "D")
	gameID := f.game(t, ids)

	submitRounds(t, f, gameID, ids, 0, domino.TotalRounds)
	published := len(f.pub.types())

	tests := []struct {
		method string
		skip   int
	}{
		{"AdjustPlayerScore", 2},
		{"DeleteRound", 0},
		{"SetPlayerWinner", 0},
		{"UpdateGame", 0},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			fs.failOn(tt.method, tt.skip)
			defer fs.failOn("", 0)

			undone, err := f.engine.UndoLastRound(ctx, gameID)
			if !errors.Is(err, errDiskFull) {
				t.Fatalf("err = %v, want %v", err, errDiskFull)
			}
			if undone {
				t.Error("failed undo reported success")
			}

			if got := f.totals(t, gameID); !equalInts(got, scaled(domino.TotalRounds)) {
				t.Errorf("totals = %v, want %v", got, scaled(domino.TotalRounds))
			}
			g, _ := f.engine.GetGame(ctx, gameID)
			if g.Status != domino.GameStatusCompleted || g.WinnerPlayerID != ids[0] || g.CurrentRoundIndex != domino.TotalRounds {
				t.Errorf("game changed: %+v", g)
			}
			rd, err := f.store.LatestRound(ctx, gameID)
			if err != nil || rd.RoundIndex != domino.TotalRounds-1 {
				t.Fatalf("latest round = %d (%v)", rd.RoundIndex, err)
			}
			scores, _ := f.store.RoundScores(ctx, rd.ID)
			if len(scores) != len(ids) {
				t.Errorf("round scores = %d, want %d", len(scores), len(ids))
			}
			seats, _ := f.store.SeatedPlayers(ctx, gameID)
			if !seats[0].IsWinner {
				t.Error("winner flag cleared")
			}
			if got := len(f.pub.types()); got != published {
				t.Errorf("failed undo published %d events", got-published)
			}
		})
	}

	undone, err := f.engine.UndoLastRound(ctx, gameID)
	if err != nil || !undone {
		t.Fatalf("retry: undone=%v err=%v", undone, err)
	}
	if got := f.totals(t, gameID); !equalInts(got, scaled(domino.TotalRounds-1)) {
		t.Errorf("totals after retry = %v", got)
	}
}

func TestSnapshotConsistentDuringSubmits(t *testing.T) {
	f := setupWith(t, filepath.Join(t.TempDir(), "domino.db"), nil)
	ctx := context.Background()
	ids := f.players(t, "A", "B", "C")
	gameID := f.game(t, ids)

	var g errgroup.Group
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		for i := 0; i < domino.TotalRounds; i++ {
			scores := map[string]int{ids[0]: 2, ids[1]: 7, ids[2]: i}
			if _, err := f.engine.SubmitRound(ctx, gameID, i, scores); err != nil {
				return fmt.Errorf("submit round %d: %w", i, err)
			}
		}
		return nil
	})

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		snap, err := f.engine.Snapshot(ctx, gameID)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if len(snap.Rounds) != snap.CompletedRounds {
			t.Fatalf("%d rounds listed, game at %d", len(snap.Rounds), snap.CompletedRounds)
		}
		for _, seat := range snap.Seats {
			sum := 0
			for _, rd := range snap.Rounds {
				sum += rd.Scores[seat.Player.ID]
			}
			if sum != seat.TotalScore {
				t.Fatalf("%s total %d disagrees with round history %d", seat.Player.Name, seat.TotalScore, sum)
			}
		}
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
