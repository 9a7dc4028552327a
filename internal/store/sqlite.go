// Package store persists players, games, rounds and scores in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/dominoscore/internal/domino"
	"github.com/playperu/dominoscore/internal/match"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLite implements match.Store. Reads and writes made outside Atomic go
// straight to the database.
type SQLite struct {
	repo
	db *sql.DB
}

var _ match.Store = (*SQLite)(nil)

func New(db *sql.DB) *SQLite {
	return &SQLite{repo: repo{q: db}, db: db}
}

// Atomic runs fn inside a transaction. Once the transaction has begun it is
// no longer bound to ctx's cancellation, so a caller going away cannot
// leave it half applied.
func (s *SQLite) Atomic(ctx context.Context, fn func(ctx context.Context, r match.Repo) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// database/sql rolls a transaction back when its context ends.
	ctx = context.WithoutCancel(ctx)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, repo{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteGame removes the game and everything it owns in one transaction.
func (s *SQLite) DeleteGame(ctx context.Context, gameID string) error {
	return s.Atomic(ctx, func(ctx context.Context, r match.Repo) error {
		return r.DeleteGame(ctx, gameID)
	})
}

type repo struct {
	q querier
}

func newID() string { return uuid.NewString() }

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func mustAffect(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domino.ErrNotFound
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Games

const gameColumns = `id, status, current_round_index, created_at, completed_at, COALESCE(winner_player_id, '')`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (domino.Game, error) {
	var (
		g                 domino.Game
		status, createdAt string
		completedAt       sql.NullString
	)
	if err := row.Scan(&g.ID, &status, &g.CurrentRoundIndex, &createdAt, &completedAt, &g.WinnerPlayerID); err != nil {
		return g, err
	}
	var err error
	if g.Status, err = domino.ParseGameStatus(status); err != nil {
		return g, fmt.Errorf("game %s: %w", g.ID, err)
	}
	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return g, err
	}
	if g.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return g, err
	}
	return g, nil
}

func (r repo) CreateGame(ctx context.Context, g domino.Game, seatedPlayerIDs []string) (string, error) {
	id := newID()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO games (id, status, current_round_index, created_at)
		VALUES (?, ?, ?, ?)
	`, id, string(g.Status), g.CurrentRoundIndex, formatTime(g.CreatedAt))
	if err != nil {
		return "", err
	}

	for seat, playerID := range seatedPlayerIDs {
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO game_players (game_id, player_id, seat_position, total_score, is_winner)
			VALUES (?, ?, ?, 0, 0)
		`, id, playerID, seat)
		if err != nil {
			return "", fmt.Errorf("seating player %s: %w", playerID, err)
		}
	}
	return id, nil
}

func (r repo) GetGame(ctx context.Context, gameID string) (domino.Game, error) {
	g, err := scanGame(r.q.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = ?`, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return g, domino.ErrNotFound
	}
	return g, err
}

func (r repo) UpdateGame(ctx context.Context, g domino.Game) error {
	return mustAffect(r.q.ExecContext(ctx, `
		UPDATE games
		SET status = ?, current_round_index = ?, completed_at = ?, winner_player_id = NULLIF(?, '')
		WHERE id = ?
	`, string(g.Status), g.CurrentRoundIndex, formatNullTime(g.CompletedAt), g.WinnerPlayerID, g.ID))
}

// DeleteGame removes owned rows explicitly rather than relying on the
// connection having foreign keys enabled.
func (r repo) DeleteGame(ctx context.Context, gameID string) error {
	stmts := []string{
		`DELETE FROM round_scores WHERE round_id IN (SELECT id FROM rounds WHERE game_id = ?)`,
		`DELETE FROM rounds WHERE game_id = ?`,
		`DELETE FROM game_players WHERE game_id = ?`,
	}
	for _, s := range stmts {
		if _, err := r.q.ExecContext(ctx, s, gameID); err != nil {
			return err
		}
	}
	return mustAffect(r.q.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, gameID))
}

func (r repo) ListGames(ctx context.Context, statuses ...domino.GameStatus) ([]domino.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games`
	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = string(st)
	}
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + placeholders(len(statuses)) + `)`
	}
	query += ` ORDER BY COALESCE(completed_at, created_at) DESC, created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := []domino.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Seats

func (r repo) SeatedPlayers(ctx context.Context, gameID string) ([]domino.GamePlayer, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT game_id, player_id, seat_position, total_score, is_winner
		FROM game_players
		WHERE game_id = ?
		ORDER BY seat_position
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGamePlayers(rows)
}

func scanGamePlayers(rows *sql.Rows) ([]domino.GamePlayer, error) {
	var out []domino.GamePlayer
	for rows.Next() {
		var (
			gp       domino.GamePlayer
			isWinner int
		)
		if err := rows.Scan(&gp.GameID, &gp.PlayerID, &gp.SeatPosition, &gp.TotalScore, &isWinner); err != nil {
			return nil, err
		}
		gp.IsWinner = isWinner != 0
		out = append(out, gp)
	}
	return out, rows.Err()
}

func (r repo) AdjustPlayerScore(ctx context.Context, gameID, playerID string, delta int) error {
	return mustAffect(r.q.ExecContext(ctx, `
		UPDATE game_players SET total_score = total_score + ?
		WHERE game_id = ? AND player_id = ?
	`, delta, gameID, playerID))
}

func (r repo) SetPlayerWinner(ctx context.Context, gameID, playerID string, isWinner bool) error {
	return mustAffect(r.q.ExecContext(ctx, `
		UPDATE game_players SET is_winner = ?
		WHERE game_id = ? AND player_id = ?
	`, boolInt(isWinner), gameID, playerID))
}

// Rounds

const roundColumns = `id, game_id, round_index, spinner_value, shaker_player_id, completed_at`

func scanRound(row rowScanner) (domino.Round, error) {
	var (
		rd          domino.Round
		completedAt sql.NullString
	)
	if err := row.Scan(&rd.ID, &rd.GameID, &rd.RoundIndex, &rd.SpinnerValue, &rd.ShakerPlayerID, &completedAt); err != nil {
		return rd, err
	}
	var err error
	rd.CompletedAt, err = parseNullTime(completedAt)
	return rd, err
}

func (r repo) CreateRound(ctx context.Context, rd domino.Round) (string, error) {
	id := newID()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO rounds (id, game_id, round_index, spinner_value, shaker_player_id, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, rd.GameID, rd.RoundIndex, rd.SpinnerValue, rd.ShakerPlayerID, formatNullTime(rd.CompletedAt))
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r repo) DeleteRound(ctx context.Context, roundID string) error {
	return mustAffect(r.q.ExecContext(ctx, `DELETE FROM rounds WHERE id = ?`, roundID))
}

func (r repo) LatestRound(ctx context.Context, gameID string) (domino.Round, error) {
	rd, err := scanRound(r.q.QueryRowContext(ctx, `
		SELECT `+roundColumns+` FROM rounds
		WHERE game_id = ?
		ORDER BY round_index DESC
		LIMIT 1
	`, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return rd, domino.ErrNotFound
	}
	return rd, err
}

func (r repo) ListRounds(ctx context.Context, gameID string) ([]domino.Round, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+roundColumns+` FROM rounds
		WHERE game_id = ?
		ORDER BY round_index
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []domino.Round
	for rows.Next() {
		rd, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, rd)
	}
	return rounds, rows.Err()
}

// Round scores

func (r repo) SaveRoundScores(ctx context.Context, roundID string, scores []domino.RoundScore) error {
	for _, s := range scores {
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO round_scores (round_id, player_id, score) VALUES (?, ?, ?)
		`, roundID, s.PlayerID, s.Score)
		if err != nil {
			return fmt.Errorf("saving score for %s: %w", s.PlayerID, err)
		}
	}
	return nil
}

func (r repo) RoundScores(ctx context.Context, roundID string) ([]domino.RoundScore, error) {
	return r.queryScores(ctx, `
		SELECT round_id, player_id, score FROM round_scores WHERE round_id = ?
	`, roundID)
}

func (r repo) DeleteRoundScores(ctx context.Context, roundID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM round_scores WHERE round_id = ?`, roundID)
	return err
}

func (r repo) GameRoundScores(ctx context.Context, gameID string) ([]domino.RoundScore, error) {
	return r.queryScores(ctx, `
		SELECT rs.round_id, rs.player_id, rs.score
		FROM round_scores rs
		JOIN rounds r ON r.id = rs.round_id
		WHERE r.game_id = ?
		ORDER BY r.round_index
	`, gameID)
}

func (r repo) queryScores(ctx context.Context, query string, args ...any) ([]domino.RoundScore, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []domino.RoundScore
	for rows.Next() {
		var s domino.RoundScore
		if err := rows.Scan(&s.RoundID, &s.PlayerID, &s.Score); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

// Players

const playerColumns = `id, name, color, avatar, created_at`

func scanPlayer(row rowScanner) (domino.Player, error) {
	var (
		p         domino.Player
		createdAt string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Color, &p.Avatar, &createdAt); err != nil {
		return p, err
	}
	var err error
	p.CreatedAt, err = parseTime(createdAt)
	return p, err
}

func (r repo) CreatePlayer(ctx context.Context, p domino.Player) (string, error) {
	id := newID()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO players (id, name, color, avatar, created_at) VALUES (?, ?, ?, ?, ?)
	`, id, p.Name, p.Color, p.Avatar, formatTime(p.CreatedAt))
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r repo) GetPlayer(ctx context.Context, playerID string) (domino.Player, error) {
	p, err := scanPlayer(r.q.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = ?`, playerID))
	if errors.Is(err, sql.ErrNoRows) {
		return p, domino.ErrNotFound
	}
	return p, err
}

func (r repo) UpdatePlayer(ctx context.Context, p domino.Player) error {
	return mustAffect(r.q.ExecContext(ctx, `
		UPDATE players SET name = ?, color = ?, avatar = ? WHERE id = ?
	`, p.Name, p.Color, p.Avatar, p.ID))
}

func (r repo) DeletePlayer(ctx context.Context, playerID string) error {
	return mustAffect(r.q.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, playerID))
}

func (r repo) ListPlayers(ctx context.Context) ([]domino.Player, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []domino.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r repo) PlayerNameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM players WHERE name = ? AND id != ?
	`, name, excludeID).Scan(&count)
	return count > 0, err
}

func (r repo) PlayerHasGames(ctx context.Context, playerID string) (bool, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM game_players WHERE player_id = ?
	`, playerID).Scan(&count)
	return count > 0, err
}

func (r repo) PlayerResults(ctx context.Context, playerID string) ([]domino.GamePlayer, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT gp.game_id, gp.player_id, gp.seat_position, gp.total_score, gp.is_winner
		FROM game_players gp
		JOIN games g ON g.id = gp.game_id
		WHERE gp.player_id = ? AND g.status = 'completed'
		ORDER BY g.completed_at
	`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGamePlayers(rows)
}
