// Package domino defines the core domain types of the score tracker and the
// fixed round sequence of a match. It has zero external dependencies.
package domino

import (
	"fmt"
	"time"
)

type Player struct {
	ID        string
	Name      string
	Color     string
	Avatar    int
	CreatedAt time.Time
}

type Game struct {
	ID                string
	Status            GameStatus
	CurrentRoundIndex int
	CreatedAt         time.Time
	CompletedAt       *time.Time
	// WinnerPlayerID is set iff Status is GameStatusCompleted.
	WinnerPlayerID string
}

// CompletedRounds is the number of fully submitted rounds.
func (g Game) CompletedRounds() int { return g.CurrentRoundIndex }

// GamePlayer is a player's seat in a game.
type GamePlayer struct {
	GameID       string
	PlayerID     string
	SeatPosition int
	TotalScore   int
	IsWinner     bool
}

type Round struct {
	ID             string
	GameID         string
	RoundIndex     int
	SpinnerValue   int
	ShakerPlayerID string
	CompletedAt    *time.Time
}

// RoundScore is the points one player took in one round. Zero marks the
// player who went out.
type RoundScore struct {
	RoundID  string
	PlayerID string
	Score    int
}

type GameStatus string

const (
	GameStatusActive    GameStatus = "active"
	GameStatusPaused    GameStatus = "paused"
	GameStatusCompleted GameStatus = "completed"
)

// ParseGameStatus converts persisted text into a GameStatus. Unknown values
// are an error rather than a silent default.
func ParseGameStatus(s string) (GameStatus, error) {
	switch st := GameStatus(s); st {
	case GameStatusActive, GameStatusPaused, GameStatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown game status %q", s)
}

func (s GameStatus) String() string { return string(s) }
