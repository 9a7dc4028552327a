package match

import (
	"context"

	"github.com/playperu/dominoscore/internal/domino"
	"github.com/playperu/dominoscore/internal/events"
)

// Repo is the set of reads and writes the engine performs against storage.
// Single-row lookups return domino.ErrNotFound when nothing matches.
type Repo interface {
	CreateGame(ctx context.Context, g domino.Game, seatedPlayerIDs []string) (string, error)
	GetGame(ctx context.Context, gameID string) (domino.Game, error)
	UpdateGame(ctx context.Context, g domino.Game) error
	DeleteGame(ctx context.Context, gameID string) error
	ListGames(ctx context.Context, statuses ...domino.GameStatus) ([]domino.Game, error)

	// SeatedPlayers returns the game's seats ordered by seat position.
	SeatedPlayers(ctx context.Context, gameID string) ([]domino.GamePlayer, error)
	AdjustPlayerScore(ctx context.Context, gameID, playerID string, delta int) error
	SetPlayerWinner(ctx context.Context, gameID, playerID string, isWinner bool) error

	CreateRound(ctx context.Context, r domino.Round) (string, error)
	DeleteRound(ctx context.Context, roundID string) error
	LatestRound(ctx context.Context, gameID string) (domino.Round, error)
	ListRounds(ctx context.Context, gameID string) ([]domino.Round, error)

	SaveRoundScores(ctx context.Context, roundID string, scores []domino.RoundScore) error
	RoundScores(ctx context.Context, roundID string) ([]domino.RoundScore, error)
	DeleteRoundScores(ctx context.Context, roundID string) error
	GameRoundScores(ctx context.Context, gameID string) ([]domino.RoundScore, error)

	CreatePlayer(ctx context.Context, p domino.Player) (string, error)
	GetPlayer(ctx context.Context, playerID string) (domino.Player, error)
	UpdatePlayer(ctx context.Context, p domino.Player) error
	DeletePlayer(ctx context.Context, playerID string) error
	ListPlayers(ctx context.Context) ([]domino.Player, error)
	PlayerNameTaken(ctx context.Context, name, excludeID string) (bool, error)
	PlayerHasGames(ctx context.Context, playerID string) (bool, error)
	// PlayerResults returns the player's seats in completed games.
	PlayerResults(ctx context.Context, playerID string) ([]domino.GamePlayer, error)
}

// Store is a Repo that can run several writes as one all-or-nothing unit.
// If fn returns an error every write made through r is discarded.
type Store interface {
	Repo
	Atomic(ctx context.Context, fn func(ctx context.Context, r Repo) error) error
}

// Publisher receives game events once the change that produced them is
// committed.
type Publisher interface {
	Publish(ev events.Event)
}

type discardPublisher struct{}

func (discardPublisher) Publish(events.Event) {}
