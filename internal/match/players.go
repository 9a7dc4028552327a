package match

import (
	"context"
	"fmt"
	"strings"

	"github.com/playperu/dominoscore/internal/domino"
)

// PlayerInput carries the editable fields of a player.
type PlayerInput struct {
	Name   string
	Color  string
	Avatar int
}

func (e *Engine) CreatePlayer(ctx context.Context, in PlayerInput) (domino.Player, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return domino.Player{}, err
	}
	p := domino.Player{
		Name:      name,
		Color:     in.Color,
		Avatar:    in.Avatar,
		CreatedAt: e.now(),
	}

	err = e.store.Atomic(ctx, func(ctx context.Context, r Repo) error {
		if err := ensureNameFree(ctx, r, name, ""); err != nil {
			return err
		}
		id, err := r.CreatePlayer(ctx, p)
		if err != nil {
			return fmt.Errorf("creating player: %w", err)
		}
		p.ID = id
		return nil
	})
	if err != nil {
		return domino.Player{}, err
	}
	e.logger.Info("player created", "player_id", p.ID)
	return p, nil
}

func (e *Engine) UpdatePlayer(ctx context.Context, playerID string, in PlayerInput) (domino.Player, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return domino.Player{}, err
	}

	var p domino.Player
	err = e.store.Atomic(ctx, func(ctx context.Context, r Repo) error {
		existing, err := r.GetPlayer(ctx, playerID)
		if err != nil {
			return err
		}
		if err := ensureNameFree(ctx, r, name, playerID); err != nil {
			return err
		}
		existing.Name = name
		existing.Color = in.Color
		existing.Avatar = in.Avatar
		p = existing
		return r.UpdatePlayer(ctx, p)
	})
	if err != nil {
		return domino.Player{}, err
	}
	return p, nil
}

func (e *Engine) GetPlayer(ctx context.Context, playerID string) (domino.Player, error) {
	return e.store.GetPlayer(ctx, playerID)
}

// ListPlayers returns all players ordered by name.
func (e *Engine) ListPlayers(ctx context.Context) ([]domino.Player, error) {
	return e.store.ListPlayers(ctx)
}

// DeletePlayer removes a player who is not seated in any game.
func (e *Engine) DeletePlayer(ctx context.Context, playerID string) error {
	return e.store.Atomic(ctx, func(ctx context.Context, r Repo) error {
		if _, err := r.GetPlayer(ctx, playerID); err != nil {
			return err
		}
		seated, err := r.PlayerHasGames(ctx, playerID)
		if err != nil {
			return err
		}
		if seated {
			return domino.ErrPlayerInUse
		}
		return r.DeletePlayer(ctx, playerID)
	})
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", domino.ErrInvalid)
	}
	return name, nil
}

func ensureNameFree(ctx context.Context, r Repo, name, excludeID string) error {
	taken, err := r.PlayerNameTaken(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("checking name: %w", err)
	}
	if taken {
		return fmt.Errorf("%w: %q", domino.ErrNameTaken, name)
	}
	return nil
}
