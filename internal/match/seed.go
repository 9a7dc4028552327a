package match

import (
	"context"
	"fmt"
)

// DemoRoster is the player list SeedDemo creates.
var DemoRoster = []PlayerInput{
	{Name: "Ana", Color: "#e63946", Avatar: 0},
	{Name: "Beto", Color: "#457b9d", Avatar: 1},
	{Name: "Caro", Color: "#2a9d8f", Avatar: 2},
	{Name: "Dani", Color: "#f4a261", Avatar: 3},
}

// SeedDemo creates the demo roster when no players exist yet. It reports
// how many players it created; zero means the roster was already populated.
func (e *Engine) SeedDemo(ctx context.Context) (int, error) {
	existing, err := e.store.ListPlayers(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing players: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for i, in := range DemoRoster {
		if _, err := e.CreatePlayer(ctx, in); err != nil {
			return i, fmt.Errorf("seeding %s: %w", in.Name, err)
		}
	}
	e.logger.Info("seeded demo roster", "players", len(DemoRoster))
	return len(DemoRoster), nil
}
