package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	engine := deps.Engine
	broker := deps.Broker
	auth := scorekeeperAuth(deps.ScorekeeperHash)

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Domino Score API", "/openapi.json", "/docs"))
	if deps.Health != nil {
		r.Mount("/healthz", deps.Health)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/sequence", handleSequence())
		r.Get("/stats", handleAllStats(engine, logger))

		r.Route("/players", func(r chi.Router) {
			r.Get("/", handleListPlayers(engine, logger))
			r.With(auth).Post("/", handleCreatePlayer(engine, logger))
			r.Get("/{id}", handleGetPlayer(engine, logger))
			r.With(auth).Put("/{id}", handleUpdatePlayer(engine, logger))
			r.With(auth).Delete("/{id}", handleDeletePlayer(engine, logger))
			r.Get("/{id}/stats", handlePlayerStats(engine, logger))
		})

		r.Route("/games", func(r chi.Router) {
			r.Get("/", handleListGames(engine, logger))
			r.With(auth).Post("/", handleCreateGame(engine, logger))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handleGetGame(engine, logger))
				r.Get("/events", handleEvents(engine, broker, logger))
				r.Get("/ws", handleWebSocket(engine, broker, logger))
				r.Get("/rounds/{index}", handleRoundPlan(engine, logger))

				r.Group(func(r chi.Router) {
					r.Use(auth)
					r.Delete("/", handleDeleteGame(engine, logger))
					r.Post("/pause", handlePauseGame(engine, logger))
					r.Post("/resume", handleResumeGame(engine, logger))
					r.Post("/rounds", handleSubmitRound(engine, logger))
					r.Delete("/rounds/latest", handleUndoRound(engine, logger))
				})
			})
		})
	})

	if deps.WebDir != "" {
		if info, err := os.Stat(deps.WebDir); err == nil && info.IsDir() {
			logger.Info("serving scoreboard", "dir", deps.WebDir)
			r.NotFound(handleScoreboard(deps.WebDir))
		} else {
			logger.Warn("scoreboard dir not found, serving API only", "dir", deps.WebDir)
		}
	}
}
