package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/dominoscore/internal/domino"
	"github.com/playperu/dominoscore/internal/match"
)

// PlayerRequest is the request body for creating or updating a player.
type PlayerRequest struct {
	Name   string `json:"name" validate:"required,max=40"`
	Color  string `json:"color" validate:"omitempty,hexcolor"`
	Avatar int    `json:"avatar" validate:"gte=0,lte=63"`
}

func (p PlayerRequest) input() match.PlayerInput {
	return match.PlayerInput{Name: p.Name, Color: p.Color, Avatar: p.Avatar}
}

// PlayerResponse is a player as returned by the API.
type PlayerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Avatar    int       `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

func toPlayerResponse(p domino.Player) PlayerResponse {
	return PlayerResponse{
		ID:        p.ID,
		Name:      p.Name,
		Color:     p.Color,
		Avatar:    p.Avatar,
		CreatedAt: p.CreatedAt,
	}
}

// PlayerStatsResponse summarizes a player's completed games.
type PlayerStatsResponse struct {
	Player       PlayerResponse `json:"player"`
	GamesPlayed  int            `json:"gamesPlayed"`
	GamesWon     int            `json:"gamesWon"`
	TotalScore   int            `json:"totalScore"`
	AverageScore float64        `json:"averageScore"`
	BestScore    int            `json:"bestScore"`
	WinRate      float64        `json:"winRate"`
}

func toStatsResponse(s match.PlayerStats) PlayerStatsResponse {
	return PlayerStatsResponse{
		Player:       toPlayerResponse(s.Player),
		GamesPlayed:  s.GamesPlayed,
		GamesWon:     s.GamesWon,
		TotalScore:   s.TotalScore,
		AverageScore: s.AverageScore,
		BestScore:    s.BestScore,
		WinRate:      s.WinRate,
	}
}

func handleListPlayers(engine *match.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := engine.ListPlayers(r.Context())
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}
		resp := make([]PlayerResponse, len(players))
		for i, p := range players {
			resp[i] = toPlayerResponse(p)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleCreatePlayer(engine *match.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayerRequest
		if !decode(w, r, &req) {
			return
		}
		p, err := engine.CreatePlayer(r.Context(), req.input())
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPlayerResponse(p))
	}
}

func handleGetPlayer(engine *match.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := engine.GetPlayer(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlayerResponse(p))
	}
}

func handleUpdatePlayer(engine *match.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayerRequest
		if !decode(w, r, &req) {
			return
		}
		p, err := engine.UpdatePlayer(r.Context(), chi.URLParam(r, "id"), req.input())
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlayerResponse(p))
	}
}

func handleDeletePlayer(engine *match.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := engine.DeletePlayer(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeEngineError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handlePlayerStats(engine *match.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := engine.PlayerStats(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toStatsResponse(st))
	}
}

func handleAllStats(engine *match.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := engine.AllPlayerStats(r.Context())
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}
		resp := make([]PlayerStatsResponse, len(all))
		for i, st := range all {
			resp[i] = toStatsResponse(st)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
