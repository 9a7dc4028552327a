package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/dominoscore/internal/domino"
	"github.com/playperu/dominoscore/internal/match"
)

// CreateGameRequest lists the players in seat order.
type CreateGameRequest struct {
	PlayerIDs []string `json:"playerIds" validate:"required,min=2,max=8,unique,dive,required"`
}

// GameSummary is a game without its seats and rounds.
type GameSummary struct {
	ID                string     `json:"id"`
	Status            string     `json:"status" enum:"active,paused,completed"`
	CurrentRoundIndex int        `json:"currentRoundIndex"`
	CompletedRounds   int        `json:"completedRounds"`
	TotalRounds       int        `json:"totalRounds"`
	CreatedAt         time.Time  `json:"createdAt"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	WinnerPlayerID    string     `json:"winnerPlayerId,omitempty"`
}

func toGameSummary(g domino.Game) GameSummary {
	return GameSummary{
		ID:                g.ID,
		Status:            g.Status.String(),
		CurrentRoundIndex: g.CurrentRoundIndex,
		CompletedRounds:   g.CompletedRounds(),
		TotalRounds:       domino.TotalRounds,
		CreatedAt:         g.CreatedAt,
		CompletedAt:       g.CompletedAt,
		WinnerPlayerID:    g.WinnerPlayerID,
	}
}

type SeatResponse struct {
	Player       PlayerResponse `json:"player"`
	SeatPosition int            `json:"seatPosition"`
	TotalScore   int            `json:"totalScore"`
	IsWinner     bool           `json:"isWinner"`
	Rank         int            `json:"rank"`
}

type RoundPlanResponse struct {
	RoundIndex     int    `json:"roundIndex"`
	Label          string `json:"label"`
	SpinnerValue   int    `json:"spinnerValue"`
	ShakerSeat     int    `json:"shakerSeat"`
	ShakerPlayerID string `json:"shakerPlayerId"`
}

type RoundResultResponse struct {
	RoundPlanResponse
	RoundID     string         `json:"roundId"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	Scores      map[string]int `json:"scores"`
}

// GameDetail is the full view of one game.
type GameDetail struct {
	GameSummary
	Seats        []SeatResponse        `json:"seats"`
	Standings    []SeatResponse        `json:"standings"`
	CurrentRound *RoundPlanResponse    `json:"currentRound,omitempty"`
	Rounds       []RoundResultResponse `json:"rounds"`
}

func toRoundPlanResponse(p match.RoundPlan) RoundPlanResponse {
	return RoundPlanResponse{
		RoundIndex:     p.RoundIndex,
		Label:          p.Label,
		SpinnerValue:   p.SpinnerValue,
		ShakerSeat:     p.ShakerSeat,
		ShakerPlayerID: p.ShakerPlayerID,
	}
}

func toSeatResponses(seats []match.Seat) []SeatResponse {
	out := make([]SeatResponse, len(seats))
	for i, s := range seats {
		out[i] = SeatResponse{
			Player:       toPlayerResponse(s.Player),
			SeatPosition: s.SeatPosition,
			TotalScore:   s.TotalScore,
			IsWinner:     s.IsWinner,
			Rank:         s.Rank,
		}
	}
	return out
}

func toGameDetail(s match.Snapshot) GameDetail {
	d := GameDetail{
		GameSummary: toGameSummary(s.Game),
		Seats:       toSeatResponses(s.Seats),
		Standings:   toSeatResponses(s.Standings),
		Rounds:      make([]RoundResultResponse, len(s.Rounds)),
	}
	if s.CurrentRound != nil {
		p := toRoundPlanResponse(*s.CurrentRound)
		d.CurrentRound = &p
	}
	for i, rr := range s.Rounds {
		d.Rounds[i] = RoundResultResponse{
			RoundPlanResponse: toRoundPlanResponse(rr.RoundPlan),
			RoundID:           rr.RoundID,
			CompletedAt:       rr.CompletedAt,
			Scores:            rr.Scores,
		}
	}
	return d
}

// writeSnapshot loads the game's current view and writes it with status.
func writeSnapshot(w http.ResponseWriter, r *http.Request, engine *match.Engine, logger *slog.Logger, gameID string, status int) {
	snap, err := engine.Snapshot(r.Context(), gameID)
	if err != nil {
		writeEngineError(w, logger, err)
		return
	}
	writeJSON(w, status, toGameDetail(snap))
}

func handleListGames(engine *match.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := match.GameFilter(r.URL.Query().Get("status"))
		games, err := engine.ListGames(r.Context(), filter)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}
		resp := make([]GameSummary, len(games))
		for i, g := range games {
			resp[i] = toGameSummary(g)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleCreateGame(engine *match.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateGameRequest
		if !decode(w, r, &req) {
			return
		}
		g, err := engine.CreateGame(r.Context(), req.PlayerIDs)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}
		writeSnapshot(w, r, engine, logger, g.ID, http.StatusCreated)
	}
}

func handleGetGame(engine *match.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeSnapshot(w, r, engine, logger, chi.URLParam(r, "id"), http.StatusOK)
	}
}

func handleDeleteGame(engine *match.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := engine.DeleteGame(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeEngineError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handlePauseGame(engine *match.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := engine.PauseGame(r.Context(), id); err != nil {
			writeEngineError(w, logger, err)
			return
		}
		writeSnapshot(w, r, engine, logger, id, http.StatusOK)
	}
}

func handleResumeGame(engine *match.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := engine.ResumeGame(r.Context(), id); err != nil {
			writeEngineError(w, logger, err)
			return
		}
		writeSnapshot(w, r, engine, logger, id, http.StatusOK)
	}
}
