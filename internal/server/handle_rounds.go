package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/dominoscore/internal/domino"
	"github.com/playperu/dominoscore/internal/match"
)

// SubmitRoundRequest carries one score per seated player, keyed by player ID.
type SubmitRoundRequest struct {
	RoundIndex *int           `json:"roundIndex" validate:"required,gte=0"`
	Scores     map[string]int `json:"scores" validate:"required,min=2,max=8,dive,gte=0,lte=999"`
}

type SubmitRoundResponse struct {
	Completed bool       `json:"completed"`
	Game      GameDetail `json:"game"`
}

type SequenceRound struct {
	RoundIndex   int    `json:"roundIndex"`
	Label        string `json:"label"`
	SpinnerValue int    `json:"spinnerValue"`
}

type SequenceResponse struct {
	TotalRounds int             `json:"totalRounds"`
	MinPlayers  int             `json:"minPlayers"`
	MaxPlayers  int             `json:"maxPlayers"`
	Rounds      []SequenceRound `json:"rounds"`
}

func handleSequence() http.HandlerFunc {
	resp := SequenceResponse{
		TotalRounds: domino.TotalRounds,
		MinPlayers:  domino.MinPlayers,
		MaxPlayers:  domino.MaxPlayers,
		Rounds:      make([]SequenceRound, domino.TotalRounds),
	}
	for i := range resp.Rounds {
		resp.Rounds[i] = SequenceRound{
			RoundIndex:   i,
			Label:        domino.RoundLabel(i),
			SpinnerValue: domino.SpinnerValue(i),
		}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleSubmitRound(engine *match.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitRoundRequest
		if !decode(w, r, &req) {
			return
		}
		id := chi.URLParam(r, "id")
		completed, err := engine.SubmitRound(r.Context(), id, *req.RoundIndex, req.Scores)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}
		snap, err := engine.Snapshot(r.Context(), id)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, SubmitRoundResponse{Completed: completed, Game: toGameDetail(snap)})
	}
}

func handleUndoRound(engine *match.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		undone, err := engine.UndoLastRound(r.Context(), id)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}
		if !undone {
			writeError(w, http.StatusConflict, "no rounds to undo")
			return
		}
		writeSnapshot(w, r, engine, logger, id, http.StatusOK)
	}
}

func handleRoundPlan(engine *match.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "round index must be a number")
			return
		}
		plan, err := engine.RoundPlan(r.Context(), chi.URLParam(r, "id"), idx)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toRoundPlanResponse(plan))
	}
}
