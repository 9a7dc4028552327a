package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse documents the /healthz body.
type HealthResponse struct {
	Status string `json:"status" enum:"ok,degraded,error"`
	Checks map[string]struct {
		Status    string `json:"status" enum:"ok,error"`
		LatencyMS int64  `json:"latencyMs"`
	} `json:"checks"`
}

type idPath struct {
	ID string `path:"id"`
}

type roundPath struct {
	ID    string `path:"id"`
	Index int    `path:"index" minimum:"0" maximum:"13"`
}

type listGamesQuery struct {
	Status string `query:"status" enum:"active,completed" description:"active covers active and paused games."`
}

type operation struct {
	method, path, summary, description string
	req                                []any
	resp                               []opResponse
}

type opResponse struct {
	body        any
	status      int
	contentType string
}

func respOK(body any) opResponse { return opResponse{body: body, status: http.StatusOK} }
func respCreated(body any) opResponse { return opResponse{body: body, status: http.StatusCreated} }
func respError(status int) opResponse { return opResponse{body: ErrorResponse{}, status: status} }

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Domino Score API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Scorekeeping for 14-round spinner domino matches.")

	mutating := "Requires scorekeeper Basic auth when a password is configured."

	ops := []operation{
		{
			method:      http.MethodGet,
			path:        "/healthz",
			summary:     "Health check",
			description: "Returns the health status of backend dependencies.",
			resp:        []opResponse{respOK(HealthResponse{}), {body: HealthResponse{}, status: http.StatusServiceUnavailable}},
		},
		{
			method:      http.MethodGet,
			path:        "/api/sequence",
			summary:     "Round sequence",
			description: "The fixed spinner sequence with round labels.",
			resp:        []opResponse{respOK(SequenceResponse{})},
		},
		{
			method:      http.MethodGet,
			path:        "/api/players",
			summary:     "List players",
			description: "All players ordered by name.",
			resp:        []opResponse{respOK([]PlayerResponse{})},
		},
		{
			method:      http.MethodPost,
			path:        "/api/players",
			summary:     "Create player",
			description: "Names are trimmed and must be unique. " + mutating,
			req:         []any{PlayerRequest{}},
			resp:        []opResponse{respCreated(PlayerResponse{}), respError(http.StatusBadRequest), respError(http.StatusConflict)},
		},
		{
			method:      http.MethodGet,
			path:        "/api/players/{id}",
			summary:     "Get player",
			description: "Returns one player.",
			req:         []any{idPath{}},
			resp:        []opResponse{respOK(PlayerResponse{}), respError(http.StatusNotFound)},
		},
		{
			method:      http.MethodPut,
			path:        "/api/players/{id}",
			summary:     "Update player",
			description: "Replaces name, color and avatar. " + mutating,
			req:         []any{idPath{}, PlayerRequest{}},
			resp:        []opResponse{respOK(PlayerResponse{}), respError(http.StatusBadRequest), respError(http.StatusNotFound), respError(http.StatusConflict)},
		},
		{
			method:      http.MethodDelete,
			path:        "/api/players/{id}",
			summary:     "Delete player",
			description: "Players seated in any game cannot be deleted. " + mutating,
			req:         []any{idPath{}},
			resp:        []opResponse{{status: http.StatusNoContent}, respError(http.StatusNotFound), respError(http.StatusConflict)},
		},
		{
			method:      http.MethodGet,
			path:        "/api/players/{id}/stats",
			summary:     "Player statistics",
			description: "Computed over completed games.",
			req:         []any{idPath{}},
			resp:        []opResponse{respOK(PlayerStatsResponse{}), respError(http.StatusNotFound)},
		},
		{
			method:      http.MethodGet,
			path:        "/api/stats",
			summary:     "All player statistics",
			description: "Statistics for every player, ordered by name.",
			resp:        []opResponse{respOK([]PlayerStatsResponse{})},
		},
		{
			method:      http.MethodGet,
			path:        "/api/games",
			summary:     "List games",
			description: "Newest first.",
			req:         []any{listGamesQuery{}},
			resp:        []opResponse{respOK([]GameSummary{}), respError(http.StatusBadRequest)},
		},
		{
			method:      http.MethodPost,
			path:        "/api/games",
			summary:     "Create game",
			description: "Seats 2 to 8 players in list order. " + mutating,
			req:         []any{CreateGameRequest{}},
			resp:        []opResponse{respCreated(GameDetail{}), respError(http.StatusBadRequest), respError(http.StatusNotFound)},
		},
		{
			method:      http.MethodGet,
			path:        "/api/games/{id}",
			summary:     "Get game",
			description: "Seats, standings, current round and history.",
			req:         []any{idPath{}},
			resp:        []opResponse{respOK(GameDetail{}), respError(http.StatusNotFound)},
		},
		{
			method:      http.MethodDelete,
			path:        "/api/games/{id}",
			summary:     "Delete game",
			description: "Removes the game with its rounds and scores. " + mutating,
			req:         []any{idPath{}},
			resp:        []opResponse{{status: http.StatusNoContent}, respError(http.StatusNotFound)},
		},
		{
			method:      http.MethodPost,
			path:        "/api/games/{id}/pause",
			summary:     "Pause game",
			description: "Active games only. " + mutating,
			req:         []any{idPath{}},
			resp:        []opResponse{respOK(GameDetail{}), respError(http.StatusNotFound), respError(http.StatusConflict)},
		},
		{
			method:      http.MethodPost,
			path:        "/api/games/{id}/resume",
			summary:     "Resume game",
			description: "Paused games only. " + mutating,
			req:         []any{idPath{}},
			resp:        []opResponse{respOK(GameDetail{}), respError(http.StatusNotFound), respError(http.StatusConflict)},
		},
		{
			method:      http.MethodPost,
			path:        "/api/games/{id}/rounds",
			summary:     "Submit round",
			description: "Records one score per seated player for the current round. " + mutating,
			req:         []any{idPath{}, SubmitRoundRequest{}},
			resp:        []opResponse{respCreated(SubmitRoundResponse{}), respError(http.StatusBadRequest), respError(http.StatusNotFound), respError(http.StatusConflict)},
		},
		{
			method:      http.MethodDelete,
			path:        "/api/games/{id}/rounds/latest",
			summary:     "Undo last round",
			description: "Reverses the most recent round. Reopens a completed game. " + mutating,
			req:         []any{idPath{}},
			resp:        []opResponse{respOK(GameDetail{}), respError(http.StatusNotFound), respError(http.StatusConflict)},
		},
		{
			method:      http.MethodGet,
			path:        "/api/games/{id}/rounds/{index}",
			summary:     "Round plan",
			description: "Spinner and shaker for a played or current round.",
			req:         []any{roundPath{}},
			resp:        []opResponse{respOK(RoundPlanResponse{}), respError(http.StatusBadRequest), respError(http.StatusNotFound)},
		},
		{
			method:      http.MethodGet,
			path:        "/api/games/{id}/events",
			summary:     "SSE event stream",
			description: "Server-Sent Events for live score updates.",
			req:         []any{idPath{}},
			resp:        []opResponse{{status: http.StatusOK, contentType: "text/event-stream"}, respError(http.StatusNotFound)},
		},
		{
			method:      http.MethodGet,
			path:        "/api/games/{id}/ws",
			summary:     "WebSocket event stream",
			description: "Same events as the SSE stream over a WebSocket.",
			req:         []any{idPath{}},
			resp:        []opResponse{{status: http.StatusSwitchingProtocols, contentType: "text/plain"}, respError(http.StatusNotFound)},
		},
	}

	for _, op := range ops {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		for _, req := range op.req {
			oc.AddReqStructure(req)
		}
		for _, resp := range op.resp {
			opts := []openapi.ContentOption{openapi.WithHTTPStatus(resp.status)}
			if resp.contentType != "" {
				opts = append(opts, openapi.WithContentType(resp.contentType))
			}
			oc.AddRespStructure(resp.body, opts...)
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
