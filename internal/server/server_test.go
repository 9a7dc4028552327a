package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/playperu/dominoscore/internal/database"
	"github.com/playperu/dominoscore/internal/domino"
	"github.com/playperu/dominoscore/internal/events"
	"github.com/playperu/dominoscore/internal/handler/health"
	"github.com/playperu/dominoscore/internal/match"
	"github.com/playperu/dominoscore/internal/migrations"
	"github.com/playperu/dominoscore/internal/store"
)

type testApp struct {
	router http.Handler
	engine *match.Engine
	broker *events.Broker
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(t *testing.T, mutate ...func(*Deps)) testApp {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(context.Background(), db); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	logger := quietLogger()
	broker := events.NewBroker()
	engine := match.NewEngine(store.New(db), broker, logger)

	deps := Deps{
		Engine: engine,
		Broker: broker,
		Health: health.NewHandler(logger, health.Dependency{
			Name:    "sqlite",
			Checker: health.CheckerFunc(db.PingContext),
		}).Routes(),
	}
	for _, m := range mutate {
		m(&deps)
	}
	return testApp{router: newRouter(logger, deps), engine: engine, broker: broker}
}

// do sends a request with an optional JSON body and returns the recorder.
func (a testApp) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
	return v
}

func (a testApp) createPlayers(t *testing.T, names ...string) []string {
	t.Helper()
	ids := make([]string, len(names))
	for i, n := range names {
		w := a.do(t, http.MethodPost, "/api/players", PlayerRequest{Name: n, Color: "#336699"})
		if w.Code != http.StatusCreated {
			t.Fatalf("create player %s: %d %s", n, w.Code, w.Body.String())
		}
		ids[i] = decodeBody[PlayerResponse](t, w).ID
	}
	return ids
}

func (a testApp) createGame(t *testing.T, playerIDs []string) GameDetail {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/games", CreateGameRequest{PlayerIDs: playerIDs})
	if w.Code != http.StatusCreated {
		t.Fatalf("create game: %d %s", w.Code, w.Body.String())
	}
	return decodeBody[GameDetail](t, w)
}

func intPtr(v int) *int { return &v }

func TestHealthz(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody[HealthResponse](t, w)
	if body.Status != "ok" || body.Checks["sqlite"].Status != "ok" {
		t.Errorf("health = %+v", body)
	}
}

func TestUnknownAPIRoute(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/api/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestWriteEngineErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("%w: bad round", domino.ErrInvalid), want: http.StatusBadRequest},
		{err: fmt.Errorf("player x: %w", domino.ErrNotFound), want: http.StatusNotFound},
		{err: fmt.Errorf("%w: game is paused", domino.ErrConflict), want: http.StatusConflict},
		{err: domino.ErrNameTaken, want: http.StatusConflict},
		{err: domino.ErrPlayerInUse, want: http.StatusConflict},
		{err: io.ErrUnexpectedEOF, want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			writeEngineError(w, quietLogger(), tt.err)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			body := decodeBody[ErrorResponse](t, w)
			if body.Error == "" {
				t.Error("empty error message")
			}
			if tt.want == http.StatusInternalServerError && body.Error != "internal error" {
				t.Errorf("500 leaked %q", body.Error)
			}
		})
	}
}
