package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/playperu/dominoscore/internal/events"
	"github.com/playperu/dominoscore/internal/match"
)

const (
	livePingInterval = 30 * time.Second
	wsWriteTimeout   = 5 * time.Second
)

// handleEvents streams a game's events as Server-Sent Events.
func handleEvents(engine *match.Engine, broker *events.Broker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "id")
		if _, err := engine.GetGame(r.Context(), gameID); err != nil {
			writeEngineError(w, logger, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		// Subscribe before the headers go out so a connected client
		// never misses an event.
		ch := broker.Subscribe(gameID)
		defer broker.Unsubscribe(gameID, ch)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		ping := time.NewTicker(livePingInterval)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-ch:
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType(data), data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}

func eventType(data []byte) string {
	var ev struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &ev); err != nil || ev.Type == "" {
		return "message"
	}
	return ev.Type
}

// handleWebSocket pushes a game's events to a WebSocket client. Anything the
// client sends is ignored.
func handleWebSocket(engine *match.Engine, broker *events.Broker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "id")
		if _, err := engine.GetGame(r.Context(), gameID); err != nil {
			writeEngineError(w, logger, err)
			return
		}

		ch := broker.Subscribe(gameID)
		defer broker.Unsubscribe(gameID, ch)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx := conn.CloseRead(r.Context())

		ping := time.NewTicker(livePingInterval)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Debug("websocket closed", "game_id", gameID)
				return
			case data := <-ch:
				if err := writeTimeout(ctx, conn, data); err != nil {
					logger.Debug("websocket write failed", "game_id", gameID, "error", err)
					return
				}
			case <-ping.C:
				pctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
				err := conn.Ping(pctx)
				cancel()
				if err != nil {
					logger.Debug("websocket ping failed", "game_id", gameID, "error", err)
					return
				}
			}
		}
	}
}

func writeTimeout(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
