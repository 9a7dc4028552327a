package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func receive(t *testing.T, ch <-chan []byte) Event {
	t.Helper()
	select {
	case data := <-ch:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decoding event: %v", err)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestRedisRelayRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	local := NewBroker()
	ch := local.Subscribe("g1")
	relay := NewRedisRelay(rdb, local, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for mr.PubSubNumSub(Channel)[Channel] == 0 {
		if time.Now().After(deadline) {
			t.Fatal("relay never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	relay.Publish(Event{Type: TypeRoundSubmitted, GameID: "g1", RoundIndex: 2})

	ev := receive(t, ch)
	if ev.Type != TypeRoundSubmitted || ev.GameID != "g1" || ev.RoundIndex != 2 {
		t.Errorf("got %+v", ev)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil on cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRedisRelayForward(t *testing.T) {
	local := NewBroker()
	ch := local.Subscribe("g7")
	relay := NewRedisRelay(nil, local, discardLogger())

	msgs := make(chan *redis.Message, 3)
	msgs <- &redis.Message{Channel: Channel, Payload: "{broken"}
	msgs <- &redis.Message{Channel: Channel, Payload: `{"type":"game_paused","gameId":"g7"}`}
	msgs <- &redis.Message{Channel: Channel, Payload: `{"type":"game_paused","gameId":"other"}`}
	close(msgs)

	if err := relay.forward(context.Background(), msgs); err != nil {
		t.Fatalf("forward: %v", err)
	}

	if ev := receive(t, ch); ev.Type != TypeGamePaused || ev.GameID != "g7" {
		t.Errorf("got %+v", ev)
	}
	select {
	case data := <-ch:
		t.Errorf("unexpected extra event: %s", data)
	default:
	}
}
