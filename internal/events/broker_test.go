package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("g1")
	other := b.Subscribe("g2")

	b.Publish(Event{Type: TypeRoundSubmitted, GameID: "g1", RoundIndex: 3})

	select {
	case data := <-ch:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decoding event: %v", err)
		}
		if ev.Type != TypeRoundSubmitted || ev.RoundIndex != 3 {
			t.Errorf("got %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case data := <-other:
		t.Fatalf("unexpected event on other game: %s", data)
	default:
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("g1")
	if n := b.Subscribers("g1"); n != 1 {
		t.Fatalf("subscribers = %d, want 1", n)
	}

	b.Unsubscribe("g1", ch)
	if n := b.Subscribers("g1"); n != 0 {
		t.Fatalf("subscribers = %d, want 0", n)
	}

	// Publishing with no subscribers must not block.
	b.Publish(Event{Type: TypeGamePaused, GameID: "g1"})
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("g1")

	for i := 0; i < 32; i++ {
		b.Publish(Event{Type: TypeRoundSubmitted, GameID: "g1", RoundIndex: i})
	}
	if got := len(ch); got != cap(ch) {
		t.Errorf("buffered = %d, want %d", got, cap(ch))
	}
}

func TestRedisRelayFallsBackToLocal(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         "localhost:1",
		DialTimeout:  10 * time.Millisecond,
		ReadTimeout:  10 * time.Millisecond,
		WriteTimeout: 10 * time.Millisecond,
		MaxRetries:   0,
	})
	defer rdb.Close()

	local := NewBroker()
	ch := local.Subscribe("g1")
	relay := NewRedisRelay(rdb, local, slog.New(slog.NewTextHandler(io.Discard, nil)))

	relay.Publish(Event{Type: TypeGameResumed, GameID: "g1"})

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected local delivery when redis is down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := relay.Run(ctx); err == nil {
		t.Error("expected Run to fail against unreachable redis")
	}
}
