// Package events fans out game state changes to live subscribers.
package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	TypeGameCreated    = "game_created"
	TypeRoundSubmitted = "round_submitted"
	TypeRoundUndone    = "round_undone"
	TypeGamePaused     = "game_paused"
	TypeGameResumed    = "game_resumed"
	TypeGameCompleted  = "game_completed"
	TypeGameDeleted    = "game_deleted"
)

// Event is the payload published to a game's subscribers.
type Event struct {
	Type           string    `json:"type"`
	GameID         string    `json:"gameId"`
	RoundIndex     int       `json:"roundIndex"`
	WinnerPlayerID string    `json:"winnerPlayerId,omitempty"`
	At             time.Time `json:"at"`
}

// Broker is an in-process pub/sub for game events, keyed by game ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the given game.
func (b *Broker) Subscribe(gameID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[gameID] == nil {
		b.subs[gameID] = make(map[chan []byte]struct{})
	}
	b.subs[gameID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the game's subscribers.
func (b *Broker) Unsubscribe(gameID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[gameID], ch)
	if len(b.subs[gameID]) == 0 {
		delete(b.subs, gameID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of ev.GameID.
func (b *Broker) Publish(ev Event) {
	data, _ := json.Marshal(ev)
	b.deliver(ev.GameID, data)
}

func (b *Broker) deliver(gameID string, data []byte) {
	b.mu.RLock()
	for ch := range b.subs[gameID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

// Subscribers reports how many channels are listening on gameID.
func (b *Broker) Subscribers(gameID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[gameID])
}
