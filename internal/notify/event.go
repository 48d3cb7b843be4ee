// Package notify delivers catalog change events to live subscribers.
package notify

import (
	"context"
	"time"
)

// TopicBooks receives every catalog event.
const TopicBooks = "books"

type EventType string

const (
	BookUpdate  EventType = "book_update"
	GenreUpdate EventType = "genre_update"
)

type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Event struct {
	Type      EventType `json:"type"`
	Action    Action    `json:"action"`
	Entity    string    `json:"entity"`
	ID        uint      `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func BookEvent(action Action, id uint, at time.Time) Event {
	return Event{Type: BookUpdate, Action: action, Entity: "book", ID: id, Timestamp: at.UTC()}
}

func GenreEvent(action Action, id uint, at time.Time) Event {
	return Event{Type: GenreUpdate, Action: action, Entity: "genre", ID: id, Timestamp: at.UTC()}
}

// Publisher delivers an event without blocking the caller on slow consumers.
// Delivery failures are logged, never returned.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Fanout publishes every event to each of its publishers in order.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev Event) {
	for _, p := range f {
		if p != nil {
			p.Publish(ctx, ev)
		}
	}
}
