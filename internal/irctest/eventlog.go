package irctest

import (
	"sync"

	"github.com/hearthlink/irc"
)

// An EventLog records every event it receives, for asserting on notification
// order and content after a scripted interaction.
type EventLog struct {
	mu     sync.Mutex
	events []irc.Event
}

// Handler is subscribed to the kinds under test.
func (l *EventLog) Handler(_ *irc.Connection, event *irc.Event) {
	l.mu.Lock()
	l.events = append(l.events, *event)
	l.mu.Unlock()
}

// First returns the first recorded event of a kind, or nil.
func (l *EventLog) First(kind irc.EventKind) *irc.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.events {
		if l.events[i].Kind == kind {
			return &l.events[i]
		}
	}

	return nil
}

// Last returns the last recorded event of a kind, or nil.
func (l *EventLog) Last(kind irc.EventKind) *irc.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Kind == kind {
			return &l.events[i]
		}
	}

	return nil
}

// Count returns how many events of a kind were recorded.
func (l *EventLog) Count(kind irc.EventKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for i := range l.events {
		if l.events[i].Kind == kind {
			n++
		}
	}

	return n
}
