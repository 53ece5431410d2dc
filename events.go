package irc

import (
	"fmt"
	"sync"
	"time"
)

// An EventKind names one of the notification channels a Connection exposes.
type EventKind string

// Event kinds raised by the core. The per-line kinds are raised after the
// membership and capability state for that line has been updated, so a
// subscriber always observes post-update state.
const (
	// EventConnect is raised by the 001 welcome numeric, after the
	// membership store has been cleared for the fresh session.
	EventConnect EventKind = "connect"

	// EventDisconnect is raised once per teardown of a live connection,
	// whether caller-initiated, timeout-forced or server-closed.
	EventDisconnect EventKind = "disconnect"

	// EventTimeout is raised when the timeout detector forces a disconnect.
	EventTimeout EventKind = "timeout"

	// EventError carries a contained failure: transport errors, failing
	// filters, and panicking subscribers all end up here.
	EventError EventKind = "error"

	// EventRaw is raised last for every filtered inbound line.
	EventRaw EventKind = "raw"

	EventPing        EventKind = "ping"
	EventServerError EventKind = "server-error"
	EventPrivmsg     EventKind = "privmsg"
	EventJoin        EventKind = "join"
	EventPart        EventKind = "part"
	EventKick        EventKind = "kick"
	EventQuit        EventKind = "quit"
	EventNick        EventKind = "nick"
	EventMode        EventKind = "mode"
	EventISupport    EventKind = "isupport"
	EventNames       EventKind = "names"
)

// An Event is one notification. Which fields are set depends on the kind:
// the source address for the verb events, Target for channel-scoped events,
// Text for trailing parameters (message bodies, reasons, welcome text),
// Args for anything positional (the new nick on EventNick, the victim on
// EventKick, the raw mode change on EventMode, the NAMES tokens on
// EventNames), Params for the parsed 005 mapping, and Err on EventError.
type Event struct {
	Kind EventKind
	Time time.Time

	Nick   string
	User   string
	Host   string
	Target string
	Text   string
	Args   []string

	Params map[string]string
	Err    error
}

// A Handler is a subscriber's callback. Under synchronous delivery it runs
// on the goroutine that raised the event; under fire-and-forget delivery it
// gets its own goroutine. A panicking handler is contained and reported,
// never propagated.
type Handler func(conn *Connection, event *Event)

type subscription struct {
	id int
	fn Handler
}

// bus fans events out to subscribers, per kind.
type bus struct {
	mu       sync.RWMutex
	nextID   int
	async    bool
	handlers map[EventKind][]subscription
}

func (b *bus) subscribe(kind EventKind, fn Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers == nil {
		b.handlers = make(map[EventKind][]subscription)
	}

	b.nextID++
	b.handlers[kind] = append(b.handlers[kind], subscription{id: b.nextID, fn: fn})

	return b.nextID
}

func (b *bus) unsubscribe(kind EventKind, id int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[kind]
	for i := range subs {
		if subs[i].id == id {
			b.handlers[kind] = append(subs[:i], subs[i+1:]...)
			return true
		}
	}

	return false
}

func (b *bus) emit(conn *Connection, event *Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.handlers[event.Kind]))
	copy(subs, b.handlers[event.Kind])
	b.mu.RUnlock()

	for _, sub := range subs {
		if b.async {
			go b.deliver(conn, sub, event)
		} else {
			b.deliver(conn, sub, event)
		}
	}
}

func (b *bus) deliver(conn *Connection, sub subscription, event *Event) {
	defer func() {
		if r := recover(); r == nil {
			return
		} else if event.Kind == EventError {
			// Do not recurse; a broken error subscriber is only logged.
			conn.log.Error().Interface("panic", r).Msg("subscriber panicked while handling an error event")
		} else {
			conn.emitError(fmt.Errorf("subscriber for %q panicked: %v", event.Kind, r))
		}
	}()

	sub.fn(conn, event)
}
