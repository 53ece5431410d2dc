// Package irc is a hand-built IRC client core. It owns one TCP connection's
// lifecycle, parses every inbound line, keeps the authoritative view of the
// joined channels and their users, and serializes outbound traffic. Callers
// talk to it through Connect/Send/Channel and by subscribing to its events.
package irc

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hearthlink/irc/isupport"
	"github.com/hearthlink/irc/member"
)

// Token sent with keepalive PINGs. The reply is uninteresting; only the
// timeout detector decides whether the server is gone.
const keepAliveToken = "keepalive"

// A Connection is a single IRC client connection. Use New to construct it;
// one Connection can be connected, disconnected and reconnected any number
// of times until Close.
type Connection struct {
	config Config
	log    zerolog.Logger

	// mu is the coarse state lock. Compound operations like a NICK rename
	// span every channel and must not race a concurrent QUIT or MODE, so
	// all membership, capability and flag updates happen under it.
	mu           sync.RWMutex
	nick         string
	user         string
	realName     string
	host         string
	port         int
	connected    bool
	registered   bool
	channels     map[string]*Channel
	lastReceived time.Time
	reading      bool
	br           *bufio.Reader
	timerStop    chan struct{}

	// sendMu is the writer gate. It serializes byte-level writes and the
	// whole connect/disconnect sequence; teardown is always performed with
	// it held, via teardownLocked.
	sendMu sync.Mutex
	conn   net.Conn
	w      *bufio.Writer

	caps     isupport.Table
	events   bus
	inbound  FilterChain
	outbound FilterChain

	wake      chan struct{}
	quit      chan struct{}
	closeOnce sync.Once
}

// New creates an idle Connection and starts its parked reader worker.
func New(config Config) *Connection {
	config = config.WithDefaults()

	conn := &Connection{
		config:   config,
		log:      *config.Logger,
		channels: make(map[string]*Channel),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
	}
	conn.events.async = config.AsyncEvents

	go conn.readLoop()

	return conn
}

// Connect resets the connection and dials the server. On success the
// registration lines (PASS if a password is given, NICK, USER) have been
// written and the timeout and keepalive timers are running. On failure the
// error is also raised as an exception event and the connection stays idle.
func (conn *Connection) Connect(nick, user, realName, host string, port int, password string) error {
	select {
	case <-conn.quit:
		return ErrClosed
	default:
	}

	conn.sendMu.Lock()

	// Full reset: tear down any previous socket, timers and reader binding,
	// and invalidate the previous session's state.
	droppedPrevious := conn.teardownLocked()
	conn.caps.Reset()

	conn.mu.Lock()
	conn.nick = nick
	conn.user = user
	conn.realName = realName
	conn.host = host
	conn.port = port
	conn.channels = make(map[string]*Channel)
	conn.mu.Unlock()

	socket, err := net.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		conn.sendMu.Unlock()
		if droppedPrevious {
			conn.emit(&Event{Kind: EventDisconnect})
		}
		conn.emitError(fmt.Errorf("connect: %w", err))
		return err
	}

	var r io.Reader = socket
	var w io.Writer = socket
	if conn.config.Encoding != nil {
		r = conn.config.Encoding.NewDecoder().Reader(socket)
		w = conn.config.Encoding.NewEncoder().Writer(socket)
	}

	conn.conn = socket
	conn.w = bufio.NewWriter(w)

	conn.mu.Lock()
	conn.connected = true
	conn.registered = false
	conn.br = bufio.NewReader(r)
	conn.reading = true
	conn.lastReceived = time.Now()
	conn.mu.Unlock()

	// Wake the parked reader before the registration writes, so the very
	// first server lines are not missed.
	select {
	case conn.wake <- struct{}{}:
	default:
	}

	// Registration goes out while the gate is still held; no caller-issued
	// send can slip in between these lines.
	if err := conn.registerLocked(password); err != nil {
		failed := conn.teardownLocked()
		conn.sendMu.Unlock()
		if droppedPrevious {
			conn.emit(&Event{Kind: EventDisconnect})
		}
		if failed {
			conn.emit(&Event{Kind: EventDisconnect})
		}
		conn.emitError(fmt.Errorf("register: %w", err))
		return err
	}

	conn.sendMu.Unlock()

	if droppedPrevious {
		conn.emit(&Event{Kind: EventDisconnect})
	}

	conn.mu.Lock()
	stop := make(chan struct{})
	conn.timerStop = stop
	conn.mu.Unlock()

	go conn.timerLoop(stop)

	return nil
}

// registerLocked sends the registration lines. The caller must hold the
// writer gate; the lines bypass the outbound filter chain since they are
// core-generated. It runs at most once per successful connect.
func (conn *Connection) registerLocked(password string) error {
	conn.mu.Lock()
	if conn.registered {
		conn.mu.Unlock()
		return nil
	}
	nick, user, realName := conn.nick, conn.user, conn.realName
	conn.mu.Unlock()

	lines := make([]string, 0, 3)
	if password != "" {
		lines = append(lines, "PASS "+password)
	}
	lines = append(lines, "NICK "+nick, fmt.Sprintf("USER %s 0 * :%s", user, realName))

	for _, line := range lines {
		if _, err := conn.w.WriteString(line + "\r\n"); err != nil {
			return err
		}
	}
	if err := conn.w.Flush(); err != nil {
		return err
	}

	conn.mu.Lock()
	conn.registered = true
	conn.mu.Unlock()

	return nil
}

// Disconnect tears the connection down to an idle, reusable state. It is
// idempotent and never fails; calling it on an idle connection does nothing.
func (conn *Connection) Disconnect() {
	conn.sendMu.Lock()
	wasConnected := conn.teardownLocked()
	conn.sendMu.Unlock()

	if wasConnected {
		conn.emit(&Event{Kind: EventDisconnect})
	}
}

// teardownLocked does the actual teardown and reports whether a live
// connection was torn down. The caller must hold the writer gate; this is
// what keeps Disconnect safe to call from inside send-failure and
// failed-connect cleanup paths that already hold it. The disconnect event is
// the caller's to raise, after the gate is released, so a synchronous
// subscriber is free to send or reconnect.
func (conn *Connection) teardownLocked() (wasConnected bool) {
	conn.mu.Lock()

	wasConnected = conn.connected
	conn.connected = false
	conn.registered = false

	if conn.timerStop != nil {
		close(conn.timerStop)
		conn.timerStop = nil
	}

	// Stop the reader from treating the socket close as a failure; it will
	// unblock from its read and park again.
	conn.reading = false
	conn.br = nil

	conn.mu.Unlock()

	if conn.conn != nil {
		_ = conn.conn.Close()
		conn.conn = nil
	}
	conn.w = nil

	return wasConnected
}

// Close permanently ends the connection and its reader worker. The
// Connection cannot be reused afterwards.
func (conn *Connection) Close() {
	conn.closeOnce.Do(func() {
		close(conn.quit)
		conn.Disconnect()
	})
}

// Send writes one line to the server, after running it through the outbound
// filter chain. Lines are never interleaved: every send holds the writer
// gate for its single write and flush. A write failure forces a disconnect.
func (conn *Connection) Send(line string) error {
	line = strings.TrimRight(line, "\r\n")

	line, ok := conn.outbound.run(conn, line)
	if !ok {
		return nil
	}

	conn.sendMu.Lock()

	if conn.w == nil {
		conn.sendMu.Unlock()
		return ErrNotConnected
	}

	_, err := conn.w.WriteString(line + "\r\n")
	if err == nil {
		err = conn.w.Flush()
	}
	if err != nil {
		wasConnected := conn.teardownLocked()
		conn.sendMu.Unlock()

		if wasConnected {
			conn.emit(&Event{Kind: EventDisconnect})
		}
		conn.emitError(fmt.Errorf("write: %w", err))
		return err
	}

	conn.sendMu.Unlock()
	return nil
}

// Sendf is Send with a fmt.Sprintf.
func (conn *Connection) Sendf(format string, a ...interface{}) error {
	return conn.Send(fmt.Sprintf(format, a...))
}

// Connected returns true if the connection has a live socket.
func (conn *Connection) Connected() bool {
	conn.mu.RLock()
	defer conn.mu.RUnlock()

	return conn.connected
}

// Registered returns true once the registration lines have been sent for
// the current connect.
func (conn *Connection) Registered() bool {
	conn.mu.RLock()
	defer conn.mu.RUnlock()

	return conn.registered
}

// Nick gets the client's current nickname. It follows server-confirmed
// renames of the local user.
func (conn *Connection) Nick() string {
	conn.mu.RLock()
	defer conn.mu.RUnlock()

	return conn.nick
}

// ISupport gets the server capability table for the current connection.
func (conn *Connection) ISupport() *isupport.Table {
	return &conn.caps
}

// Channel gets a joined channel by name, case-insensitively, or nil if the
// client is not in it.
func (conn *Connection) Channel(name string) *Channel {
	conn.mu.RLock()
	defer conn.mu.RUnlock()

	return conn.channels[strings.ToLower(name)]
}

// Channels lists the joined channels, sorted by name.
func (conn *Connection) Channels() []*Channel {
	conn.mu.RLock()
	result := make([]*Channel, 0, len(conn.channels))
	for _, channel := range conn.channels {
		result = append(result, channel)
	}
	conn.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i].name) < strings.ToLower(result[j].name)
	})

	return result
}

// Inbound gets the filter chain applied to received lines before parsing.
func (conn *Connection) Inbound() *FilterChain {
	return &conn.inbound
}

// Outbound gets the filter chain applied to lines about to be sent.
func (conn *Connection) Outbound() *FilterChain {
	return &conn.outbound
}

// Subscribe registers a handler for one event kind and returns an id for
// Unsubscribe.
func (conn *Connection) Subscribe(kind EventKind, fn Handler) int {
	return conn.events.subscribe(kind, fn)
}

// Unsubscribe removes a previously registered handler.
func (conn *Connection) Unsubscribe(kind EventKind, id int) bool {
	return conn.events.unsubscribe(kind, id)
}

// timerLoop runs the timeout detector and the keepalive pinger for one
// connect. Both stop when the teardown closes the stop channel.
func (conn *Connection) timerLoop(stop chan struct{}) {
	poll := time.NewTicker(conn.config.PollInterval)
	keepAlive := time.NewTicker(conn.config.Timeout / 2)
	defer poll.Stop()
	defer keepAlive.Stop()

	for {
		select {
		case <-stop:
			return

		case <-poll.C:
			conn.mu.RLock()
			connected := conn.connected
			elapsed := time.Since(conn.lastReceived)
			conn.mu.RUnlock()

			if connected && elapsed > conn.config.Timeout {
				conn.Disconnect()
				conn.emit(&Event{Kind: EventTimeout, Text: elapsed.String()})
				return
			}

		case <-keepAlive.C:
			// Failure detection is the timeout detector's job; an error
			// here already forced a disconnect.
			_ = conn.Sendf("PING :%s", keepAliveToken)
		}
	}
}

func (conn *Connection) emit(event *Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	conn.events.emit(conn, event)
}

func (conn *Connection) emitError(err error) {
	conn.emit(&Event{Kind: EventError, Err: err, Text: err.Error()})
}

// isSelf compares a nick against the local user's, case-insensitively.
// The caller must hold mu.
func (conn *Connection) isSelf(nick string) bool {
	return strings.EqualFold(nick, conn.nick)
}

// channelLocked gets or creates a channel entry. The caller must hold mu.
func (conn *Connection) channelLocked(name string, create bool) *Channel {
	key := strings.ToLower(name)

	channel := conn.channels[key]
	if channel == nil && create {
		channel = &Channel{name: name, users: member.New(&conn.caps)}
		conn.channels[key] = channel
	}

	return channel
}
