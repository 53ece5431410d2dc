package irc

import "errors"

// ErrNotConnected is returned if you try to do something requiring a
// connection, but there is none.
var ErrNotConnected = errors.New("irc: not connected")

// ErrClosed is returned by Connect after the connection has been
// permanently closed with Close.
var ErrClosed = errors.New("irc: connection closed")

// ErrDropLine is returned by a filter to drop the line it was given. It is
// the only filter error that is not reported as an exception event.
var ErrDropLine = errors.New("irc: drop line")
