package irc

import (
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding"
)

// The Config for a Connection. The zero value works; WithDefaults fills in
// anything left out.
type Config struct {
	// Timeout is how long the connection may go without receiving a line
	// before it is forcibly disconnected. The keepalive PING is sent at
	// half this interval. By default 4 minutes.
	Timeout time.Duration

	// PollInterval is how often the timeout detector checks the time of the
	// last received line. By default 5 seconds.
	PollInterval time.Duration

	// Encoding wraps the socket in a decoder/encoder pair for servers that
	// are not UTF-8. Leave nil for plain byte passthrough.
	Encoding encoding.Encoding

	// AsyncEvents selects fire-and-forget event delivery: each subscriber
	// runs on its own goroutine, unordered relative to other subscribers
	// and to subsequent lines. The default is synchronous in-order delivery
	// on the dispatching goroutine.
	AsyncEvents bool

	// Logger receives internal diagnostics (protocol anomalies, contained
	// subscriber panics). By default nothing is logged.
	Logger *zerolog.Logger
}

// WithDefaults returns the config with the default values.
func (config Config) WithDefaults() Config {
	if config.Timeout <= 0 {
		config.Timeout = 4 * time.Minute
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.Logger == nil {
		nop := zerolog.Nop()
		config.Logger = &nop
	}

	return config
}
