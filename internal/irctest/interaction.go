// Package irctest provides a scripted fake server for exercising a
// Connection end to end over a real socket.
package irctest

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"time"
)

// An Interaction is a simulated server. Server lines are written to the
// client in order; Client lines block until the client sends a matching
// line (in non-strict mode, other client lines are skipped over); Callback
// entries run test assertions at that point in the script.
type Interaction struct {
	wg sync.WaitGroup

	Strict  bool
	Lines   []InteractionLine
	Log     []string
	Failure *InteractionFailure
}

// Listen starts listening for a single client in a separate goroutine.
func (interaction *Interaction) Listen() (addr string, err error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}

	lines := make([]InteractionLine, len(interaction.Lines))
	copy(lines, interaction.Lines)

	interaction.wg.Add(1)

	go func() {
		defer interaction.wg.Done()
		defer listener.Close()

		conn, err := listener.Accept()
		if err != nil {
			interaction.Failure = &InteractionFailure{Index: -1, NetErr: err}
			return
		}

		defer conn.Close()

		reader := bufio.NewReader(conn)

		for i := 0; i < len(lines); i++ {
			line := lines[i]

			switch {
			case line.Server != "":
				_ = conn.SetWriteDeadline(time.Now().Add(time.Second * 2))
				if _, err := conn.Write(append([]byte(line.Server), '\r', '\n')); err != nil {
					interaction.Failure = &InteractionFailure{Index: i, NetErr: err}
					return
				}

			case line.Client != "":
				_ = conn.SetReadDeadline(time.Now().Add(time.Second * 2))
				input, err := reader.ReadString('\n')
				if err != nil {
					interaction.Failure = &InteractionFailure{Index: i, NetErr: err}
					return
				}
				input = strings.TrimRight(input, "\r\n")

				interaction.Log = append(interaction.Log, input)

				match := line.Client
				success := false
				if strings.HasSuffix(match, "*") {
					success = strings.HasPrefix(input, match[:len(match)-1])
				} else {
					success = match == input
				}

				if !success {
					if !interaction.Strict {
						i--
						continue
					}

					interaction.Failure = &InteractionFailure{Index: i, Result: input}
					return
				}

			case line.Callback != nil:
				if err := line.Callback(); err != nil {
					interaction.Failure = &InteractionFailure{Index: i, CBErr: err}
					return
				}
			}
		}
	}()

	return listener.Addr().String(), nil
}

// Wait waits for the script to run to completion or failure. It's safe to
// check Failure after that.
func (interaction *Interaction) Wait() {
	interaction.wg.Wait()
}

// InteractionFailure signifies a test failure.
type InteractionFailure struct {
	Index  int
	Result string
	NetErr error
	CBErr  error
}

// InteractionLine is one step of an interaction: a line sent to the client,
// a line expected from it, or a callback.
type InteractionLine struct {
	Client   string
	Server   string
	Callback func() error
}
