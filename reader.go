package irc

import (
	"fmt"
)

// readLoop is the single long-lived reader worker for a Connection. It parks
// until a connect wakes it, then forwards newline-delimited lines to the
// dispatcher until the socket fails or the connection is reset.
//
// There are two distinct ways out of a blocked read: a reconnect clears the
// reading flag and closes the socket, which sends the worker back to its
// parking spot, while Close additionally closes the quit channel so the park
// never resumes.
func (conn *Connection) readLoop() {
	for {
		select {
		case <-conn.quit:
			return
		case <-conn.wake:
		}

		for {
			conn.mu.RLock()
			br := conn.br
			reading := conn.reading
			conn.mu.RUnlock()

			if !reading || br == nil {
				break
			}

			line, err := br.ReadString('\n')
			if err != nil {
				conn.mu.RLock()
				// A cleared flag or a swapped-out reader means the unblock
				// was a deliberate reset, not a transport failure. The
				// reader comparison covers a reconnect that raced the old
				// socket's death.
				failed := conn.reading && conn.br == br
				conn.mu.RUnlock()

				if failed {
					conn.emitError(fmt.Errorf("read: %w", err))
					conn.Disconnect()
				}
				break
			}

			conn.mu.RLock()
			stale := conn.br != br
			conn.mu.RUnlock()
			if stale {
				// The line belongs to a torn-down session.
				break
			}

			conn.handleLine(trimLine(line))
		}
	}
}

func trimLine(line string) string {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}

	return line
}
