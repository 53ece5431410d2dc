package irc

import (
	"errors"
	"strings"
)

// ErrEmptyLine is returned by ParseMessage for blank input.
var ErrEmptyLine = errors.New("irc: empty line")

// ErrMalformedLine is returned by ParseMessage when a line cannot be split
// into prefix and command.
var ErrMalformedLine = errors.New("irc: malformed line")

// A Message is one parsed protocol line:
//
//	[":" prefix " "] command " " params... [" :" trailing]
//
// The prefix, if present, is broken into Nick, User and Host; for server
// sources only Nick is set (the server name).
type Message struct {
	Nick    string
	User    string
	Host    string
	Command string
	Args    []string
	Text    string
	Raw     string
}

// ParseMessage parses one inbound line, already stripped of its terminator.
func ParseMessage(line string) (Message, error) {
	msg := Message{Raw: line}

	if len(strings.TrimSpace(line)) == 0 {
		return msg, ErrEmptyLine
	}

	// Source prefix
	if line[0] == ':' {
		split := strings.SplitN(line, " ", 2)
		if len(split) < 2 {
			return msg, ErrMalformedLine
		}

		prefixTokens := strings.SplitN(split[0][1:], "!", 2)
		msg.Nick = prefixTokens[0]
		if len(prefixTokens) == 2 {
			userhost := strings.SplitN(prefixTokens[1], "@", 2)
			if len(userhost) < 2 {
				return msg, ErrMalformedLine
			}

			msg.User = userhost[0]
			msg.Host = userhost[1]
		}

		line = split[1]
	}

	// Command, params and trailing
	split := strings.SplitN(line, " :", 2)
	if len(split) == 2 {
		msg.Text = split[1]
	}

	tokens := strings.Fields(split[0])
	if len(tokens) == 0 {
		return msg, ErrMalformedLine
	}

	msg.Command = strings.ToUpper(tokens[0])
	msg.Args = tokens[1:]

	return msg, nil
}

// Arg gets a parameter by index, or "" if the line did not have that many.
func (msg *Message) Arg(index int) string {
	if index < 0 || index >= len(msg.Args) {
		return ""
	}

	return msg.Args[index]
}

// ArgsFrom gets the parameters from the given index on, or nil if the line
// did not have that many.
func (msg *Message) ArgsFrom(index int) []string {
	if index < 0 || index >= len(msg.Args) {
		return nil
	}

	return msg.Args[index:]
}

// IsNumeric returns true for three-digit reply commands like 001 and 353.
func (msg *Message) IsNumeric() bool {
	if len(msg.Command) != 3 {
		return false
	}

	for _, ch := range msg.Command {
		if ch < '0' || ch > '9' {
			return false
		}
	}

	return true
}

// Source reconstructs the full address this message came from, in the
// "nick!user@host" form, or just the nick/server name if that is all there was.
func (msg *Message) Source() string {
	if msg.User == "" || msg.Host == "" {
		return msg.Nick
	}

	return msg.Nick + "!" + msg.User + "@" + msg.Host
}
