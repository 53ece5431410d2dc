// Package ircutil has small helpers for producing well-formed outbound
// traffic, independent of any connection.
package ircutil

import (
	"strings"
	"unicode/utf8"
)

// MessageOverhead calculates the overhead in a PRIVMSG sent by a client with
// the given nick, user, host and target name, as echoed to other clients.
func MessageOverhead(nick, user, host, target string) int {
	return len(":!@ PRIVMSG  :") + len(nick) + len(user) + len(host) + len(target)
}

// CutMessage splits a message into cuts that each fit in one line with the
// given overhead, preferring to break on spaces. If a single token is longer
// than the available room it falls back to CutMessageNoSpace.
func CutMessage(text string, overhead int) []string {
	cutLength := 510 - overhead
	tokens := strings.Split(text, " ")
	for _, token := range tokens {
		if len(token) >= cutLength {
			return CutMessageNoSpace(text, overhead)
		}
	}

	result := make([]string, 0, (len(text)/cutLength)+1)
	current := make([]byte, 0, cutLength)
	for _, token := range tokens {
		if len(current)+1+len(token) > cutLength {
			result = append(result, string(current))
			current = current[:0]
		}

		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, token...)
	}

	return append(result, string(current))
}

// CutMessageNoSpace cuts the message per utf-8 rune.
func CutMessageNoSpace(text string, overhead int) []string {
	cutLength := 510 - overhead
	result := make([]string, 0, (len(text)/cutLength)+1)
	current := ""

	for _, r := range text {
		if len(current)+utf8.RuneLen(r) > cutLength {
			result = append(result, current)
			current = ""
		}

		current += string(r)
	}

	return append(result, current)
}
