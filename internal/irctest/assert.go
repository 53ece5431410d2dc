package irctest

import (
	"errors"
	"strings"
	"testing"

	"github.com/hearthlink/irc"
)

// AssertUserlist compares a channel's userlist, in order, to a list of
// prefixed nicks like "@Alice".
func AssertUserlist(t *testing.T, channel *irc.Channel, assertedOrder ...string) error {
	t.Helper()

	users := channel.Users().Users()
	order := make([]string, 0, len(users))
	for _, user := range users {
		order = append(order, user.PrefixedNick())
	}

	orderA := strings.Join(order, ", ")
	orderB := strings.Join(assertedOrder, ", ")

	if orderA != orderB {
		t.Logf("Userlist: %s", orderA)
		t.Logf("Asserted: %s", orderB)
		t.Fail()

		return errors.New("userlists do not match")
	}

	return nil
}
