package irc

import (
	"github.com/hearthlink/irc/member"
)

// A Channel is one joined channel and its userlist. Channels are created by
// the dispatcher on JOIN and NAMES, removed when the local user leaves, and
// handed to callers as read-only views.
type Channel struct {
	name  string
	users *member.List
}

// Name gets the channel name. Channel names compare case-insensitively.
func (channel *Channel) Name() string {
	return channel.name
}

// Users gets a read-only handle to the channel's userlist.
func (channel *Channel) Users() member.Immutable {
	return channel.users.Immutable()
}
