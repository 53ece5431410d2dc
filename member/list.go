// Package member tracks the users of one channel, with the prefix-ordering
// logic that keeps every user's symbols sorted by server-declared power.
package member

import (
	"sort"
	"strings"
	"sync"

	"github.com/hearthlink/irc/isupport"
)

// The List of users in a channel. Nicks are case-insensitive keys. A List
// carries its own lock so read-only handles stay safe while the connection's
// dispatcher mutates it; compound multi-channel operations are additionally
// serialized by the owning connection.
type List struct {
	mu    sync.RWMutex
	caps  *isupport.Table
	users []*User
	index map[string]*User
}

// New creates an empty list bound to the connection's capability table.
func New(caps *isupport.Table) *List {
	return &List{
		caps:  caps,
		users: make([]*User, 0, 16),
		index: make(map[string]*User, 16),
	}
}

// Insert adds a user. Prefixes are cleaned up and power-sorted before
// insertion. It returns false if the nick is already present.
func (list *List) Insert(user User) (ok bool) {
	user.Prefixes = list.caps.SortSymbols(user.Prefixes)

	list.mu.Lock()
	defer list.mu.Unlock()

	key := strings.ToLower(user.Nick)
	if list.index[key] != nil {
		return false
	}

	list.users = append(list.users, &user)
	list.index[key] = &user
	list.sort()

	return true
}

// InsertNamesToken inserts or updates a user from one NAMES token, stripping
// any leading prefix symbols and applying each of them. With userhost-in-names
// the token carries the full address, e.g. "@+Nick!user@host.example.com".
// It returns the parsed nick.
func (list *List) InsertNamesToken(token string) (nick string, ok bool) {
	rest, symbols := list.caps.StripSymbols(token)
	if rest == "" {
		return "", false
	}

	user := User{Nick: rest}

	split := strings.SplitN(rest, "!", 2)
	if len(split) == 2 {
		user.Nick = split[0]
		if userhost := strings.SplitN(split[1], "@", 2); len(userhost) == 2 {
			user.User = userhost[0]
			user.Host = userhost[1]
		}
	}

	if !list.Insert(user) && (user.User != "" || user.Host != "") {
		// Already present, e.g. a repeated NAMES reply; a token carrying
		// the full address still fills in what the first one lacked.
		list.Patch(user.Nick, user.User, user.Host)
	}
	for _, symbol := range symbols {
		list.InsertPrefix(user.Nick, symbol)
	}

	return user.Nick, true
}

// InsertPrefix gives a user a prefix symbol, keeping the symbols sorted by
// power. Inserting a symbol the user already has is a no-op. It returns false
// if the nick is unknown.
func (list *List) InsertPrefix(nick string, symbol rune) (ok bool) {
	list.mu.Lock()
	defer list.mu.Unlock()

	user := list.index[strings.ToLower(nick)]
	if user == nil {
		return false
	}
	if strings.ContainsRune(user.Prefixes, symbol) {
		return true
	}

	user.Prefixes = list.caps.SortSymbols(user.Prefixes + string(symbol))
	list.sort()

	return true
}

// RemovePrefix takes a prefix symbol away from a user. It returns false if
// the nick is unknown, and true even if the symbol was not there.
func (list *List) RemovePrefix(nick string, symbol rune) (ok bool) {
	list.mu.Lock()
	defer list.mu.Unlock()

	user := list.index[strings.ToLower(nick)]
	if user == nil {
		return false
	}

	user.Prefixes = strings.Replace(user.Prefixes, string(symbol), "", 1)
	list.sort()

	return true
}

// Rename moves a user under a new nick, preserving prefixes and address.
// It returns false if the old nick is missing or the new one is taken.
func (list *List) Rename(from, to string) (ok bool) {
	fromKey := strings.ToLower(from)
	toKey := strings.ToLower(to)

	list.mu.Lock()
	defer list.mu.Unlock()

	user := list.index[fromKey]
	if user == nil {
		return false
	}
	if fromKey == toKey {
		user.Nick = to
		return true
	}
	if list.index[toKey] != nil {
		return false
	}

	user.Nick = to
	delete(list.index, fromKey)
	list.index[toKey] = user
	list.sort()

	return true
}

// Remove a user from the list.
func (list *List) Remove(nick string) (ok bool) {
	list.mu.Lock()
	defer list.mu.Unlock()

	key := strings.ToLower(nick)
	user := list.index[key]
	if user == nil {
		return false
	}

	for i := range list.users {
		if list.users[i] == user {
			list.users = append(list.users[:i], list.users[i+1:]...)
			break
		}
	}
	delete(list.index, key)

	return true
}

// Patch fills in a user's username and host. Empty arguments leave the
// corresponding field alone.
func (list *List) Patch(nick, username, host string) (ok bool) {
	list.mu.Lock()
	defer list.mu.Unlock()

	user := list.index[strings.ToLower(nick)]
	if user == nil {
		return false
	}

	if username != "" {
		user.User = username
	}
	if host != "" {
		user.Host = host
	}

	return true
}

// User gets a copy of the user by nick.
func (list *List) User(nick string) (u User, ok bool) {
	list.mu.RLock()
	defer list.mu.RUnlock()

	user := list.index[strings.ToLower(nick)]
	if user == nil {
		return User{}, false
	}

	return *user, true
}

// Users gets a copy of the users, ordered by power and then nick.
func (list *List) Users() []User {
	list.mu.RLock()
	defer list.mu.RUnlock()

	result := make([]User, len(list.users))
	for i := range list.users {
		result[i] = *list.users[i]
	}

	return result
}

// Len returns the number of users.
func (list *List) Len() int {
	list.mu.RLock()
	defer list.mu.RUnlock()

	return len(list.users)
}

// Clear removes all users.
func (list *List) Clear() {
	list.mu.Lock()
	list.users = list.users[:0]
	for key := range list.index {
		delete(list.index, key)
	}
	list.mu.Unlock()
}

// Immutable gets a read-only handle to the list.
func (list *List) Immutable() Immutable {
	return Immutable{list: list}
}

func (list *List) sort() {
	sort.SliceStable(list.users, func(i, j int) bool {
		a := list.users[i]
		b := list.users[j]

		aPrefix := a.HighestPrefix()
		bPrefix := b.HighestPrefix()

		if aPrefix != bPrefix {
			return list.caps.IsSymbolHigher(aPrefix, bPrefix)
		}

		return strings.ToLower(a.Nick) < strings.ToLower(b.Nick)
	})
}
