package member_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hearthlink/irc/isupport"
	"github.com/hearthlink/irc/member"
)

func newList() *member.List {
	table := &isupport.Table{}
	table.Set("PREFIX", "(aohv)~@%+")
	table.Set("CHANMODES", "eIbq,k,flj,CFLNPQcgimnprstz")

	return member.New(table)
}

func prefixedNicks(list *member.List) []string {
	users := list.Users()
	result := make([]string, 0, len(users))
	for _, user := range users {
		result = append(result, user.PrefixedNick())
	}

	return result
}

func TestListInsert(t *testing.T) {
	list := newList()

	assert.True(t, list.Insert(member.User{Nick: "Alice", User: "alice", Host: "example.com", Prefixes: "@"}))
	assert.True(t, list.Insert(member.User{Nick: "bob", Prefixes: "+"}))
	assert.True(t, list.Insert(member.User{Nick: "Carol"}))

	// Duplicate insertion is refused, case-insensitively.
	assert.False(t, list.Insert(member.User{Nick: "ALICE"}))
	assert.Equal(t, 3, list.Len())

	// Power order, then nick order.
	assert.Equal(t, []string{"@Alice", "+bob", "Carol"}, prefixedNicks(list))

	user, ok := list.User("alice")
	assert.True(t, ok)
	assert.Equal(t, "Alice", user.Nick)
	assert.Equal(t, "example.com", user.Host)
}

func TestListInsertSanitizesPrefixes(t *testing.T) {
	list := newList()

	// Out-of-order and unknown prefixes are cleaned up on insert.
	list.Insert(member.User{Nick: "Alice", Prefixes: "+@!"})

	user, _ := list.User("Alice")
	assert.Equal(t, "@+", user.Prefixes)
}

func TestListNamesTokens(t *testing.T) {
	list := newList()

	table := []struct {
		token string
		nick  string
		user  member.User
	}{
		{"@+Alice!~alice@example.com", "Alice", member.User{Nick: "Alice", User: "~alice", Host: "example.com", Prefixes: "@+"}},
		{"+bob", "bob", member.User{Nick: "bob", Prefixes: "+"}},
		{"Carol", "Carol", member.User{Nick: "Carol"}},
		{"~%Dan", "Dan", member.User{Nick: "Dan", Prefixes: "~%"}},
	}

	for _, row := range table {
		nick, ok := list.InsertNamesToken(row.token)
		assert.True(t, ok, row.token)
		assert.Equal(t, row.nick, nick, row.token)

		user, found := list.User(row.nick)
		assert.True(t, found, row.token)
		assert.Equal(t, row.user, user, row.token)
	}

	assert.Equal(t, []string{"~Dan", "@Alice", "+bob", "Carol"}, prefixedNicks(list))

	// A NAMES token for a known user only applies prefixes.
	_, ok := list.InsertNamesToken("@Carol")
	assert.True(t, ok)
	assert.Equal(t, 4, list.Len())
	carol, _ := list.User("Carol")
	assert.Equal(t, "@", carol.Prefixes)

	// A repeated token that carries the full address fills in the user
	// and host the first one lacked.
	_, ok = list.InsertNamesToken("@Carol!~carol@example.com")
	assert.True(t, ok)
	assert.Equal(t, 4, list.Len())
	carol, _ = list.User("Carol")
	assert.Equal(t, "~carol", carol.User)
	assert.Equal(t, "example.com", carol.Host)
	assert.Equal(t, "@", carol.Prefixes)

	// A token that is all symbols is unusable.
	_, ok = list.InsertNamesToken("@+")
	assert.False(t, ok)
}

func TestListPrefixes(t *testing.T) {
	list := newList()
	list.Insert(member.User{Nick: "Alice"})

	// Arrival order does not matter; power order does.
	assert.True(t, list.InsertPrefix("alice", '+'))
	assert.True(t, list.InsertPrefix("alice", '@'))
	user, _ := list.User("Alice")
	assert.Equal(t, "@+", user.Prefixes)

	// Re-inserting an existing symbol is a no-op.
	assert.True(t, list.InsertPrefix("Alice", '@'))
	user, _ = list.User("Alice")
	assert.Equal(t, "@+", user.Prefixes)

	assert.True(t, list.RemovePrefix("Alice", '@'))
	user, _ = list.User("Alice")
	assert.Equal(t, "+", user.Prefixes)

	// Removing an absent symbol still finds the user.
	assert.True(t, list.RemovePrefix("Alice", '~'))

	assert.False(t, list.InsertPrefix("Ghost", '@'))
	assert.False(t, list.RemovePrefix("Ghost", '@'))
}

func TestListRename(t *testing.T) {
	list := newList()
	list.Insert(member.User{Nick: "Alice", User: "alice", Host: "example.com", Prefixes: "@+"})
	list.Insert(member.User{Nick: "Bob"})

	assert.True(t, list.Rename("alice", "Alyx"))

	_, ok := list.User("Alice")
	assert.False(t, ok)

	user, ok := list.User("Alyx")
	assert.True(t, ok)
	assert.Equal(t, "@+", user.Prefixes)
	assert.Equal(t, "alice", user.User)

	// Case-only rename keeps the entry.
	assert.True(t, list.Rename("Alyx", "alyx"))
	user, ok = list.User("ALYX")
	assert.True(t, ok)
	assert.Equal(t, "alyx", user.Nick)

	assert.False(t, list.Rename("Ghost", "Someone"))
	assert.False(t, list.Rename("alyx", "Bob"))
}

func TestListRemoveAndClear(t *testing.T) {
	list := newList()
	list.Insert(member.User{Nick: "Alice"})
	list.Insert(member.User{Nick: "Bob"})

	assert.True(t, list.Remove("ALICE"))
	assert.False(t, list.Remove("Alice"))
	assert.Equal(t, 1, list.Len())

	list.Clear()
	assert.Equal(t, 0, list.Len())
	assert.Equal(t, []string{}, prefixedNicks(list))
}

func TestListPatch(t *testing.T) {
	list := newList()
	list.Insert(member.User{Nick: "Alice"})

	assert.True(t, list.Patch("alice", "~alice", "example.com"))
	user, _ := list.User("Alice")
	assert.Equal(t, "~alice", user.User)
	assert.Equal(t, "example.com", user.Host)

	// Empty fields leave existing values alone.
	assert.True(t, list.Patch("alice", "", ""))
	user, _ = list.User("Alice")
	assert.Equal(t, "~alice", user.User)

	assert.False(t, list.Patch("Ghost", "u", "h"))
}

func TestImmutable(t *testing.T) {
	list := newList()
	list.Insert(member.User{Nick: "Alice", Prefixes: "@"})

	ro := list.Immutable()
	assert.Equal(t, 1, ro.Len())

	user, ok := ro.User("alice")
	assert.True(t, ok)
	assert.Equal(t, "@Alice", user.PrefixedNick())
	assert.Equal(t, 1, len(ro.Users()))
}
