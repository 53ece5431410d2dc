package member

// An Immutable is a wrapper around a list reference that provides a limited
// set of methods for reading the list's content.
type Immutable struct {
	list *List
}

// User gets a user by nick.
func (il Immutable) User(nick string) (u User, ok bool) {
	return il.list.User(nick)
}

// Users gets all the users in the list, in order.
func (il Immutable) Users() []User {
	return il.list.Users()
}

// Len returns the number of users.
func (il Immutable) Len() int {
	return il.list.Len()
}
