package member

// A User represents one (channel, nick) membership. The same person in two
// channels is two independent User values. User and Host start out empty and
// are filled in from the first full address seen for the nick.
type User struct {
	Nick     string `json:"nick"`
	User     string `json:"user,omitempty"`
	Host     string `json:"host,omitempty"`
	Prefixes string `json:"prefixes"` // display symbols, most powerful first
}

// HighestPrefix returns the most powerful prefix symbol, or 0 if the user
// has none.
func (user *User) HighestPrefix() rune {
	if len(user.Prefixes) == 0 {
		return 0
	}

	return rune(user.Prefixes[0])
}

// PrefixedNick gets the nick with its most powerful prefix, e.g. "@Alice".
func (user *User) PrefixedNick() string {
	if len(user.Prefixes) == 0 {
		return user.Nick
	}

	return string(user.Prefixes[0]) + user.Nick
}
