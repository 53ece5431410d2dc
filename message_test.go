package irc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hearthlink/irc"
)

type messageTestRow struct {
	Data    string
	Nick    string
	User    string
	Host    string
	Command string
	Args    []string
	Text    string
}

var messageTestTable = []messageTestRow{
	{"PING :irc.example.com", "", "", "", "PING", []string{}, "irc.example.com"},
	{"PING irc.example.com", "", "", "", "PING", []string{"irc.example.com"}, ""},
	{":irc.example.com PONG irc.example.com :token", "irc.example.com", "", "", "PONG", []string{"irc.example.com"}, "token"},
	{":Alice!alice@host.example.com PRIVMSG #chat :Hello, World", "Alice", "alice", "host.example.com", "PRIVMSG", []string{"#chat"}, "Hello, World"},
	{":Alice!alice@host.example.com PRIVMSG Bob :((Remove :01 goofs!*))", "Alice", "alice", "host.example.com", "PRIVMSG", []string{"Bob"}, "((Remove :01 goofs!*))"},
	{":Bob!~b@10.32.0.1 JOIN #chat", "Bob", "~b", "10.32.0.1", "JOIN", []string{"#chat"}, ""},
	{":Bob!~b@10.32.0.1 QUIT :bye", "Bob", "~b", "10.32.0.1", "QUIT", []string{}, "bye"},
	{":irc.example.com 353 Me = #chat :@Alice +Bob Carol", "irc.example.com", "", "", "353", []string{"Me", "=", "#chat"}, "@Alice +Bob Carol"},
	{":Op!op@example.com MODE #chat +ov Alice Bob", "Op", "op", "example.com", "MODE", []string{"#chat", "+ov", "Alice", "Bob"}, ""},
	{"ERROR :Closing Link", "", "", "", "ERROR", []string{}, "Closing Link"},
	{":x nick :NewNick", "x", "", "", "NICK", []string{}, "NewNick"},
}

func TestParseMessage(t *testing.T) {
	for _, row := range messageTestTable {
		t.Run(row.Data, func(t *testing.T) {
			msg, err := irc.ParseMessage(row.Data)
			if err != nil {
				t.Fatal("parse failed:", err)
			}

			assert.Equal(t, row.Nick, msg.Nick, "nick")
			assert.Equal(t, row.User, msg.User, "user")
			assert.Equal(t, row.Host, msg.Host, "host")
			assert.Equal(t, row.Command, msg.Command, "command")
			assert.Equal(t, row.Args, msg.Args, "args")
			assert.Equal(t, row.Text, msg.Text, "text")
			assert.Equal(t, row.Data, msg.Raw, "raw")
		})
	}
}

func TestParseMessageErrors(t *testing.T) {
	_, err := irc.ParseMessage("")
	assert.Equal(t, irc.ErrEmptyLine, err)

	_, err = irc.ParseMessage("   ")
	assert.Equal(t, irc.ErrEmptyLine, err)

	_, err = irc.ParseMessage(":prefixonly")
	assert.Equal(t, irc.ErrMalformedLine, err)

	_, err = irc.ParseMessage(":nick!user PRIVMSG #c :hi")
	assert.Equal(t, irc.ErrMalformedLine, err)
}

func TestMessageHelpers(t *testing.T) {
	msg, err := irc.ParseMessage(":Alice!alice@example.com KICK #chat Bob :enough")
	if err != nil {
		t.Fatal(err)
	}

	welcome, _ := irc.ParseMessage(":s 001 Me :hi")
	assert.True(t, welcome.IsNumeric())
	assert.False(t, msg.IsNumeric())
	assert.Equal(t, "#chat", msg.Arg(0))
	assert.Equal(t, "Bob", msg.Arg(1))
	assert.Equal(t, "", msg.Arg(2))
	assert.Equal(t, []string{"Bob"}, msg.ArgsFrom(1))
	assert.Nil(t, msg.ArgsFrom(2))
	assert.Nil(t, msg.ArgsFrom(-1))
	assert.Equal(t, "Alice!alice@example.com", msg.Source())

	short, _ := irc.ParseMessage(":irc.example.com 001 Me :welcome")
	assert.Equal(t, "irc.example.com", short.Source())
}
