package irc

import (
	"strings"
	"time"

	"github.com/hearthlink/irc/member"
)

// handleLine takes one inbound line from the reader through the filter
// chain, the matchers and finally the raw notification. The matchers are
// independent and non-exclusive, and each one finishes its state update
// before raising its event, so subscribers always observe post-update state.
func (conn *Connection) handleLine(line string) {
	conn.mu.Lock()
	conn.lastReceived = time.Now()
	conn.mu.Unlock()

	line, ok := conn.inbound.run(conn, line)
	if !ok {
		return
	}

	msg, err := ParseMessage(line)
	if err != nil {
		conn.log.Debug().Err(err).Str("line", line).Msg("unparseable line")
		return
	}

	conn.matchError(&msg)
	conn.matchPing(&msg)
	conn.matchNumeric(&msg)
	conn.matchPrivmsg(&msg)
	conn.matchJoin(&msg)
	conn.matchQuit(&msg)
	conn.matchMode(&msg)
	conn.matchPart(&msg)
	conn.matchKick(&msg)
	conn.matchNick(&msg)

	conn.emit(&Event{Kind: EventRaw, Text: line, Args: msg.Args, Nick: msg.Nick})
}

func (conn *Connection) matchError(msg *Message) {
	if msg.Command != "ERROR" {
		return
	}

	conn.emit(&Event{Kind: EventServerError, Text: msg.Text})
}

// matchPing answers PING with a PONG echoing the challenge, or a default
// line if the server sent none.
func (conn *Connection) matchPing(msg *Message) {
	if msg.Command != "PING" {
		return
	}

	switch {
	case msg.Text != "":
		_ = conn.Sendf("PONG :%s", msg.Text)
	case len(msg.Args) > 0:
		_ = conn.Sendf("PONG %s", strings.Join(msg.Args, " "))
	default:
		_ = conn.Send("PONG :No challenge was received")
	}

	conn.emit(&Event{Kind: EventPing, Text: msg.Text, Args: msg.Args})
}

func (conn *Connection) matchNumeric(msg *Message) {
	if !msg.IsNumeric() {
		return
	}

	switch msg.Command {
	case "001":
		conn.handleWelcome(msg)
	case "005":
		conn.handleISupport(msg)
	case "353":
		conn.handleNames(msg)
	}
}

// handleWelcome starts the fresh session: any channel state left over from
// a previous registration is gone as far as the server is concerned.
func (conn *Connection) handleWelcome(msg *Message) {
	conn.mu.Lock()
	conn.channels = make(map[string]*Channel)
	if nick := msg.Arg(0); nick != "" {
		conn.nick = nick
	}
	conn.mu.Unlock()

	conn.emit(&Event{Kind: EventConnect, Text: msg.Text, Args: msg.Args})
}

// handleISupport parses the 005 tokens into a mapping and keeps the PREFIX
// and CHANMODES advertisement. NAMESX and UHNAMES are requested as soon as
// the server offers them, so NAMES replies carry every prefix and the full
// addresses.
func (conn *Connection) handleISupport(msg *Message) {
	params := make(map[string]string, len(msg.Args))

	for _, token := range msg.ArgsFrom(1) {
		kv := strings.SplitN(token, "=", 2)
		if kv[0] == "" {
			continue
		}

		value := ""
		if len(kv) == 2 {
			value = kv[1]
		}

		params[strings.ToUpper(kv[0])] = value
		conn.caps.Set(kv[0], value)
	}

	if _, ok := params["NAMESX"]; ok {
		_ = conn.Send("PROTOCTL NAMESX")
	}
	if _, ok := params["UHNAMES"]; ok {
		_ = conn.Send("PROTOCTL UHNAMES")
	}

	conn.emit(&Event{Kind: EventISupport, Params: params, Args: msg.ArgsFrom(1)})
}

// handleNames applies one 353 reply: every listed name is stripped of its
// prefix symbols and inserted, and the channel is recorded as joined.
func (conn *Connection) handleNames(msg *Message) {
	// :server 353 me = #channel :@alice +bob carol
	name := msg.Arg(2)
	if name == "" {
		name = msg.Arg(len(msg.Args) - 1)
	}
	if name == "" {
		return
	}

	tokens := strings.Fields(msg.Text)

	conn.mu.Lock()
	channel := conn.channelLocked(name, true)
	for _, token := range tokens {
		if _, ok := channel.users.InsertNamesToken(token); !ok {
			conn.log.Warn().Str("channel", name).Str("token", token).Msg("unusable NAMES token")
		}
	}
	conn.mu.Unlock()

	conn.emit(&Event{Kind: EventNames, Target: name, Args: tokens, Text: msg.Text})
}

// matchPrivmsg extracts source, target and text. As a side effect it
// back-fills the sender's username and host on the channel membership, which
// NAMES without UHNAMES leaves empty.
func (conn *Connection) matchPrivmsg(msg *Message) {
	if msg.Command != "PRIVMSG" {
		return
	}

	target := msg.Arg(0)

	if msg.User != "" {
		conn.mu.RLock()
		channel := conn.channels[strings.ToLower(target)]
		conn.mu.RUnlock()

		if channel != nil {
			if user, ok := channel.users.User(msg.Nick); ok && user.User == "" {
				channel.users.Patch(msg.Nick, msg.User, msg.Host)
			}
		}
	}

	conn.emit(&Event{
		Kind: EventPrivmsg,
		Nick: msg.Nick, User: msg.User, Host: msg.Host,
		Target: target, Text: msg.Text,
	})
}

func (conn *Connection) matchJoin(msg *Message) {
	if msg.Command != "JOIN" {
		return
	}

	names := msg.Arg(0)
	if names == "" {
		names = msg.Text
	}

	for _, name := range strings.Split(names, ",") {
		if name == "" {
			continue
		}

		conn.mu.Lock()
		channel := conn.channelLocked(name, true)
		inserted := channel.users.Insert(member.User{Nick: msg.Nick, User: msg.User, Host: msg.Host})
		conn.mu.Unlock()

		if !inserted {
			conn.log.Warn().Str("channel", name).Str("source", msg.Source()).Msg("JOIN for a nick already on record")
		}

		conn.emit(&Event{
			Kind: EventJoin,
			Nick: msg.Nick, User: msg.User, Host: msg.Host,
			Target: name,
		})
	}
}

// matchQuit removes the quitting nick from every channel. Channels are never
// removed here, not even for a self-quit; that only happens through
// PART/KICK or a reconnect.
func (conn *Connection) matchQuit(msg *Message) {
	if msg.Command != "QUIT" {
		return
	}

	conn.mu.Lock()
	found := false
	for _, channel := range conn.channels {
		if channel.users.Remove(msg.Nick) {
			found = true
		}
	}
	hadChannels := len(conn.channels) > 0
	conn.mu.Unlock()

	if !found && hadChannels {
		conn.log.Debug().Str("source", msg.Source()).Msg("QUIT for a nick not on record")
	}

	conn.emit(&Event{Kind: EventQuit, Nick: msg.Nick, User: msg.User, Host: msg.Host, Text: msg.Text})
}

// matchMode walks the mode-letter string, consuming parameters according to
// the CHANMODES groups, and applies prefix changes to the membership. The
// capability defaults are installed here on first use, since some servers
// never advertise PREFIX or CHANMODES.
func (conn *Connection) matchMode(msg *Message) {
	if msg.Command != "MODE" {
		return
	}

	target := msg.Arg(0)
	flags := msg.Arg(1)
	if flags == "" {
		flags = msg.Text
	}
	params := msg.ArgsFrom(2)

	conn.caps.EnsureDefaults()

	if conn.caps.IsChannel(target) {
		conn.applyChannelMode(target, flags, params)
	}

	conn.emit(&Event{
		Kind: EventMode,
		Nick: msg.Nick, User: msg.User, Host: msg.Host,
		Target: target, Args: append([]string{flags}, params...),
	})
}

func (conn *Connection) applyChannelMode(target, flags string, params []string) {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	channel := conn.channelLocked(target, false)

	set := true
	next := 0

	for _, mode := range flags {
		switch mode {
		case '+':
			set = true
			continue
		case '-':
			set = false
			continue
		}

		if !conn.caps.TakesParameter(mode, set) {
			continue
		}

		param := ""
		if next < len(params) {
			param = params[next]
		}
		next++

		if !conn.caps.IsPrefixMode(mode) || param == "" {
			continue
		}

		if channel == nil {
			conn.log.Debug().Str("channel", target).Msg("MODE for a channel not on record")
			continue
		}

		if _, ok := channel.users.User(param); !ok {
			// Keep the prefix change rather than lose it; the address gets
			// back-filled the first time the user speaks.
			channel.users.Insert(member.User{Nick: param})
			conn.log.Warn().Str("channel", target).Str("nick", param).Msg("MODE for a nick not on record")
		}

		symbol := conn.caps.Symbol(mode)
		if set {
			channel.users.InsertPrefix(param, symbol)
		} else {
			channel.users.RemovePrefix(param, symbol)
		}
	}
}

// matchPart removes the parting nick, or the whole channel if the local
// user left.
func (conn *Connection) matchPart(msg *Message) {
	if msg.Command != "PART" {
		return
	}

	name := msg.Arg(0)
	if name == "" {
		return
	}

	conn.mu.Lock()
	key := strings.ToLower(name)
	if conn.isSelf(msg.Nick) {
		delete(conn.channels, key)
	} else if channel := conn.channels[key]; channel != nil {
		if !channel.users.Remove(msg.Nick) {
			conn.log.Debug().Str("channel", name).Str("nick", msg.Nick).Msg("PART for a nick not on record")
		}
	}
	conn.mu.Unlock()

	conn.emit(&Event{
		Kind: EventPart,
		Nick: msg.Nick, User: msg.User, Host: msg.Host,
		Target: name, Text: msg.Text,
	})
}

// matchKick is PART with the affected nick in the second parameter.
func (conn *Connection) matchKick(msg *Message) {
	if msg.Command != "KICK" {
		return
	}

	name := msg.Arg(0)
	victim := msg.Arg(1)
	if name == "" || victim == "" {
		return
	}

	conn.mu.Lock()
	key := strings.ToLower(name)
	if conn.isSelf(victim) {
		delete(conn.channels, key)
	} else if channel := conn.channels[key]; channel != nil {
		if !channel.users.Remove(victim) {
			conn.log.Debug().Str("channel", name).Str("nick", victim).Msg("KICK for a nick not on record")
		}
	}
	conn.mu.Unlock()

	conn.emit(&Event{
		Kind: EventKick,
		Nick: msg.Nick, User: msg.User, Host: msg.Host,
		Target: name, Args: []string{victim}, Text: msg.Text,
	})
}

// matchNick re-keys the renamed nick in every channel, preserving prefixes,
// and follows a rename of the local user.
func (conn *Connection) matchNick(msg *Message) {
	if msg.Command != "NICK" {
		return
	}

	newNick := msg.Arg(0)
	if newNick == "" {
		newNick = msg.Text
	}
	if newNick == "" {
		return
	}

	conn.mu.Lock()
	for _, channel := range conn.channels {
		channel.users.Rename(msg.Nick, newNick)
	}
	if conn.isSelf(msg.Nick) {
		conn.nick = newNick
	}
	conn.mu.Unlock()

	conn.emit(&Event{
		Kind: EventNick,
		Nick: msg.Nick, User: msg.User, Host: msg.Host,
		Args: []string{newNick},
	})
}
