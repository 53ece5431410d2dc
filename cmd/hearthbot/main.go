// Command hearthbot is a small IRC bot built on the client core. It stays
// connected to one server, joins its configured channels, and answers card
// lookup commands from an extracted card collection.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/hearthlink/irc"
	"github.com/hearthlink/irc/ircutil"
)

func main() {
	var configPath string
	var debug bool

	fs := flag.NewFlagSet("hearthbot", flag.ContinueOnError)
	fs.StringVarP(&configPath, "config", "c", "hearthbot.yaml", "Path to the settings file")
	fs.BoolVarP(&debug, "debug", "d", false, "Log at debug level")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	if !debug {
		logger = logger.Level(zerolog.InfoLevel)
	}

	settings, err := LoadSettings(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load settings")
	}

	var cards *CardIndex
	if settings.CardsPath != "" {
		cards, err = LoadCards(settings.CardsPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("could not load card collection")
		}
		logger.Info().Int("cards", cards.Len()).Str("path", settings.CardsPath).Msg("card collection loaded")
	}

	client := irc.New(irc.Config{
		Timeout: time.Duration(settings.Timeout),
		Logger:  &logger,
	})
	defer client.Close()

	disconnected := make(chan struct{}, 1)
	client.Subscribe(irc.EventDisconnect, func(_ *irc.Connection, _ *irc.Event) {
		select {
		case disconnected <- struct{}{}:
		default:
		}
	})

	client.Subscribe(irc.EventConnect, func(conn *irc.Connection, _ *irc.Event) {
		logger.Info().Str("nick", conn.Nick()).Msg("registered")
		for _, channel := range settings.Channels {
			if err := conn.Sendf("JOIN %s", channel); err != nil {
				logger.Warn().Err(err).Str("channel", channel).Msg("join failed")
			}
		}
	})

	client.Subscribe(irc.EventServerError, func(_ *irc.Connection, event *irc.Event) {
		logger.Warn().Str("reason", event.Text).Msg("server closed the connection")
	})
	client.Subscribe(irc.EventError, func(_ *irc.Connection, event *irc.Event) {
		logger.Error().Err(event.Err).Msg("connection error")
	})

	if cards != nil {
		client.Subscribe(irc.EventPrivmsg, func(conn *irc.Connection, event *irc.Event) {
			answerCardLookup(conn, event, settings.Trigger, cards, &logger)
		})
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	for {
		err := client.Connect(settings.Nick, settings.User, settings.RealName,
			settings.Server, settings.Port, settings.Password)
		if err != nil {
			logger.Error().Err(err).Str("server", settings.Server).Msg("connect failed")
			select {
			case <-interrupt:
				return
			case <-time.After(time.Duration(settings.ReconnectDelay)):
				continue
			}
		}

		logger.Info().Str("server", settings.Server).Int("port", settings.Port).Msg("connected")

		select {
		case <-interrupt:
			logger.Info().Msg("shutting down")
			return
		case <-disconnected:
		}

		logger.Warn().Dur("delay", time.Duration(settings.ReconnectDelay)).Msg("disconnected, will reconnect")
		select {
		case <-interrupt:
			return
		case <-time.After(time.Duration(settings.ReconnectDelay)):
		}
	}
}

// answerCardLookup handles "<trigger> <name>" in channels and private
// messages. Replies go to the channel, or back to the sender for a PM.
func answerCardLookup(conn *irc.Connection, event *irc.Event, trigger string, cards *CardIndex, logger *zerolog.Logger) {
	if !strings.HasPrefix(event.Text, trigger+" ") {
		return
	}
	name := strings.TrimSpace(event.Text[len(trigger)+1:])
	if name == "" {
		return
	}

	replyTo := event.Target
	if !conn.ISupport().IsChannel(replyTo) {
		replyTo = event.Nick
	}

	card, ok := cards.Lookup(name)
	if !ok {
		_ = conn.Sendf("PRIVMSG %s :No card matches %q.", replyTo, name)
		return
	}

	logger.Debug().Str("name", name).Str("from", event.Nick).Msg("card lookup")

	overhead := ircutil.MessageOverhead(conn.Nick(), event.User, event.Host, replyTo)
	for _, cut := range ircutil.CutMessage(Describe(card), overhead) {
		if err := conn.Sendf("PRIVMSG %s :%s", replyTo, cut); err != nil {
			logger.Warn().Err(err).Msg("reply failed")
			return
		}
	}
}
