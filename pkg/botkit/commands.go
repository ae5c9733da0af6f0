// Copyright 2024-2026 Aiku AI

package botkit

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// CommandFunc handles a dispatched command. The event carries the
// prefix-stripped body in Command; the raw body stays in Body.
type CommandFunc func(ctx context.Context, bot *Bot, room Room, evt *Event)

// Command is a single registered command. Aliases are matched literally
// against the start of the stripped body unless AliasIsRegex is set, in
// which case each alias is compiled as a regular expression and a match
// anywhere in the stripped body counts.
type Command struct {
	Handler      CommandFunc
	Aliases      []string
	AliasIsRegex bool
	// Default marks the command invoked when no alias matched. If several
	// commands are registered as default, the first registered wins.
	Default     bool
	Syntax      string
	Description string

	aliasRegexes []*regexp.Regexp
}

func (c *Command) matches(body string) bool {
	if c.AliasIsRegex {
		for _, re := range c.aliasRegexes {
			if re.MatchString(body) {
				return true
			}
		}
		return false
	}
	for _, alias := range c.Aliases {
		if strings.HasPrefix(body, alias) {
			return true
		}
	}
	return false
}

// Registry is an ordered list of commands. Registration order is the
// dispatch priority order: the first matching command wins and no other
// command is evaluated. The registry must not be mutated once the
// session is running.
type Registry struct {
	commands []*Command
}

// Register validates and appends a command. Aliases are not checked for
// collisions; overlapping aliases are resolved by registration order at
// dispatch time.
func (r *Registry) Register(cmd Command) error {
	if cmd.Handler == nil {
		return errors.New("command has no handler")
	}
	if len(cmd.Aliases) == 0 {
		return errors.New("command has no aliases")
	}
	if cmd.AliasIsRegex {
		for _, alias := range cmd.Aliases {
			re, err := regexp.Compile(alias)
			if err != nil {
				return fmt.Errorf("compile alias %q: %w", alias, err)
			}
			cmd.aliasRegexes = append(cmd.aliasRegexes, re)
		}
	}
	r.commands = append(r.commands, &cmd)
	return nil
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []*Command {
	return r.commands
}

func (r *Registry) match(body string) *Command {
	for _, cmd := range r.commands {
		if cmd.matches(body) {
			return cmd
		}
	}
	return nil
}

func (r *Registry) defaultCommand() *Command {
	for _, cmd := range r.commands {
		if cmd.Default {
			return cmd
		}
	}
	return nil
}

// hasLiteralAlias reports whether any non-regex command carries the given
// alias verbatim. Used to decide whether the generated help command is
// needed.
func (r *Registry) hasLiteralAlias(alias string) bool {
	for _, cmd := range r.commands {
		if cmd.AliasIsRegex {
			continue
		}
		for _, a := range cmd.Aliases {
			if a == alias {
				return true
			}
		}
	}
	return false
}

// prefixPattern builds the anchored prefix matcher. The prefix only
// counts when followed by a space or the end of the body, so a prefix of
// "!xyz" does not match "!xyzabc".
func prefixPattern(prefix string) (*regexp.Regexp, error) {
	return regexp.Compile("^" + regexp.QuoteMeta(prefix) + "( |$)")
}

// dispatcher routes inbound text messages to registered commands.
type dispatcher struct {
	bot      *Bot
	registry *Registry
	prefix   string
	prefixRe *regexp.Regexp
	log      zerolog.Logger
}

// handle runs one text message through the routing state machine:
// self-echo drop, prefix boundary check, private-room implicit
// addressing, prefix strip, in-order alias scan, default fallback.
func (d *dispatcher) handle(ctx context.Context, room Room, evt *Event) {
	if evt.Kind != EventTextMessage {
		return
	}
	// Echo prevention: never dispatch the bot's own messages.
	if evt.Sender == d.bot.transport.UserID() {
		return
	}

	hasPrefix := d.prefixRe.MatchString(evt.Body)
	if !hasPrefix && !room.IsPrivate() {
		return
	}

	body := evt.Body
	if hasPrefix {
		body = body[len(d.prefix):]
	}
	derived := *evt
	derived.Command = strings.TrimSpace(body)

	cmd := d.registry.match(derived.Command)
	if cmd == nil {
		cmd = d.registry.defaultCommand()
	}
	if cmd == nil {
		d.log.Debug().
			Str("room_id", string(room.ID)).
			Str("sender", string(evt.Sender)).
			Msg("No command matched and no default registered, dropping")
		return
	}
	d.invoke(ctx, cmd, room, &derived)
}

// invoke runs a command handler with panic recovery so one failing
// handler cannot take down the sync loop.
func (d *dispatcher) invoke(ctx context.Context, cmd *Command, room Room, evt *Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Interface("panic", r).
				Strs("aliases", cmd.Aliases).
				Str("room_id", string(room.ID)).
				Msg("Command handler panicked")
		}
	}()
	cmd.Handler(ctx, d.bot, room, evt)
}
