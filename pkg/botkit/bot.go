// Copyright 2024-2026 Aiku AI

package botkit

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync/atomic"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// BackgroundTask is a long-running concurrent unit scheduled once the
// session becomes live. It should return when its context is cancelled.
type BackgroundTask func(ctx context.Context)

// Bot wires the command registry, event handlers and session runner
// around a Transport. Construct it with New (production transport) or
// NewWithTransport, register commands and tasks, then call Run.
//
// All registration methods must be called before Run; the registry and
// handler list are read-only once the session is running.
type Bot struct {
	config    *Config
	transport Transport
	registry  *Registry
	prefixRe  *regexp.Regexp
	handlers  []EventHandler
	tasks     []BackgroundTask

	initialInfo bool
	running     atomic.Bool
	log         zerolog.Logger
}

// New creates a bot with the production Matrix transport.
func New(cfg *Config, log zerolog.Logger) (*Bot, error) {
	transport, err := NewMatrixTransport(cfg, log)
	if err != nil {
		return nil, err
	}
	return NewWithTransport(cfg, transport, log)
}

// NewWithTransport creates a bot on an externally supplied transport.
func NewWithTransport(cfg *Config, transport Transport, log zerolog.Logger) (*Bot, error) {
	prefixRe, err := prefixPattern(cfg.Matrix.CommandPrefix)
	if err != nil {
		return nil, fmt.Errorf("compile command prefix: %w", err)
	}
	return &Bot{
		config:    cfg,
		transport: transport,
		registry:  &Registry{},
		prefixRe:  prefixRe,
		log:       log,
	}, nil
}

// RegisterCommand appends a command to the registry. Registration order
// is the dispatch priority order.
func (b *Bot) RegisterCommand(cmd Command) error {
	if b.running.Load() {
		return errors.New("cannot register commands while the session is running")
	}
	return b.registry.Register(cmd)
}

// AddBackgroundTask registers a task to run alongside the sync loop.
// Tasks added after the session starts are not picked up.
func (b *Bot) AddBackgroundTask(task BackgroundTask) {
	b.tasks = append(b.tasks, task)
}

// EnableInitialInfo makes the bot send its help page to every room it
// joins via auto-join.
func (b *Bot) EnableInitialInfo() {
	b.initialInfo = true
}

// Registry exposes the command registry, e.g. for rendering help text
// outside the built-in command.
func (b *Bot) Registry() *Registry {
	return b.registry
}

// Run starts the session and blocks until it ends. Cancelling the
// context stops the bot gracefully and returns nil; authentication
// rejection and fatal errors are returned. Transient network failures
// are retried internally and never surface here.
func (b *Bot) Run(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return errors.New("bot is already running")
	}
	b.ensureHelpCommand()

	d := &dispatcher{
		bot:      b,
		registry: b.registry,
		prefix:   b.config.Matrix.CommandPrefix,
		prefixRe: b.prefixRe,
		log:      b.log.With().Str("component", "dispatcher").Logger(),
	}
	for _, handler := range b.handlers {
		b.transport.OnEvent(handler)
	}
	b.transport.OnEvent(d.handle)

	return newRunner(b).run(ctx)
}

// SendText sends a plain text message. Delivery failures are logged and
// not propagated; sends are fire-and-forget from the caller's view.
func (b *Bot) SendText(ctx context.Context, roomID id.RoomID, body string) {
	b.send(ctx, roomID, TextMessage(body, ""))
}

// SendNotice sends a silent notice message.
func (b *Bot) SendNotice(ctx context.Context, roomID id.RoomID, body string) {
	b.send(ctx, roomID, NoticeMessage(body, ""))
}

// SendMarkdown renders the body as markdown and sends it.
func (b *Bot) SendMarkdown(ctx context.Context, roomID id.RoomID, body string) {
	b.send(ctx, roomID, MarkdownMessage(body))
}

// SendReply sends a rich reply to the given event.
func (b *Bot) SendReply(ctx context.Context, roomID id.RoomID, inReplyTo *Event, body string) {
	b.send(ctx, roomID, ReplyMessage(body, roomID, inReplyTo))
}

func (b *Bot) send(ctx context.Context, roomID id.RoomID, content *event.MessageEventContent) {
	if err := b.transport.SendMessage(ctx, roomID, content); err != nil {
		b.log.Error().Err(err).Str("room_id", string(roomID)).Msg("Failed to send message")
	}
}
