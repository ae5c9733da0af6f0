// Copyright 2024-2026 Aiku AI

package botkit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/id"
)

const (
	defaultJoinRetries  = 3
	defaultJoinInterval = time.Second
)

// AutoJoinOptions configures the invite handler. Empty allow-lists allow
// everything for that dimension; when both lists are set, an invite must
// pass both.
type AutoJoinOptions struct {
	AllowedRooms []id.RoomID
	AllowedUsers []id.UserID
	// Retries is the number of join attempts per invite. Defaults to 3.
	Retries int
}

// EnableAutoJoin makes the bot accept room invites. Must be called before
// the session starts.
func (b *Bot) EnableAutoJoin(opts AutoJoinOptions) {
	retries := opts.Retries
	if retries <= 0 {
		retries = defaultJoinRetries
	}
	joiner := &autoJoiner{
		bot:      b,
		retries:  retries,
		interval: defaultJoinInterval,
		sleep:    sleepCtx,
		log:      b.log.With().Str("component", "autojoin").Logger(),
	}
	b.handlers = append(b.handlers, ApplyFilter(
		joiner.handle,
		AllowRooms(opts.AllowedRooms),
		AllowUsers(opts.AllowedUsers),
	))
}

type autoJoiner struct {
	bot      *Bot
	retries  int
	interval time.Duration
	sleep    func(ctx context.Context, d time.Duration)
	log      zerolog.Logger
}

// handle accepts a room invite with bounded retry. Exhausting the retry
// budget is logged and swallowed; an invite the bot cannot act on must
// not disturb the session. After a successful join with initial info
// enabled, the room state is resynced and the help page is sent to the
// new room.
func (a *autoJoiner) handle(ctx context.Context, room Room, evt *Event) {
	if evt.Kind != EventRoomInvite {
		return
	}
	a.log.Info().
		Str("room_id", string(room.ID)).
		Str("sender", string(evt.Sender)).
		Msg("Accepting room invite")

	joined := false
	for attempt := 1; attempt <= a.retries; attempt++ {
		a.sleep(ctx, a.interval)
		err := a.bot.transport.JoinRoom(ctx, room.ID)
		if err == nil {
			joined = true
			break
		}
		a.log.Error().Err(err).
			Str("room_id", string(room.ID)).
			Int("attempt", attempt).
			Int("retries", a.retries).
			Msg("Failed to join room")
	}
	if !joined {
		a.log.Error().Str("room_id", string(room.ID)).Msg("Giving up on room invite")
		return
	}

	if a.bot.initialInfo {
		if err := a.bot.transport.SyncOnce(ctx, true); err != nil {
			a.log.Warn().Err(err).Msg("Full-state resync after join failed")
		}
		a.bot.sendHelp(ctx, room.ID)
	}
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
