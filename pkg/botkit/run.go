// Copyright 2024-2026 Aiku AI

package botkit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultReconnectBackoff = 15 * time.Second

// runner drives the session lifecycle: authenticate, initial full-state
// sync, then the long-poll loop, reconnecting with a fixed backoff on
// transient network failure. One runner instance serves one Run call.
type runner struct {
	bot     *Bot
	backoff time.Duration
	sleep   func(ctx context.Context, d time.Duration)
	log     zerolog.Logger

	displayNameSet bool
	tasksStarted   bool
	taskCtx        context.Context
	wg             sync.WaitGroup
}

func newRunner(bot *Bot) *runner {
	return &runner{
		bot:     bot,
		backoff: defaultReconnectBackoff,
		sleep:   sleepCtx,
		log:     bot.log.With().Str("component", "session").Logger(),
	}
}

// run loops over session attempts until the session ends for a reason
// other than a transient network failure. Context cancellation is the
// graceful stop: it always returns nil. Background tasks are joined
// before run returns.
func (r *runner) run(ctx context.Context) error {
	// Tasks get their own context so they are told to stop even when the
	// session ends for a reason other than cancellation of ctx.
	var cancelTasks context.CancelFunc
	r.taskCtx, cancelTasks = context.WithCancel(ctx)
	defer r.wg.Wait()
	defer cancelTasks()
	for {
		err := r.runOnce(ctx)
		if ctx.Err() != nil {
			r.log.Info().Msg("Session interrupted, shutting down")
			return nil
		}
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrTransient):
			r.log.Warn().Err(err).
				Dur("backoff", r.backoff).
				Msg("Lost connection to homeserver, reconnecting")
			r.sleep(ctx, r.backoff)
		case errors.Is(err, ErrAuthRejected):
			r.log.Error().Err(err).Msg("Homeserver rejected credentials")
			return err
		default:
			r.log.Error().Err(err).Msg("Session terminated")
			return err
		}
	}
}

// runOnce performs a single authenticate-and-sync cycle. The transport
// is closed exactly once per cycle, on every exit path.
func (r *runner) runOnce(ctx context.Context) error {
	defer r.bot.transport.Close()

	if err := r.bot.transport.Authenticate(ctx); err != nil {
		return err
	}
	r.log.Info().Str("user_id", string(r.bot.transport.UserID())).Msg("Logged in")

	// The session is only live after one full-state sync, so handlers
	// and background tasks never observe an incomplete room-state cache.
	if err := r.bot.transport.SyncOnce(ctx, true); err != nil {
		return err
	}

	r.setDisplayName(ctx)
	r.startTasks()

	return r.bot.transport.SyncForever(ctx)
}

// setDisplayName applies the configured display name once per process,
// after the first full sync. Reconnects do not repeat it.
func (r *runner) setDisplayName(ctx context.Context) {
	name := r.bot.config.Matrix.DisplayName
	if name == "" || r.displayNameSet {
		return
	}
	r.displayNameSet = true
	if err := r.bot.transport.SetDisplayName(ctx, name); err != nil {
		r.log.Warn().Err(err).Str("display_name", name).Msg("Failed to set display name")
		return
	}
	r.log.Info().Str("display_name", name).Msg("Display name set")
}

// startTasks schedules every registered background task exactly once.
// Tasks run as peers of the sync loop and are joined at shutdown.
func (r *runner) startTasks() {
	if r.tasksStarted {
		return
	}
	r.tasksStarted = true
	for _, task := range r.bot.tasks {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			task(r.taskCtx)
		}()
	}
	if len(r.bot.tasks) > 0 {
		r.log.Info().Int("count", len(r.bot.tasks)).Msg("Started background tasks")
	}
}
