// Copyright 2024-2026 Aiku AI
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Command mautrix-botkit runs a reference bot on the botkit framework:
// it auto-joins rooms it is invited to, answers a ping command and
// echoes everything else back. Mostly useful as a wiring example and as
// a smoke test against a real homeserver.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.mau.fi/util/exzerolog"

	"github.com/aiku/mautrix-botkit/pkg/botkit"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := botkit.LoadConfig(*configPath)
	if errors.Is(err, botkit.ErrConfigCreated) {
		fmt.Fprintf(os.Stderr, "Wrote a config template to %s, edit it and start again\n", *configPath)
		os.Exit(2)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := cfg.Logging.Compile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	exzerolog.SetupDefaults(log)

	bot, err := botkit.New(cfg, *log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	err = bot.RegisterCommand(botkit.Command{
		Handler: func(ctx context.Context, b *botkit.Bot, room botkit.Room, evt *botkit.Event) {
			b.SendReply(ctx, room.ID, evt, "pong")
		},
		Aliases:     []string{"ping"},
		Description: "Checks whether the bot is alive",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register ping command")
	}
	err = bot.RegisterCommand(botkit.Command{
		Handler: func(ctx context.Context, b *botkit.Bot, room botkit.Room, evt *botkit.Event) {
			body := strings.TrimSpace(strings.TrimPrefix(evt.Command, "echo"))
			if body != "" {
				b.SendText(ctx, room.ID, body)
			}
		},
		Aliases:     []string{"echo"},
		Default:     true,
		Syntax:      "<text>",
		Description: "Repeats the given text",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register echo command")
	}

	bot.EnableAutoJoin(botkit.AutoJoinOptions{})
	bot.EnableInitialInfo()

	log.Info().
		Str("tag", Tag).
		Str("commit", Commit).
		Str("build_time", BuildTime).
		Msg("Starting mautrix-botkit")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := bot.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Bot exited with error")
	}
	log.Info().Msg("Bot stopped")
}
