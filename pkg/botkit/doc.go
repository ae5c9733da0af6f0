// Copyright 2024-2026 Aiku AI
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package botkit is a small framework for writing Matrix bots on top of
// mautrix. It owns the session lifecycle (login, initial full-state
// sync, long-poll loop, reconnect with backoff) and routes inbound text
// messages to registered commands by prefix and alias.
//
// # Core Types
//
// [Bot] is the entry point: construct it from a [Config], register
// commands and background tasks, then call [Bot.Run]. The run loop only
// returns on context cancellation, credential rejection, or a fatal
// error; transient network failures reconnect internally.
//
// [Command] describes one registered command: a handler, one or more
// aliases (literal prefixes or regular expressions), optional default
// flag, and the syntax/description lines used by the generated help
// command.
//
// [Transport] abstracts the homeserver connection. The production
// implementation wraps mautrix.Client; tests substitute fakes.
//
// # Dispatch Rules
//
// A message is dispatched when it starts with the configured command
// prefix followed by a space or end of string, or unconditionally in
// private rooms (at most two members). The bot's own messages are never
// dispatched. Commands are scanned in registration order and the first
// match wins; if nothing matches, the first command registered with
// Default set receives the event.
package botkit
