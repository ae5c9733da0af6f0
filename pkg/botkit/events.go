// Copyright 2024-2026 Aiku AI

package botkit

import (
	"maunium.net/go/mautrix/id"
)

// EventKind tags the kinds of inbound events the bot core cares about.
// Everything else the transport may deliver is EventOther.
type EventKind int

const (
	EventOther EventKind = iota
	// EventRoomInvite is delivered when the bot is invited to a room.
	EventRoomInvite
	// EventTextMessage is delivered for m.text room messages.
	EventTextMessage
)

// Room is a snapshot of the room an event arrived in. MemberCount is the
// number of joined or invited members at delivery time and is used to
// distinguish direct chats from group rooms.
type Room struct {
	ID          id.RoomID
	MemberCount int
}

// IsPrivate reports whether the room is considered a direct chat: the bot
// and at most one other user. Messages in private rooms are treated as
// addressed to the bot even without the command prefix.
func (r Room) IsPrivate() bool {
	return r.MemberCount <= 2
}

// Event is an inbound protocol event, reduced to the fields the dispatch
// layer needs.
type Event struct {
	Kind   EventKind
	ID     id.EventID
	Sender id.UserID
	// Body is the raw message body as received. It is never mutated.
	Body string
	// Command is the prefix-stripped, whitespace-trimmed command body.
	// It is derived by the dispatcher before a handler is invoked and is
	// empty on events that never reached the dispatcher.
	Command string
}
