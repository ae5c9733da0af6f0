// Copyright 2024-2026 Aiku AI

package botkit

import (
	"context"

	"maunium.net/go/mautrix/id"
)

// Filter decides whether an event should be delivered to a handler.
type Filter func(room Room, evt *Event) bool

// ApplyFilter wraps a handler so it only runs when every filter accepts
// the event. Filters are evaluated in order and short-circuit on the
// first rejection.
func ApplyFilter(handler EventHandler, filters ...Filter) EventHandler {
	return func(ctx context.Context, room Room, evt *Event) {
		for _, filter := range filters {
			if !filter(room, evt) {
				return
			}
		}
		handler(ctx, room, evt)
	}
}

// AllowRooms returns a filter that accepts events only from the given
// rooms. A nil or empty list allows all rooms.
func AllowRooms(roomIDs []id.RoomID) Filter {
	if len(roomIDs) == 0 {
		return func(Room, *Event) bool { return true }
	}
	allowed := make(map[id.RoomID]struct{}, len(roomIDs))
	for _, roomID := range roomIDs {
		allowed[roomID] = struct{}{}
	}
	return func(room Room, _ *Event) bool {
		_, ok := allowed[room.ID]
		return ok
	}
}

// AllowUsers returns a filter that accepts events only from the given
// senders. A nil or empty list allows all senders.
func AllowUsers(userIDs []id.UserID) Filter {
	if len(userIDs) == 0 {
		return func(Room, *Event) bool { return true }
	}
	allowed := make(map[id.UserID]struct{}, len(userIDs))
	for _, userID := range userIDs {
		allowed[userID] = struct{}{}
	}
	return func(_ Room, evt *Event) bool {
		_, ok := allowed[evt.Sender]
		return ok
	}
}
