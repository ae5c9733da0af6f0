// Copyright 2024-2026 Aiku AI
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package botkit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// Error taxonomy for the session runner. The transport wraps every
// failure into one of these classes (or leaves it unclassified, which
// the runner treats as fatal).
var (
	// ErrAuthRejected means the homeserver refused the credentials.
	// Retrying with the same credentials cannot succeed.
	ErrAuthRejected = errors.New("login rejected by homeserver")
	// ErrAuthFatal means authentication cannot even be attempted, e.g.
	// the client could not be constructed from the configuration.
	ErrAuthFatal = errors.New("authentication cannot proceed")
	// ErrTransient marks connectivity failures that warrant a reconnect.
	ErrTransient = errors.New("transient network failure")
)

// EventHandler receives inbound events from the transport.
type EventHandler func(ctx context.Context, room Room, evt *Event)

// Transport is the messaging-protocol capability the bot core runs
// against. The production implementation wraps mautrix.Client; tests
// substitute a fake.
type Transport interface {
	// Authenticate logs in with the configured credentials. Failures are
	// classified with ErrAuthRejected, ErrAuthFatal or ErrTransient.
	Authenticate(ctx context.Context) error
	// SyncOnce performs a single synchronization request and delivers
	// the resulting events before returning.
	SyncOnce(ctx context.Context, fullState bool) error
	// SyncForever blocks in the long-poll loop until it fails or the
	// context is cancelled. Cancellation returns nil.
	SyncForever(ctx context.Context) error
	JoinRoom(ctx context.Context, roomID id.RoomID) error
	SendMessage(ctx context.Context, roomID id.RoomID, content *event.MessageEventContent) error
	SetDisplayName(ctx context.Context, name string) error
	UserID() id.UserID
	// OnEvent registers an inbound event handler. Must be called before
	// the session starts; handlers run sequentially per event.
	OnEvent(handler EventHandler)
	// Close releases the connection. Safe to call more than once.
	Close()
}

const defaultSyncTimeout = 30 * time.Second

// matrixTransport implements Transport on a mautrix.Client.
type matrixTransport struct {
	client      *mautrix.Client
	cfg         *MatrixConfig
	syncTimeout time.Duration
	handlers    []EventHandler
	log         zerolog.Logger
}

// NewMatrixTransport builds the production transport from the loaded
// configuration. Room state needed for member counts is kept in an
// in-memory state store fed by the syncer.
func NewMatrixTransport(cfg *Config, log zerolog.Logger) (Transport, error) {
	client, err := mautrix.NewClient(cfg.Matrix.Homeserver, id.UserID(cfg.Matrix.UserID), "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFatal, err)
	}
	logger := log.With().Str("component", "transport").Logger()
	client.Log = logger
	client.StateStore = mautrix.NewMemoryStateStore()

	t := &matrixTransport{
		client:      client,
		cfg:         &cfg.Matrix,
		syncTimeout: defaultSyncTimeout,
		log:         logger,
	}
	syncer := client.Syncer.(*mautrix.DefaultSyncer)
	syncer.OnEvent(client.StateStoreSyncHandler)
	syncer.OnEventType(event.StateMember, t.handleMember)
	syncer.OnEventType(event.EventMessage, t.handleMessage)
	return t, nil
}

func (t *matrixTransport) Authenticate(ctx context.Context) error {
	_, err := t.client.Login(ctx, &mautrix.ReqLogin{
		Type: mautrix.AuthTypePassword,
		Identifier: mautrix.UserIdentifier{
			Type: mautrix.IdentifierTypeUser,
			User: t.cfg.UserID,
		},
		Password:                 t.cfg.UserPassword,
		DeviceID:                 id.DeviceID(t.cfg.DeviceID),
		InitialDeviceDisplayName: t.cfg.DeviceName,
		StoreCredentials:         true,
	})
	return classifyError("login", err)
}

func (t *matrixTransport) SyncOnce(ctx context.Context, fullState bool) error {
	since, err := t.client.Store.LoadNextBatch(ctx, t.client.UserID)
	if err != nil {
		return fmt.Errorf("load next batch: %w", err)
	}
	resp, err := t.client.SyncRequest(ctx, int(t.syncTimeout.Milliseconds()), since, "", fullState, t.client.SyncPresence)
	if err != nil {
		return classifyError("sync", err)
	}
	if err = t.client.Syncer.ProcessResponse(ctx, resp, since); err != nil {
		return fmt.Errorf("process sync response: %w", err)
	}
	if err = t.client.Store.SaveNextBatch(ctx, t.client.UserID, resp.NextBatch); err != nil {
		return fmt.Errorf("save next batch: %w", err)
	}
	return nil
}

func (t *matrixTransport) SyncForever(ctx context.Context) error {
	err := t.client.SyncWithContext(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return classifyError("sync", err)
}

func (t *matrixTransport) JoinRoom(ctx context.Context, roomID id.RoomID) error {
	_, err := t.client.JoinRoomByID(ctx, roomID)
	return classifyError("join room", err)
}

func (t *matrixTransport) SendMessage(ctx context.Context, roomID id.RoomID, content *event.MessageEventContent) error {
	_, err := t.client.SendMessageEvent(ctx, roomID, event.EventMessage, content)
	return classifyError("send message", err)
}

func (t *matrixTransport) SetDisplayName(ctx context.Context, name string) error {
	return classifyError("set display name", t.client.SetDisplayName(ctx, name))
}

func (t *matrixTransport) UserID() id.UserID {
	return t.client.UserID
}

func (t *matrixTransport) OnEvent(handler EventHandler) {
	t.handlers = append(t.handlers, handler)
}

func (t *matrixTransport) Close() {
	t.client.StopSync()
	t.client.Client.CloseIdleConnections()
}

func (t *matrixTransport) dispatch(ctx context.Context, room Room, evt *Event) {
	for _, handler := range t.handlers {
		handler(ctx, room, evt)
	}
}

// handleMember forwards invites addressed to the bot. Other membership
// transitions only feed the state store.
func (t *matrixTransport) handleMember(ctx context.Context, evt *event.Event) {
	if evt.GetStateKey() != string(t.client.UserID) {
		return
	}
	if evt.Content.AsMember().Membership != event.MembershipInvite {
		return
	}
	t.log.Debug().
		Str("room_id", string(evt.RoomID)).
		Str("sender", string(evt.Sender)).
		Msg("Received room invite")
	t.dispatch(ctx, t.roomSnapshot(ctx, evt.RoomID), &Event{
		Kind:   EventRoomInvite,
		ID:     evt.ID,
		Sender: evt.Sender,
	})
}

func (t *matrixTransport) handleMessage(ctx context.Context, evt *event.Event) {
	content := evt.Content.AsMessage()
	if content.MsgType != event.MsgText {
		return
	}
	t.dispatch(ctx, t.roomSnapshot(ctx, evt.RoomID), &Event{
		Kind:   EventTextMessage,
		ID:     evt.ID,
		Sender: evt.Sender,
		Body:   content.Body,
	})
}

func (t *matrixTransport) roomSnapshot(ctx context.Context, roomID id.RoomID) Room {
	members, err := t.client.StateStore.GetRoomJoinedOrInvitedMembers(ctx, roomID)
	if err != nil {
		t.log.Warn().Err(err).Str("room_id", string(roomID)).Msg("Failed to count room members")
	}
	return Room{ID: roomID, MemberCount: len(members)}
}

// classifyError maps a transport failure onto the runner's error
// taxonomy. Credential rejections become ErrAuthRejected, connectivity
// failures become ErrTransient, everything else passes through wrapped
// with the operation name.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, mautrix.MForbidden):
		err = fmt.Errorf("%w: %v", ErrAuthRejected, err)
	case isNetworkError(err):
		err = fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isNetworkError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
