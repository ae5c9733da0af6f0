// Copyright 2024-2026 Aiku AI

package botkit

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

const testBotUserID = id.UserID("@bot:example.org")

type sentMessage struct {
	RoomID  id.RoomID
	Content *event.MessageEventContent
}

// fakeTransport is a scriptable in-memory Transport. The *Func hooks
// default to success; set them to inject failures. All recorded state is
// guarded by mu so tests can poke at it while the runner is live.
type fakeTransport struct {
	mu sync.Mutex

	userID id.UserID

	AuthFunc        func(ctx context.Context) error
	SyncOnceFunc    func(ctx context.Context, fullState bool) error
	SyncForeverFunc func(ctx context.Context) error
	JoinFunc        func(roomID id.RoomID) error
	SendFunc        func(roomID id.RoomID, content *event.MessageEventContent) error

	authCalls        int
	syncOnceCalls    int
	syncForeverCalls int
	joinCalls        []id.RoomID
	sent             []sentMessage
	displayNames     []string
	closeCalls       int
	handlers         []EventHandler
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{userID: testBotUserID}
}

func (f *fakeTransport) Authenticate(ctx context.Context) error {
	f.mu.Lock()
	f.authCalls++
	f.mu.Unlock()
	if f.AuthFunc != nil {
		return f.AuthFunc(ctx)
	}
	return nil
}

func (f *fakeTransport) SyncOnce(ctx context.Context, fullState bool) error {
	f.mu.Lock()
	f.syncOnceCalls++
	f.mu.Unlock()
	if f.SyncOnceFunc != nil {
		return f.SyncOnceFunc(ctx, fullState)
	}
	return nil
}

func (f *fakeTransport) SyncForever(ctx context.Context) error {
	f.mu.Lock()
	f.syncForeverCalls++
	f.mu.Unlock()
	if f.SyncForeverFunc != nil {
		return f.SyncForeverFunc(ctx)
	}
	<-ctx.Done()
	return nil
}

func (f *fakeTransport) JoinRoom(_ context.Context, roomID id.RoomID) error {
	f.mu.Lock()
	f.joinCalls = append(f.joinCalls, roomID)
	f.mu.Unlock()
	if f.JoinFunc != nil {
		return f.JoinFunc(roomID)
	}
	return nil
}

func (f *fakeTransport) SendMessage(_ context.Context, roomID id.RoomID, content *event.MessageEventContent) error {
	f.mu.Lock()
	f.sent = append(f.sent, sentMessage{RoomID: roomID, Content: content})
	f.mu.Unlock()
	if f.SendFunc != nil {
		return f.SendFunc(roomID, content)
	}
	return nil
}

func (f *fakeTransport) SetDisplayName(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.displayNames = append(f.displayNames, name)
	return nil
}

func (f *fakeTransport) UserID() id.UserID {
	return f.userID
}

func (f *fakeTransport) OnEvent(handler EventHandler) {
	f.handlers = append(f.handlers, handler)
}

func (f *fakeTransport) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
}

// deliver pushes an event through the registered handlers, like a sync
// batch would.
func (f *fakeTransport) deliver(ctx context.Context, room Room, evt *Event) {
	for _, handler := range f.handlers {
		handler(ctx, room, evt)
	}
}

func (f *fakeTransport) sentMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeTransport) joinedRooms() []id.RoomID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]id.RoomID(nil), f.joinCalls...)
}

func (f *fakeTransport) counters() (auth, syncOnce, syncForever, closed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authCalls, f.syncOnceCalls, f.syncForeverCalls, f.closeCalls
}

func testConfig(prefix string) *Config {
	return &Config{Matrix: MatrixConfig{
		Homeserver:    "https://example.org",
		UserID:        string(testBotUserID),
		UserPassword:  "hunter2",
		DeviceName:    "test device",
		CommandPrefix: prefix,
	}}
}

func newTestBot(t *testing.T, prefix string) (*Bot, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	bot, err := NewWithTransport(testConfig(prefix), ft, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWithTransport: %v", err)
	}
	return bot, ft
}

func newTestDispatcher(bot *Bot) *dispatcher {
	return &dispatcher{
		bot:      bot,
		registry: bot.registry,
		prefix:   bot.config.Matrix.CommandPrefix,
		prefixRe: bot.prefixRe,
		log:      zerolog.Nop(),
	}
}
