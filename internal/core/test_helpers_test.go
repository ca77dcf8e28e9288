package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/studyroomhq/studyroom-server/internal/store"
)

// mustEvent drains the channel until an event of the wanted kind appears.
// Coordinator calls are synchronous, so delivered events are already queued.
func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	for {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			t.Fatalf("expected event kind %v not received", kind)
			return nil
		}
	}
}

// noEvent asserts that nothing is queued for the client.
func noEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	default:
	}
}

func drain(ch <-chan *Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

type memberKey struct {
	roomID int64
	userID int64
}

// fakeStore is an in-memory core.Store for coordinator tests.
type fakeStore struct {
	mu          sync.Mutex
	memberships map[memberKey]store.RoomMember
	profiles    map[int64]store.PublicProfile
	catalog     map[string]store.PredefinedMessage
	messages    []store.Message
	nextMsgID   int64

	updateErr error // returned by the next UpdateMemberStatus calls
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		memberships: make(map[memberKey]store.RoomMember),
		profiles:    make(map[int64]store.PublicProfile),
		catalog:     make(map[string]store.PredefinedMessage),
	}
}

func (f *fakeStore) addUser(id int64, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[id] = store.PublicProfile{ID: id, Username: username, AvatarID: 1}
}

func (f *fakeStore) addMember(roomID, userID int64, status store.MemberStatus, subject *string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberships[memberKey{roomID, userID}] = store.RoomMember{
		RoomID:   roomID,
		UserID:   userID,
		Status:   status,
		Subject:  subject,
		JoinedAt: time.Now(),
	}
}

func (f *fakeStore) addCatalogEntry(key, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog[key] = store.PredefinedMessage{Key: key, Content: content}
}

func (f *fakeStore) membership(roomID, userID int64) (store.RoomMember, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memberships[memberKey{roomID, userID}]
	return m, ok
}

func (f *fakeStore) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeStore) FindMembership(ctx context.Context, roomID, userID int64) (*store.RoomMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memberships[memberKey{roomID, userID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := m
	return &copied, nil
}

func (f *fakeStore) UpdateMemberStatus(ctx context.Context, roomID, userID int64, status store.MemberStatus, subject *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	key := memberKey{roomID, userID}
	m, ok := f.memberships[key]
	if !ok {
		return store.ErrNotFound
	}
	m.Status = status
	m.Subject = subject
	f.memberships[key] = m
	return nil
}

func (f *fakeStore) GetPredefinedMessage(ctx context.Context, key string) (*store.PredefinedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pm, ok := f.catalog[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := pm
	return &copied, nil
}

func (f *fakeStore) GetPublicProfile(ctx context.Context, id int64) (*store.PublicProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := p
	return &copied, nil
}

func (f *fakeStore) SaveMessage(ctx context.Context, roomID, senderID int64, messageKey string) (*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextMsgID++
	msg := store.Message{
		ID:         f.nextMsgID,
		RoomID:     roomID,
		SenderID:   senderID,
		MessageKey: messageKey,
		CreatedAt:  time.Now(),
	}
	f.messages = append(f.messages, msg)
	copied := msg
	return &copied, nil
}

func newTestCoordinator(st Store) *Coordinator {
	logger := zerolog.Nop()
	return NewCoordinator(st, &logger)
}

func strPtr(s string) *string { return &s }
