package core

import (
	"fmt"
	"sync"
	"testing"
)

func TestPresenceRegisterLookupUnregister(t *testing.T) {
	p := NewPresence()

	p.Register("c1", 7, "alice")

	entry, ok := p.Lookup("c1")
	if !ok {
		t.Fatal("expected entry after register")
	}
	if entry.UserID != 7 || entry.Username != "alice" || entry.RoomID != 0 {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	p.SetRoom("c1", 42)
	entry, _ = p.Lookup("c1")
	if entry.RoomID != 42 {
		t.Fatalf("expected room 42, got %d", entry.RoomID)
	}

	last, ok := p.Unregister("c1")
	if !ok {
		t.Fatal("expected first unregister to succeed")
	}
	if last.RoomID != 42 {
		t.Fatalf("expected last entry to keep room, got %+v", last)
	}

	if _, ok := p.Unregister("c1"); ok {
		t.Fatal("expected second unregister to report missing")
	}
	if _, ok := p.Lookup("c1"); ok {
		t.Fatal("expected entry gone after unregister")
	}
}

func TestPresenceSetRoomUnknownConnIsNoOp(t *testing.T) {
	p := NewPresence()

	p.SetRoom("ghost", 5)

	if _, ok := p.Lookup("ghost"); ok {
		t.Fatal("SetRoom must not create entries")
	}
}

func TestPresenceCountInRoom(t *testing.T) {
	p := NewPresence()

	p.Register("c1", 1, "alice")
	p.Register("c2", 2, "bob")
	p.Register("c3", 3, "carol")

	p.SetRoom("c1", 10)
	p.SetRoom("c2", 10)
	p.SetRoom("c3", 20)

	if got := p.CountInRoom(10); got != 2 {
		t.Fatalf("expected 2 in room 10, got %d", got)
	}
	if got := p.CountInRoom(20); got != 1 {
		t.Fatalf("expected 1 in room 20, got %d", got)
	}

	p.SetRoom("c2", 0)
	if got := p.CountInRoom(10); got != 1 {
		t.Fatalf("expected 1 after clearing, got %d", got)
	}
}

func TestPresenceConcurrentAccess(t *testing.T) {
	p := NewPresence()

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			connID := fmt.Sprintf("c%d", n)
			p.Register(connID, int64(n+1), "user")
			for j := 0; j < 200; j++ {
				p.SetRoom(connID, int64(j%3))
				p.Lookup(connID)
				p.CountInRoom(1)
			}
			p.SetRoom(connID, 1)
		}(i)
	}
	wg.Wait()

	if got := p.CountInRoom(1); got != workers {
		t.Fatalf("expected %d connections in room 1, got %d", workers, got)
	}
	for i := 0; i < workers; i++ {
		connID := fmt.Sprintf("c%d", i)
		if _, ok := p.Unregister(connID); !ok {
			t.Fatalf("expected %s to still be registered", connID)
		}
	}
	if got := p.CountInRoom(1); got != 0 {
		t.Fatalf("expected empty registry, got %d in room 1", got)
	}
}
