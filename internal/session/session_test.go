package session

import (
	"path/filepath"
	"testing"
	"time"

	"crafthub/internal/bus"
	"crafthub/internal/store"
)

func testStore(t *testing.T) (*Store, *store.DB, *bus.Bus) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	b := bus.New()
	s, err := New(db, b)
	if err != nil {
		t.Fatal(err)
	}
	return s, db, b
}

func TestSetAuthAndReload(t *testing.T) {
	s, db, b := testStore(t)

	ident := Identity{Email: "buyer@example.com", FullName: "Ivan Petrov", Role: RoleBuyer}
	if err := s.SetAuth(ident, "jwt-abc"); err != nil {
		t.Fatal(err)
	}

	if s.Token() != "jwt-abc" {
		t.Errorf("Token() = %q", s.Token())
	}
	got, ok := s.Identity()
	if !ok || got != ident {
		t.Errorf("Identity() = %+v, %v", got, ok)
	}

	// A fresh store over the same db must see the persisted session.
	reloaded, err := New(db, b)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Token() != "jwt-abc" {
		t.Error("session did not survive reload")
	}
	got, ok = reloaded.Identity()
	if !ok || got.Role != RoleBuyer {
		t.Errorf("reloaded Identity() = %+v, %v", got, ok)
	}
}

func TestSetAuthRejectsPartialPair(t *testing.T) {
	s, _, _ := testStore(t)

	if err := s.SetAuth(Identity{Email: "a@b"}, ""); err == nil {
		t.Error("empty token accepted")
	}
	if err := s.SetAuth(Identity{}, "token"); err == nil {
		t.Error("empty identity accepted")
	}
	if s.Authenticated() {
		t.Error("store authenticated after rejected SetAuth")
	}
}

func TestLogoutClearsBothAndPublishes(t *testing.T) {
	s, db, b := testStore(t)

	ch, unsub := b.Subscribe("session.cleared", 10)
	defer unsub()

	ident := Identity{Email: "buyer@example.com", FullName: "Ivan", Role: RoleBuyer}
	if err := s.SetAuth(ident, "jwt"); err != nil {
		t.Fatal(err)
	}
	if err := s.Logout(); err != nil {
		t.Fatal(err)
	}

	if s.Token() != "" || s.Authenticated() {
		t.Error("session not cleared by Logout")
	}
	creds, err := db.LoadCredentials()
	if err != nil {
		t.Fatal(err)
	}
	if creds != nil {
		t.Error("persisted credentials not removed by Logout")
	}

	select {
	case evt := <-ch:
		if evt.Kind != bus.KindSessionCleared {
			t.Errorf("event kind = %q", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("no session.cleared event")
	}
}

func TestExpirePublishesExpiredAndCleared(t *testing.T) {
	s, _, b := testStore(t)

	ch, unsub := b.Subscribe("session.", 10)
	defer unsub()

	if err := s.SetAuth(Identity{Email: "e@x", FullName: "E", Role: RoleSeller}, "jwt"); err != nil {
		t.Fatal(err)
	}
	// Drain the session.changed event.
	<-ch

	s.Expire()

	kinds := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case evt := <-ch:
			kinds[evt.Kind] = true
		case <-time.After(time.Second):
			t.Fatal("missing expiry events")
		}
	}
	if !kinds[bus.KindSessionExpired] || !kinds[bus.KindSessionCleared] {
		t.Errorf("got events %v, want expired and cleared", kinds)
	}
	if s.Authenticated() {
		t.Error("session still authenticated after Expire")
	}
}
