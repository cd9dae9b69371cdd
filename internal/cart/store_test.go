package cart

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"crafthub/internal/bus"
	"crafthub/internal/gateway"
	"crafthub/internal/session"
	"crafthub/internal/store"
)

// fakeBackend serves the cart endpoints and records every request so tests
// can assert the mutate-then-refetch call sequence.
type fakeBackend struct {
	mu       sync.Mutex
	requests []string
	body     string // current GET /cart response
	failNext int    // status to answer the next mutation with, 0 = ok
}

func (f *fakeBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.RequestURI())
		fail := f.failNext
		body := f.body
		f.mu.Unlock()

		if r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, body)
			return
		}
		if fail != 0 {
			f.mu.Lock()
			f.failNext = 0
			f.mu.Unlock()
			w.WriteHeader(fail)
			fmt.Fprint(w, `{"message":"Недостаточно товара на складе"}`)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func (f *fakeBackend) setBody(body string) {
	f.mu.Lock()
	f.body = body
	f.mu.Unlock()
}

func (f *fakeBackend) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	copy(out, f.requests)
	return out
}

func testCart(t *testing.T) (*Store, *fakeBackend, *bus.Bus) {
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
	sessions, err := session.New(db, b)
	if err != nil {
		t.Fatal(err)
	}
	if err := sessions.SetAuth(session.Identity{Email: "b@x", FullName: "B", Role: session.RoleBuyer}, "tok"); err != nil {
		t.Fatal(err)
	}

	backend := &fakeBackend{body: `{"items":[],"totalAmount":0}`}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	api := gateway.New(srv.URL, sessions, zap.NewNop())
	return New(api, b), backend, b
}

func TestFetchReplacesWholesale(t *testing.T) {
	s, backend, _ := testCart(t)
	backend.setBody(`{"items":[{"productId":5,"productName":"Vase","price":10,"quantity":2,"imageUrl":"v.jpg","stockQuantity":2}],"totalAmount":20}`)

	if err := s.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}

	items := s.Items()
	if len(items) != 1 || items[0].ProductID != 5 || items[0].Quantity != 2 {
		t.Fatalf("items = %+v", items)
	}
	if s.Total().String() != "20" {
		t.Errorf("total = %s, want 20", s.Total())
	}
	if s.TotalQuantity() != 2 {
		t.Errorf("TotalQuantity = %d, want 2", s.TotalQuantity())
	}

	// The next fetch fully replaces, it never merges.
	backend.setBody(`{"items":[],"totalAmount":0}`)
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(s.Items()) != 0 || s.TotalQuantity() != 0 {
		t.Errorf("stale items survived a fetch: %+v", s.Items())
	}
}

// The server clamps quantity 3 down to available stock 2. The displayed
// total must come from the server's snapshot, never from 3×10 computed
// locally.
func TestUpdateQuantityUsesServerTruth(t *testing.T) {
	s, backend, _ := testCart(t)
	backend.setBody(`{"items":[{"productId":5,"productName":"Vase","price":10,"quantity":2,"imageUrl":"","stockQuantity":2}],"totalAmount":20}`)
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateQuantity(context.Background(), 5, 3); err != nil {
		t.Fatal(err)
	}

	calls := backend.calls()
	want := []string{"GET /cart", "PATCH /cart/items/5?quantity=3", "GET /cart"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call[%d] = %q, want %q", i, calls[i], want[i])
		}
	}

	items := s.Items()
	if items[0].Quantity != 2 {
		t.Errorf("quantity = %d, want the server-clamped 2", items[0].Quantity)
	}
	if s.Total().String() != "20" {
		t.Errorf("total = %s, want server truth 20", s.Total())
	}
}

func TestAddItemRejectionLeavesStateUntouched(t *testing.T) {
	s, backend, _ := testCart(t)
	backend.setBody(`{"items":[{"productId":5,"productName":"Vase","price":10,"quantity":2,"imageUrl":"","stockQuantity":2}],"totalAmount":20}`)
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := s.Items()
	beforeCalls := len(backend.calls())

	backend.mu.Lock()
	backend.failNext = http.StatusConflict
	backend.mu.Unlock()

	err := s.AddItem(context.Background(), 7)
	if err == nil {
		t.Fatal("AddItem should fail for out-of-stock product")
	}

	after := s.Items()
	if len(after) != len(before) || after[0] != before[0] {
		t.Errorf("cart changed after failed mutation: %+v -> %+v", before, after)
	}
	// A failed mutation must not trigger the refetch.
	if got := len(backend.calls()); got != beforeCalls+1 {
		t.Errorf("got %d extra calls, want 1 (the failed POST only)", got-beforeCalls)
	}
}

func TestClearServerIdempotent(t *testing.T) {
	s, backend, _ := testCart(t)
	backend.setBody(`{"items":[],"totalAmount":0}`)

	for i := 0; i < 2; i++ {
		if err := s.ClearServer(context.Background()); err != nil {
			t.Fatalf("ClearServer #%d error = %v", i+1, err)
		}
		if len(s.Items()) != 0 {
			t.Fatalf("cart not empty after ClearServer #%d", i+1)
		}
	}
}

func TestMutationPublishesCartUpdated(t *testing.T) {
	s, backend, b := testCart(t)
	backend.setBody(`{"items":[],"totalAmount":0}`)

	ch, unsub := b.Subscribe(bus.KindCartUpdated, 10)
	defer unsub()

	if err := s.AddItem(context.Background(), 5); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no cart.updated event after mutation")
	}
}

func TestClearLocalOnSessionCleared(t *testing.T) {
	s, backend, b := testCart(t)
	backend.setBody(`{"items":[{"productId":1,"productName":"P","price":5,"quantity":1,"imageUrl":"","stockQuantity":9}],"totalAmount":5}`)
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}

	s.Start(context.Background())
	defer s.Stop()

	calls := len(backend.calls())
	b.Publish(bus.Now(bus.KindSessionCleared, nil))

	deadline := time.Now().Add(2 * time.Second)
	for s.TotalQuantity() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.TotalQuantity() != 0 {
		t.Fatal("cart not cleared after session teardown")
	}
	// ClearLocal never talks to the server.
	if got := len(backend.calls()); got != calls {
		t.Errorf("ClearLocal made %d network calls", got-calls)
	}
}
