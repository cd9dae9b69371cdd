package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"crafthub/internal/bus"
	"crafthub/internal/gateway"
	"crafthub/internal/session"
	"crafthub/internal/store"
)

// fakeBackend serves the chat endpoints. Send answers with a bare dialogue
// id and records each decoded request body so tests can assert how each
// message was addressed.
type fakeBackend struct {
	mu        sync.Mutex
	requests  []string
	sends     []sendRequest
	dialogues string
	messages  string
	nextID    int64
	findID    int64 // 0 = answer 404
}

func (f *fakeBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests = append(f.requests, r.Method+" "+r.URL.RequestURI())

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/chat/send":
			var req sendRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.sends = append(f.sends, req)
			id := f.nextID
			if req.DialogueID != nil {
				id = *req.DialogueID
			}
			fmt.Fprintf(w, "%d", id)
		case r.Method == http.MethodGet && r.URL.Path == "/chat":
			fmt.Fprint(w, f.dialogues)
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/messages"):
			fmt.Fprint(w, f.messages)
		case r.Method == http.MethodGet && r.URL.Path == "/chat/find":
			if f.findID == 0 {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message":"Диалог не найден"}`)
				return
			}
			fmt.Fprintf(w, "%d", f.findID)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (f *fakeBackend) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *fakeBackend) sentBodies() []sendRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sendRequest, len(f.sends))
	copy(out, f.sends)
	return out
}

func testChat(t *testing.T) (*Store, *fakeBackend) {
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

	backend := &fakeBackend{dialogues: `[]`, messages: `[]`, nextID: 42}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	api := gateway.New(srv.URL, sessions, zap.NewNop())
	return New(api, b, zap.NewNop(), time.Hour), backend
}

func TestRefreshFetchesDialogues(t *testing.T) {
	s, backend := testChat(t)
	backend.dialogues = `[{"id":1,"productId":5,"productName":"Vase","interlocutorId":9,"interlocutorName":"Anna","lastMessage":"hi","lastMessageTime":"2026-08-27T10:00:00","unreadCount":2}]`

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	dialogues := s.Dialogues()
	if len(dialogues) != 1 || dialogues[0].InterlocutorName != "Anna" || dialogues[0].UnreadCount != 2 {
		t.Fatalf("dialogues = %+v", dialogues)
	}
	// Nothing selected, so no message fetch happened.
	for _, call := range backend.calls() {
		if strings.Contains(call, "/messages") {
			t.Errorf("messages fetched with no selection: %s", call)
		}
	}
}

func TestRefreshFetchesActiveMessages(t *testing.T) {
	s, backend := testChat(t)
	backend.messages = `[{"id":10,"text":"hello","senderId":9,"senderName":"Anna","isMine":false,"isRead":true,"createdAt":"2026-08-27T10:00:00"}]`

	if err := s.Selection().Select(1); err != nil {
		t.Fatal(err)
	}
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Text != "hello" || msgs[0].IsMine {
		t.Fatalf("messages = %+v", msgs)
	}

	// Leaving the conversation drops the message list on the next tick.
	if err := s.Selection().Clear(); err != nil {
		t.Fatal(err)
	}
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(s.Messages()) != 0 {
		t.Errorf("messages survived deselection: %+v", s.Messages())
	}
}

// First send of a draft carries (productId, recipientId) and adopts the id
// the server returns; the second send addresses that id, so a duplicate
// dialogue can never be created.
func TestDraftAdoptsDialogueOnFirstSend(t *testing.T) {
	s, backend := testChat(t)

	if err := s.Selection().StartDraft(Draft{ProductID: 5, RecipientID: 9, Name: "Anna"}); err != nil {
		t.Fatal(err)
	}

	id, err := s.Send(context.Background(), "first")
	if err != nil {
		t.Fatal(err)
	}
	if id != 42 {
		t.Fatalf("dialogue id = %d, want 42", id)
	}
	if got, ok := s.Selection().ActiveID(); !ok || got != 42 {
		t.Fatalf("selection after send = %v %v, want active 42", got, ok)
	}

	if _, err := s.Send(context.Background(), "second"); err != nil {
		t.Fatal(err)
	}

	sends := backend.sentBodies()
	if len(sends) != 2 {
		t.Fatalf("sends = %d, want 2", len(sends))
	}
	if sends[0].DialogueID != nil || sends[0].ProductID == nil || *sends[0].ProductID != 5 || *sends[0].RecipientID != 9 {
		t.Errorf("first send addressed wrong: %+v", sends[0])
	}
	if sends[1].DialogueID == nil || *sends[1].DialogueID != 42 || sends[1].ProductID != nil {
		t.Errorf("second send should address the adopted id: %+v", sends[1])
	}
}

func TestSendRejectsEmptyText(t *testing.T) {
	s, backend := testChat(t)
	if err := s.Selection().Select(1); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Send(context.Background(), "   "); err != ErrEmptyMessage {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}
	if len(backend.calls()) != 0 {
		t.Errorf("blank message reached the network: %v", backend.calls())
	}
}

func TestSendWithoutSelection(t *testing.T) {
	s, backend := testChat(t)

	if _, err := s.Send(context.Background(), "hi"); err != ErrNoRecipient {
		t.Fatalf("err = %v, want ErrNoRecipient", err)
	}
	if len(backend.calls()) != 0 {
		t.Errorf("unaddressed message reached the network: %v", backend.calls())
	}
}

func TestDeleteClearsActiveSelection(t *testing.T) {
	s, backend := testChat(t)

	if err := s.Selection().Select(7); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(context.Background(), 7); err != nil {
		t.Fatal(err)
	}

	if s.Selection().Phase() != PhaseNone {
		t.Errorf("phase = %s, want %s", s.Selection().Phase(), PhaseNone)
	}
	calls := backend.calls()
	if len(calls) == 0 || calls[0] != "DELETE /chat/7" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestDeleteOtherKeepsSelection(t *testing.T) {
	s, _ := testChat(t)

	if err := s.Selection().Select(7); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(context.Background(), 8); err != nil {
		t.Fatal(err)
	}
	if id, ok := s.Selection().ActiveID(); !ok || id != 7 {
		t.Errorf("selection = %v %v, want active 7", id, ok)
	}
}

func TestFind(t *testing.T) {
	s, backend := testChat(t)

	if _, found, err := s.Find(context.Background(), 5, 9); err != nil || found {
		t.Fatalf("find on missing dialogue = %v, %v", found, err)
	}

	backend.findID = 13
	id, found, err := s.Find(context.Background(), 5, 9)
	if err != nil || !found || id != 13 {
		t.Fatalf("find = %d, %v, %v", id, found, err)
	}

	calls := backend.calls()
	if calls[0] != "GET /chat/find?productId=5&recipientId=9" {
		t.Errorf("find request = %s", calls[0])
	}
}
