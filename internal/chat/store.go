// Package chat keeps the dialogue list and the active conversation live by
// timed re-fetch. A conversation can be addressed two ways: by dialogue id,
// or — before the server has created it — by a (product, recipient) draft
// pair carried in navigation parameters. The first successful send of a
// draft adopts the id the server returns.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"crafthub/internal/bus"
	"crafthub/internal/gateway"
	"crafthub/internal/poll"
)

// ErrEmptyMessage is returned before any request is made when the message
// text is blank.
var ErrEmptyMessage = errors.New("message text is empty")

// ErrNoRecipient is returned when Send is called with nothing selected.
var ErrNoRecipient = errors.New("no dialogue or draft selected")

// Dialogue is one row of the conversation list.
type Dialogue struct {
	ID               int64  `json:"id"`
	ProductID        int64  `json:"productId"`
	ProductName      string `json:"productName"`
	ProductImage     string `json:"productImage"`
	InterlocutorID   int64  `json:"interlocutorId"`
	InterlocutorName string `json:"interlocutorName"`
	LastMessage      string `json:"lastMessage"`
	LastMessageTime  string `json:"lastMessageTime"`
	UnreadCount      int64  `json:"unreadCount"`
}

// Message is a single chat message.
type Message struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	SenderID   int64  `json:"senderId"`
	SenderName string `json:"senderName"`
	IsMine     bool   `json:"isMine"`
	IsRead     bool   `json:"isRead"`
	CreatedAt  string `json:"createdAt"`
}

// sendRequest matches POST /chat/send. Exactly one of DialogueID or the
// (ProductID, RecipientID) pair is set; absent fields serialize as null.
type sendRequest struct {
	Text        string `json:"text"`
	DialogueID  *int64 `json:"dialogueId"`
	ProductID   *int64 `json:"productId"`
	RecipientID *int64 `json:"recipientId"`
}

// Store is the chat store: dialogue list, active message list, and the
// selection machine that addresses them.
type Store struct {
	mu        sync.RWMutex
	api       *gateway.Client
	bus       *bus.Bus
	logger    *zap.Logger
	sel       *Selection
	dialogues []Dialogue
	messages  []Message
	poller    *poll.Poller
}

// New creates a chat store polling at the given interval.
func New(api *gateway.Client, b *bus.Bus, logger *zap.Logger, interval time.Duration) *Store {
	s := &Store{api: api, bus: b, logger: logger, sel: NewSelection(b)}
	s.poller = poll.New("chat", interval, logger, s.Refresh)
	return s
}

// Selection exposes the addressing machine for the view layer.
func (s *Store) Selection() *Selection {
	return s.sel
}

// Start begins polling.
func (s *Store) Start(ctx context.Context) {
	s.poller.Start(ctx)
}

// Stop cancels polling.
func (s *Store) Stop() {
	s.poller.Stop()
}

// Refresh is one poll tick: always re-fetch the dialogue list, and the
// active dialogue's messages when there is one.
func (s *Store) Refresh(ctx context.Context) error {
	if err := s.fetchDialogues(ctx); err != nil {
		return err
	}
	if id, ok := s.sel.ActiveID(); ok {
		return s.fetchMessages(ctx, id)
	}
	// Leaving Active empties the message list.
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
	return nil
}

func (s *Store) fetchDialogues(ctx context.Context) error {
	var dialogues []Dialogue
	if err := s.api.Get(ctx, "/chat", &dialogues); err != nil {
		return fmt.Errorf("fetch dialogues: %w", err)
	}

	s.mu.Lock()
	s.dialogues = dialogues
	s.mu.Unlock()

	s.bus.Publish(bus.Now(bus.KindDialoguesUpdated, nil))
	return nil
}

func (s *Store) fetchMessages(ctx context.Context, dialogueID int64) error {
	var messages []Message
	if err := s.api.Get(ctx, fmt.Sprintf("/chat/%d/messages", dialogueID), &messages); err != nil {
		return fmt.Errorf("fetch messages: %w", err)
	}

	// The selection may have moved while the request was in flight; a stale
	// response must not be installed against the new conversation.
	if id, ok := s.sel.ActiveID(); !ok || id != dialogueID {
		return nil
	}

	s.mu.Lock()
	s.messages = messages
	s.mu.Unlock()

	s.bus.Publish(bus.Now(bus.KindMessagesUpdated, nil))
	return nil
}

// Send posts one message to the currently addressed conversation. In Draft
// the request carries the (product, recipient) pair and, on success, the
// returned dialogue id is adopted — so a racing second send already
// addresses the dialogue by id and cannot create a duplicate. Returns the
// dialogue id the message landed in.
func (s *Store) Send(ctx context.Context, text string) (int64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyMessage
	}

	req := sendRequest{Text: text}
	wasDraft := false
	if id, ok := s.sel.ActiveID(); ok {
		req.DialogueID = &id
	} else if d, ok := s.sel.DraftTarget(); ok {
		req.ProductID = &d.ProductID
		req.RecipientID = &d.RecipientID
		wasDraft = true
	} else {
		return 0, ErrNoRecipient
	}

	var dialogueID int64
	if err := s.api.Post(ctx, "/chat/send", req, &dialogueID); err != nil {
		return 0, err
	}

	if wasDraft {
		if err := s.sel.Adopt(dialogueID); err != nil {
			// Another send adopted first; the id is the same dialogue.
			s.logger.Info("draft already adopted", zap.Int64("dialogue_id", dialogueID))
		}
	}

	// Refresh both collections so the sent message shows without waiting a
	// poll cycle. Send already succeeded; a refresh failure is poll-grade.
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("post-send refresh failed", zap.Error(err))
	}
	return dialogueID, nil
}

// Delete removes a dialogue. If it was the active selection, the view drops
// back to no selection.
func (s *Store) Delete(ctx context.Context, dialogueID int64) error {
	if err := s.api.Delete(ctx, fmt.Sprintf("/chat/%d", dialogueID)); err != nil {
		return err
	}

	if id, ok := s.sel.ActiveID(); ok && id == dialogueID {
		_ = s.sel.Clear()
	}
	return s.Refresh(ctx)
}

// Find asks the server whether a dialogue for this product already exists,
// so navigation can select it directly instead of opening a draft.
func (s *Store) Find(ctx context.Context, productID, recipientID int64) (int64, bool, error) {
	var dialogueID int64
	err := s.api.Get(ctx, fmt.Sprintf("/chat/find?productId=%d&recipientId=%d", productID, recipientID), &dialogueID)
	if err != nil {
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}
	return dialogueID, dialogueID != 0, nil
}

// Dialogues returns a copy of the dialogue list.
func (s *Store) Dialogues() []Dialogue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Dialogue, len(s.dialogues))
	copy(out, s.dialogues)
	return out
}

// Messages returns a copy of the active conversation's messages.
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
