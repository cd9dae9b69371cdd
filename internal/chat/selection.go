package chat

import (
	"fmt"
	"slices"
	"sync"

	"crafthub/internal/bus"
)

// Phase is the conversation-view addressing state.
type Phase string

const (
	// PhaseNone: nothing selected; only the dialogue list is polled.
	PhaseNone Phase = "NO_SELECTION"
	// PhaseDraft: counterpart and product are known from navigation, but the
	// server has not assigned a dialogue id yet.
	PhaseDraft Phase = "DRAFT"
	// PhaseActive: a real dialogue id is known; its messages are polled too.
	PhaseActive Phase = "ACTIVE"
)

// validTransitions defines allowed phase transitions. Self-transitions on
// Draft and Active cover re-addressing (switching dialogues, navigating to a
// different draft target).
var validTransitions = map[Phase][]Phase{
	PhaseNone:   {PhaseDraft, PhaseActive},
	PhaseDraft:  {PhaseDraft, PhaseActive, PhaseNone},
	PhaseActive: {PhaseActive, PhaseDraft, PhaseNone},
}

// Draft addresses a conversation that exists only as navigation parameters.
type Draft struct {
	ProductID   int64
	RecipientID int64
	Name        string
}

// Selection tracks and enforces the conversation addressing state. Adopting
// the server-assigned id on first send goes through here, which is what
// keeps a racing second send from creating a second dialogue.
type Selection struct {
	mu         sync.RWMutex
	phase      Phase
	dialogueID int64
	draft      Draft
	bus        *bus.Bus
}

// NewSelection creates a selection starting with nothing selected.
func NewSelection(b *bus.Bus) *Selection {
	return &Selection{phase: PhaseNone, bus: b}
}

// Phase returns the current phase.
func (s *Selection) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// ActiveID returns the active dialogue id, ok=false unless PhaseActive.
func (s *Selection) ActiveID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dialogueID, s.phase == PhaseActive
}

// DraftTarget returns the draft addressing, ok=false unless PhaseDraft.
func (s *Selection) DraftTarget() (Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft, s.phase == PhaseDraft
}

// Select addresses an existing dialogue by id.
func (s *Selection) Select(dialogueID int64) error {
	return s.transition(PhaseActive, func() {
		s.dialogueID = dialogueID
		s.draft = Draft{}
	})
}

// StartDraft addresses a not-yet-created conversation by its navigation
// parameters.
func (s *Selection) StartDraft(d Draft) error {
	return s.transition(PhaseDraft, func() {
		s.dialogueID = 0
		s.draft = d
	})
}

// Adopt installs the server-assigned id after the first send of a draft.
// Once adopted, stale draft parameters are gone and every later send
// addresses the dialogue by id.
func (s *Selection) Adopt(dialogueID int64) error {
	s.mu.Lock()
	if s.phase != PhaseDraft {
		s.mu.Unlock()
		return fmt.Errorf("adopt: not in draft (phase %s)", s.phase)
	}
	s.phase = PhaseActive
	s.dialogueID = dialogueID
	s.draft = Draft{}
	s.mu.Unlock()

	s.publish()
	return nil
}

// Clear returns to no selection (dialogue deleted, view closed).
func (s *Selection) Clear() error {
	if s.Phase() == PhaseNone {
		return nil
	}
	return s.transition(PhaseNone, func() {
		s.dialogueID = 0
		s.draft = Draft{}
	})
}

func (s *Selection) transition(to Phase, apply func()) error {
	s.mu.Lock()
	allowed := validTransitions[s.phase]
	if !slices.Contains(allowed, to) {
		from := s.phase
		s.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	s.phase = to
	apply()
	s.mu.Unlock()

	s.publish()
	return nil
}

func (s *Selection) publish() {
	if s.bus != nil {
		s.bus.Publish(bus.Now(bus.KindSelectionChanged, s.Phase()))
	}
}
