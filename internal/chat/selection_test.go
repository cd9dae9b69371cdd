package chat

import (
	"testing"

	"crafthub/internal/bus"
)

func TestSelectionTransitions(t *testing.T) {
	s := NewSelection(bus.New())

	if s.Phase() != PhaseNone {
		t.Fatalf("initial phase = %s", s.Phase())
	}
	if _, ok := s.ActiveID(); ok {
		t.Fatal("ActiveID reported with nothing selected")
	}

	if err := s.StartDraft(Draft{ProductID: 7, RecipientID: 3, Name: "Anna"}); err != nil {
		t.Fatal(err)
	}
	if s.Phase() != PhaseDraft {
		t.Fatalf("phase = %s, want %s", s.Phase(), PhaseDraft)
	}
	d, ok := s.DraftTarget()
	if !ok || d.ProductID != 7 || d.RecipientID != 3 {
		t.Fatalf("draft = %+v, %v", d, ok)
	}

	if err := s.Adopt(42); err != nil {
		t.Fatal(err)
	}
	if id, ok := s.ActiveID(); !ok || id != 42 {
		t.Fatalf("ActiveID = %d, %v", id, ok)
	}
	if _, ok := s.DraftTarget(); ok {
		t.Error("draft target survived adoption")
	}
}

func TestAdoptOnlyFromDraft(t *testing.T) {
	s := NewSelection(bus.New())

	if err := s.Adopt(1); err == nil {
		t.Error("Adopt with nothing selected accepted")
	}

	if err := s.Select(5); err != nil {
		t.Fatal(err)
	}
	if err := s.Adopt(9); err == nil {
		t.Error("Adopt from an active selection accepted")
	}
	if id, _ := s.ActiveID(); id != 5 {
		t.Errorf("active id = %d, want 5", id)
	}
}

func TestReaddressing(t *testing.T) {
	s := NewSelection(bus.New())

	if err := s.Select(1); err != nil {
		t.Fatal(err)
	}
	// Switching straight to another dialogue is allowed.
	if err := s.Select(2); err != nil {
		t.Fatal(err)
	}
	// So is opening a draft from an active conversation.
	if err := s.StartDraft(Draft{ProductID: 1, RecipientID: 2}); err != nil {
		t.Fatal(err)
	}
	if s.Phase() != PhaseDraft {
		t.Fatalf("phase = %s, want %s", s.Phase(), PhaseDraft)
	}

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if s.Phase() != PhaseNone {
		t.Fatalf("phase after clear = %s", s.Phase())
	}
	// Clearing an empty selection stays a no-op.
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
}

func TestSelectionPublishes(t *testing.T) {
	b := bus.New()
	events, unsub := b.Subscribe("chat", 8)
	defer unsub()

	s := NewSelection(b)
	if err := s.Select(3); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-events:
		if ev.Kind != bus.KindSelectionChanged {
			t.Errorf("kind = %s, want %s", ev.Kind, bus.KindSelectionChanged)
		}
	default:
		t.Error("no selection event published")
	}
}
