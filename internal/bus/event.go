package bus

import "time"

// Event kinds published by the stores. Subscribers filter by namespace
// prefix, e.g. "cart." or "session.".
const (
	KindSessionChanged = "session.changed"
	KindSessionCleared = "session.cleared"
	KindSessionExpired = "session.expired"

	KindCartUpdated = "cart.updated"

	KindNotifyUpdated = "notify.updated"

	KindDialoguesUpdated = "chat.dialogues_updated"
	KindMessagesUpdated  = "chat.messages_updated"
	KindSelectionChanged = "chat.selection_changed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Now returns an event of the given kind stamped with the current time.
func Now(kind string, payload any) Event {
	return Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
}
