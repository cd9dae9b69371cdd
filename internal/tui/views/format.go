package views

import (
	"sync"
	"time"
)

// backendTime is the timestamp layout the backend emits (LocalDateTime
// without a zone). Rendered as-is when parsing fails.
const backendTime = "2006-01-02T15:04:05"

func formatWhen(s string) string {
	if s == "" {
		return ""
	}
	t, err := time.Parse(backendTime, s)
	if err != nil {
		// Some fields carry fractional seconds.
		t, err = time.Parse(backendTime+".999999999", s)
		if err != nil {
			return s
		}
	}
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("02.01")
}

// Flash holds a transient status-bar message.
type Flash struct {
	mu      sync.RWMutex
	message string
	expires time.Time
}

// Set stores a flash message that expires after the given duration.
func (f *Flash) Set(msg string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = msg
	f.expires = time.Now().Add(d)
}

// Get returns the current flash message, or empty if expired.
func (f *Flash) Get() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if time.Now().After(f.expires) {
		return ""
	}
	return f.message
}
