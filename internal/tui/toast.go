package tui

import "time"

const (
	maxToasts = 3
	toastTTL  = 3 * time.Second
)

// Level colors a toast.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

// Toast is one transient message.
type Toast struct {
	ID      int
	Text    string
	Level   Level
	Expires time.Time
}

// Toasts keeps at most maxToasts messages, evicting the oldest.
type Toasts struct {
	items  []Toast
	nextID int
}

// Push adds a toast that expires toastTTL after now.
func (t *Toasts) Push(text string, level Level, now time.Time) Toast {
	t.nextID++
	toast := Toast{ID: t.nextID, Text: text, Level: level, Expires: now.Add(toastTTL)}
	t.items = append(t.items, toast)
	if len(t.items) > maxToasts {
		t.items = append([]Toast(nil), t.items[len(t.items)-maxToasts:]...)
	}
	return toast
}

// Expire drops toasts whose deadline is not after now.
func (t *Toasts) Expire(now time.Time) {
	kept := t.items[:0]
	for _, toast := range t.items {
		if toast.Expires.After(now) {
			kept = append(kept, toast)
		}
	}
	t.items = kept
}

// Items returns the live toasts, oldest first.
func (t Toasts) Items() []Toast {
	return append([]Toast(nil), t.items...)
}
