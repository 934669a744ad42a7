// Package notify delivers dashboard renders and user-facing notifications to
// whatever is presenting the profile: websocket clients, the log, or nothing.
package notify

import (
	"log/slog"

	"github.com/hyperengineering/liferpg/internal/types"
)

// Kind identifies a notification.
type Kind string

const (
	KindQuestCompleted Kind = "quest_completed"
	KindLevelUp        Kind = "level_up"
	KindBonus          Kind = "bonus"
)

// Event is a single notification raised by a ledger mutation.
type Event struct {
	Kind  Kind   `json:"kind"`
	Title string `json:"title"`
	XP    int    `json:"xp"`
	Level int    `json:"level"`
}

// Notifier receives the dashboard after every change and the events the
// change raised. Implementations must not call back into the profile service.
type Notifier interface {
	Render(d types.Dashboard)
	Notify(e Event)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Render(types.Dashboard) {}
func (Nop) Notify(Event)           {}

// Log writes events to the default slog logger. Renders are not logged.
type Log struct{}

func (Log) Render(types.Dashboard) {}

func (Log) Notify(e Event) {
	slog.Info("notification",
		"component", "notify",
		"kind", string(e.Kind),
		"title", e.Title,
		"xp", e.XP,
		"level", e.Level,
	)
}

// Multi fans out to every notifier in order.
type Multi []Notifier

func (m Multi) Render(d types.Dashboard) {
	for _, n := range m {
		n.Render(d)
	}
}

func (m Multi) Notify(e Event) {
	for _, n := range m {
		n.Notify(e)
	}
}
