package types

import (
	"encoding/json"
	"time"
)

// Quest is a user-defined task that awards XP when completed.
type Quest struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	XP        int    `json:"xp"`
	Completed bool   `json:"completed"`
	Private   bool   `json:"private"`
}

// Achievement is an immutable log entry recording an XP-granting event.
type Achievement struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	XP    int       `json:"xp"`
	Date  time.Time `json:"date"`
}

// LedgerState is the complete persisted aggregate.
type LedgerState struct {
	Version      int           `json:"version"`
	XP           int           `json:"xp"`
	Quests       []Quest       `json:"quests"`
	Achievements []Achievement `json:"achievements"`
	PrivateMode  bool          `json:"privateMode"`
}

// Clone returns a deep copy so transitions never alias the caller's slices.
func (s LedgerState) Clone() LedgerState {
	out := s
	if s.Quests != nil {
		out.Quests = make([]Quest, len(s.Quests))
		copy(out.Quests, s.Quests)
	}
	if s.Achievements != nil {
		out.Achievements = make([]Achievement, len(s.Achievements))
		copy(out.Achievements, s.Achievements)
	}
	return out
}

// MarshalJSON ensures nil slices in LedgerState marshal as [] not null.
func (s LedgerState) MarshalJSON() ([]byte, error) {
	if s.Quests == nil {
		s.Quests = []Quest{}
	}
	if s.Achievements == nil {
		s.Achievements = []Achievement{}
	}
	type Alias LedgerState
	return json.Marshal(Alias(s))
}

// NewQuest is the input for creating a quest (without generated fields).
type NewQuest struct {
	Title     string `json:"title"`
	Category  string `json:"category"`
	XP        int    `json:"xp"`
	Completed bool   `json:"completed"`
	Private   bool   `json:"private"`
}

// QuestPatch carries the fields of an edit. Nil fields are left unchanged.
type QuestPatch struct {
	Title     *string `json:"title,omitempty"`
	Category  *string `json:"category,omitempty"`
	XP        *int    `json:"xp,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	Private   *bool   `json:"private,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p QuestPatch) Empty() bool {
	return p.Title == nil && p.Category == nil && p.XP == nil && p.Completed == nil && p.Private == nil
}

// Dashboard is the read model rendered by the profile view.
type Dashboard struct {
	// Revision increases with every dashboard a profile builds, so consumers
	// can discard renders that arrive out of order.
	Revision         uint64        `json:"revision"`
	Name             string        `json:"name,omitempty"`
	XP               int           `json:"xp"`
	Level            int           `json:"level"`
	ProgressPercent  int           `json:"progress_percent"`
	LevelFloorXP     int           `json:"level_floor_xp"`
	NextLevelXP      int           `json:"next_level_xp"`
	Quests           []Quest       `json:"quests"`
	Achievements     []Achievement `json:"achievements"`
	PrivateMode      bool          `json:"private_mode"`
	CompletedQuests  int           `json:"completed_quests"`
	TotalQuests      int           `json:"total_quests"`
	HiddenQuestCount int           `json:"hidden_quest_count"`
}

// MarshalJSON ensures nil slices in Dashboard marshal as [] not null.
func (d Dashboard) MarshalJSON() ([]byte, error) {
	if d.Quests == nil {
		d.Quests = []Quest{}
	}
	if d.Achievements == nil {
		d.Achievements = []Achievement{}
	}
	type Alias Dashboard
	return json.Marshal(Alias(d))
}

// MutationResult describes the outcome of a state-changing operation.
type MutationResult struct {
	Quest       *Quest       `json:"quest,omitempty"`
	Achievement *Achievement `json:"achievement,omitempty"`
	XP          int          `json:"xp"`
	XPDelta     int          `json:"xp_delta"`
	LevelBefore int          `json:"level_before"`
	LevelAfter  int          `json:"level_after"`
	LevelUp     bool         `json:"level_up"`
	// Persisted is false when the in-memory change could not be saved.
	Persisted bool `json:"persisted"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	SchemaVersion int    `json:"schema_version"`
	Level         int    `json:"level"`
	QuestCount    int    `json:"quest_count"`
	Subscribers   int    `json:"subscribers"`
}

// GateResult describes the outcome of a private-mode or PIN operation.
type GateResult struct {
	Granted     bool `json:"granted"`
	PrivateMode bool `json:"private_mode"`
	Persisted   bool `json:"persisted"`
}

// BonusRequest is the body of POST /achievements/bonus.
type BonusRequest struct {
	Title string `json:"title"`
	XP    int    `json:"xp"`
}

// PINRequest is the body of POST /private/enter.
type PINRequest struct {
	PIN string `json:"pin"`
}

// ChangePINRequest is the body of PUT /pin.
type ChangePINRequest struct {
	Current string `json:"current"`
	New     string `json:"new"`
	Confirm string `json:"confirm"`
}

// DisablePINRequest is the body of DELETE /pin.
type DisablePINRequest struct {
	Current string `json:"current"`
}

// ResetRequest is the optional body of POST /reset.
type ResetRequest struct {
	ForgetPIN bool `json:"forget_pin"`
}
