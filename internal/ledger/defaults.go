package ledger

import (
	"strings"
	"time"

	"github.com/hyperengineering/liferpg/internal/types"
)

// SchemaVersion is the version of the persisted state document.
const SchemaVersion = 1

var seedDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var defaultQuests = []types.Quest{
	{ID: "q1", Category: "Travel", Title: "Visit 10+ countries", XP: 100},
	{ID: "q2", Category: "Travel", Title: "Go on a solo trip", XP: 50},
	{ID: "q3", Category: "Travel", Title: "Take a road trip across Kenya", XP: 30, Completed: true},
	{ID: "q4", Category: "Skills", Title: "Learn Python", XP: 50, Completed: true},
	{ID: "q5", Category: "Skills", Title: "Build a personal website", XP: 50, Completed: true},
	{ID: "q6", Category: "Legacy", Title: "Start a foundation", XP: 200},
	{ID: "q7", Category: "Fun", Title: "Skydiving", XP: 50},
	{ID: "q8", Category: "Relationships", Title: "Apologize to those you've wronged", XP: 50, Completed: true},
}

var seedAchievements = []types.Achievement{
	{ID: SeedAchievementPrefix + "character-created", Title: "Character Created", XP: 0, Date: seedDate},
	{ID: SeedAchievementPrefix + "system-boot", Title: "Profile System Online", XP: 50, Date: seedDate},
}

// DefaultQuests returns a fresh copy of the built-in quest set.
func DefaultQuests() []types.Quest {
	out := make([]types.Quest, len(defaultQuests))
	copy(out, defaultQuests)
	return out
}

// SeedAchievements returns a fresh copy of the built-in achievements.
func SeedAchievements() []types.Achievement {
	out := make([]types.Achievement, len(seedAchievements))
	copy(out, seedAchievements)
	return out
}

// DefaultState returns the built-in state with XP reconciled to its floor.
func DefaultState() types.LedgerState {
	return Reconcile(types.LedgerState{
		Version:      SchemaVersion,
		Quests:       DefaultQuests(),
		Achievements: SeedAchievements(),
	})
}

// SeedFloor is the least XP a state may assert: completed quest XP plus the XP
// of every achievement not derived from a quest (those repeat the quest's XP).
func SeedFloor(s types.LedgerState) int {
	floor := 0
	for _, q := range s.Quests {
		if q.Completed {
			floor += clampXP(q.XP)
		}
	}
	for _, a := range s.Achievements {
		if strings.HasPrefix(a.ID, QuestAchievementPrefix) {
			continue
		}
		floor += clampXP(a.XP)
	}
	return floor
}

// Reconcile climbs XP up to SeedFloor. It never lowers XP.
func Reconcile(s types.LedgerState) types.LedgerState {
	floor := SeedFloor(s)
	if s.XP >= floor {
		return s
	}
	next := s.Clone()
	next.XP = floor
	return next
}
