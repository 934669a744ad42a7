package ledger

import (
	"fmt"
	"sort"

	"github.com/hyperengineering/liferpg/internal/types"
)

const (
	// QuestAchievementPrefix prefixes ids of achievements derived from quest completion.
	QuestAchievementPrefix = "quest-"
	// BonusAchievementPrefix prefixes ids of manually granted achievements.
	BonusAchievementPrefix = "bonus-"
	// SeedAchievementPrefix prefixes ids of built-in achievements.
	SeedAchievementPrefix = "seed-"

	questCompletedTitle = "Quest Completed: "
)

// QuestAchievementID returns the derived achievement id for a quest.
func QuestAchievementID(questID string) string {
	return QuestAchievementPrefix + questID
}

// AppendAchievement appends a to log unless an entry with the same id exists.
// The second return value reports whether the entry was added.
func AppendAchievement(log []types.Achievement, a types.Achievement) ([]types.Achievement, bool) {
	if indexOfAchievement(log, a.ID) >= 0 {
		return log, false
	}
	return append(log, a), true
}

// RemoveAchievement removes the entry with the given id, if any.
func RemoveAchievement(log []types.Achievement, id string) ([]types.Achievement, bool) {
	i := indexOfAchievement(log, id)
	if i < 0 {
		return log, false
	}
	out := make([]types.Achievement, 0, len(log)-1)
	out = append(out, log[:i]...)
	out = append(out, log[i+1:]...)
	return out, true
}

// FindAchievement returns the entry with the given id.
func FindAchievement(log []types.Achievement, id string) (types.Achievement, error) {
	i := indexOfAchievement(log, id)
	if i < 0 {
		return types.Achievement{}, fmt.Errorf("achievement %q: %w", id, ErrNotFound)
	}
	return log[i], nil
}

// RecentFirst returns a copy of log sorted by date descending, ties kept in
// insertion order. limit <= 0 returns everything.
func RecentFirst(log []types.Achievement, limit int) []types.Achievement {
	out := make([]types.Achievement, len(log))
	copy(out, log)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

func indexOfAchievement(log []types.Achievement, id string) int {
	for i := range log {
		if log[i].ID == id {
			return i
		}
	}
	return -1
}
