package ledger

import "github.com/hyperengineering/liferpg/internal/types"

// Dashboard builds the read model for s. limit caps the achievement list
// (<= 0 for all).
func (l Ledger) Dashboard(s types.LedgerState, limit int) types.Dashboard {
	level := l.Leveling.CurrentLevel(s.XP)
	visible := VisibleQuests(s)

	completed := 0
	for _, q := range s.Quests {
		if q.Completed {
			completed++
		}
	}

	return types.Dashboard{
		XP:               s.XP,
		Level:            level,
		ProgressPercent:  l.Leveling.ProgressPercent(s.XP),
		LevelFloorXP:     l.Leveling.LevelFloor(level),
		NextLevelXP:      l.Leveling.LevelFloor(level + 1),
		Quests:           visible,
		Achievements:     RecentFirst(s.Achievements, limit),
		PrivateMode:      s.PrivateMode,
		CompletedQuests:  completed,
		TotalQuests:      len(s.Quests),
		HiddenQuestCount: len(s.Quests) - len(visible),
	}
}
