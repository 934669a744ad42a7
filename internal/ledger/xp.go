package ledger

import "math"

// DefaultXPPerLevel is the fixed per-level threshold used by every profile
// unless configured otherwise.
const DefaultXPPerLevel = 1000

// Leveling derives levels from a running XP total.
type Leveling struct {
	XPPerLevel int
}

// DefaultLeveling uses DefaultXPPerLevel.
var DefaultLeveling = Leveling{XPPerLevel: DefaultXPPerLevel}

func (l Leveling) perLevel() int {
	if l.XPPerLevel <= 0 {
		return DefaultXPPerLevel
	}
	return l.XPPerLevel
}

// CurrentLevel returns floor(xp / XPPerLevel) + 1. Level 1 starts at 0 XP.
func (l Leveling) CurrentLevel(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/l.perLevel() + 1
}

// LevelFloor returns the total XP at which the given level begins.
func (l Leveling) LevelFloor(level int) int {
	if level < 1 {
		level = 1
	}
	return (level - 1) * l.perLevel()
}

// ProgressPercent returns progress through the current level in [0,100].
func (l Leveling) ProgressPercent(xp int) int {
	if xp < 0 {
		xp = 0
	}
	into := xp - l.LevelFloor(l.CurrentLevel(xp))
	pct := int(math.Round(float64(into) / float64(l.perLevel()) * 100))
	switch {
	case pct > 100:
		return 100
	case pct < 0:
		return 0
	}
	return pct
}

// CurrentLevel uses DefaultLeveling.
func CurrentLevel(xp int) int { return DefaultLeveling.CurrentLevel(xp) }

// LevelFloor uses DefaultLeveling.
func LevelFloor(level int) int { return DefaultLeveling.LevelFloor(level) }

// ProgressPercent uses DefaultLeveling.
func ProgressPercent(xp int) int { return DefaultLeveling.ProgressPercent(xp) }

// Award adds delta to total. Negative deltas award nothing; there is no ceiling.
func Award(total, delta int) int {
	if delta < 0 {
		delta = 0
	}
	return total + delta
}

// Revoke subtracts delta from total, flooring the result at 0.
func Revoke(total, delta int) int {
	if delta < 0 {
		delta = 0
	}
	if total-delta < 0 {
		return 0
	}
	return total - delta
}
