package ledger

import "testing"

func TestCurrentLevel(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{999, 1},
		{1000, 2},
		{1500, 2},
		{2999, 3},
		{-5, 1},
	}
	for _, tt := range tests {
		if got := CurrentLevel(tt.xp); got != tt.want {
			t.Errorf("CurrentLevel(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestLevelFloor(t *testing.T) {
	if got := LevelFloor(1); got != 0 {
		t.Errorf("LevelFloor(1) = %d, want 0", got)
	}
	if got := LevelFloor(3); got != 2000 {
		t.Errorf("LevelFloor(3) = %d, want 2000", got)
	}
	if got := LevelFloor(0); got != 0 {
		t.Errorf("LevelFloor(0) = %d, want 0", got)
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 0},
		{1000, 0},
		{1500, 50},
		{1994, 99},
		{999, 100},
	}
	for _, tt := range tests {
		if got := ProgressPercent(tt.xp); got != tt.want {
			t.Errorf("ProgressPercent(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestLeveling_Configurable(t *testing.T) {
	l := Leveling{XPPerLevel: 100}
	if got := l.CurrentLevel(250); got != 3 {
		t.Errorf("CurrentLevel(250) = %d, want 3", got)
	}
	if got := l.ProgressPercent(250); got != 50 {
		t.Errorf("ProgressPercent(250) = %d, want 50", got)
	}

	// Zero value falls back to the default threshold.
	if got := (Leveling{}).CurrentLevel(1000); got != 2 {
		t.Errorf("zero Leveling CurrentLevel(1000) = %d, want 2", got)
	}
}

func TestAwardRevoke(t *testing.T) {
	if got := Award(10, 5); got != 15 {
		t.Errorf("Award(10,5) = %d", got)
	}
	if got := Award(10, -5); got != 10 {
		t.Errorf("Award(10,-5) = %d", got)
	}
	if got := Revoke(10, 5); got != 5 {
		t.Errorf("Revoke(10,5) = %d", got)
	}
	if got := Revoke(10, 50); got != 0 {
		t.Errorf("Revoke(10,50) = %d, want 0", got)
	}
}
