package ledger

import (
	"testing"

	"github.com/hyperengineering/liferpg/internal/types"
)

func TestDefaultState_XPAtSeedFloor(t *testing.T) {
	s := DefaultState()

	if len(s.Quests) != 8 {
		t.Fatalf("quests = %d, want 8", len(s.Quests))
	}
	if s.XP != 230 {
		t.Errorf("XP = %d, want 230", s.XP)
	}
	if s.Version != SchemaVersion {
		t.Errorf("Version = %d, want %d", s.Version, SchemaVersion)
	}
}

func TestDefaultQuests_FreshCopy(t *testing.T) {
	a := DefaultQuests()
	a[0].Title = "changed"
	if DefaultQuests()[0].Title == "changed" {
		t.Error("DefaultQuests shares backing storage")
	}
}

func TestReconcile_ClimbsNeverLowers(t *testing.T) {
	s := types.LedgerState{
		XP: 10,
		Quests: []types.Quest{
			{ID: "a", XP: 100, Completed: true},
			{ID: "b", XP: 500},
		},
		Achievements: []types.Achievement{
			{ID: "quest-a", XP: 100},
			{ID: "bonus-1", XP: 25},
		},
	}

	if got := SeedFloor(s); got != 125 {
		t.Errorf("SeedFloor = %d, want 125", got)
	}
	if got := Reconcile(s).XP; got != 125 {
		t.Errorf("Reconcile XP = %d, want 125", got)
	}

	s.XP = 9000
	if got := Reconcile(s).XP; got != 9000 {
		t.Errorf("Reconcile lowered XP to %d", got)
	}
}
