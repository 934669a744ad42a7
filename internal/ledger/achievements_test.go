package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/hyperengineering/liferpg/internal/types"
)

func TestAppendAchievement_IdempotentByID(t *testing.T) {
	log := []types.Achievement{{ID: "a", Title: "first", XP: 5}}

	out, added := AppendAchievement(log, types.Achievement{ID: "a", Title: "second", XP: 99})
	if added {
		t.Error("expected duplicate id to be rejected")
	}
	if len(out) != 1 || out[0].Title != "first" {
		t.Errorf("log = %+v", out)
	}

	out, added = AppendAchievement(out, types.Achievement{ID: "b"})
	if !added || len(out) != 2 {
		t.Errorf("added = %v len = %d", added, len(out))
	}
}

func TestRemoveAchievement(t *testing.T) {
	log := []types.Achievement{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	out, removed := RemoveAchievement(log, "b")
	if !removed || len(out) != 2 || out[0].ID != "a" || out[1].ID != "c" {
		t.Errorf("removed = %v out = %+v", removed, out)
	}
	if log[1].ID != "b" {
		t.Error("input slice was modified")
	}

	out, removed = RemoveAchievement(out, "zzz")
	if removed || len(out) != 2 {
		t.Error("removing absent id should be a no-op")
	}
}

func TestFindAchievement_NotFound(t *testing.T) {
	if _, err := FindAchievement(nil, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRecentFirst(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }
	log := []types.Achievement{
		{ID: "old", Date: day(1)},
		{ID: "tie-1", Date: day(5)},
		{ID: "new", Date: day(9)},
		{ID: "tie-2", Date: day(5)},
	}

	got := RecentFirst(log, 0)
	want := []string{"new", "tie-1", "tie-2", "old"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
	}
	if log[0].ID != "old" {
		t.Error("input slice was reordered")
	}

	limited := RecentFirst(log, 2)
	if len(limited) != 2 || limited[1].ID != "tie-1" {
		t.Errorf("limited = %v", ids(limited))
	}
	if len(RecentFirst(log, 10)) != 4 {
		t.Error("limit above length should return everything")
	}
}

func ids(as []types.Achievement) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.ID
	}
	return out
}
