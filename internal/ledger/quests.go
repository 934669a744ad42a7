package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperengineering/liferpg/internal/types"
)

// Ledger applies state transitions. Every transition works on a clone of the
// input state, so callers either observe the full change or none of it.
type Ledger struct {
	Leveling Leveling
}

// New returns a Ledger using the given XP-per-level threshold.
func New(xpPerLevel int) Ledger {
	return Ledger{Leveling: Leveling{XPPerLevel: xpPerLevel}}
}

// Change describes what a transition did.
type Change struct {
	Quest *types.Quest
	// Achievement is the entry appended by the transition, if any.
	Achievement *types.Achievement
	// XPDelta is the signed change actually applied to the total.
	XPDelta     int
	LevelBefore int
	LevelAfter  int
	LevelUp     bool
	// Completed is set when the quest moved from incomplete to complete.
	Completed bool
	// Uncompleted is set when the quest moved from complete to incomplete.
	Uncompleted bool
}

func (l Ledger) begin(s types.LedgerState) (types.LedgerState, Change) {
	return s.Clone(), Change{LevelBefore: l.Leveling.CurrentLevel(s.XP)}
}

func (l Ledger) finish(before int, next types.LedgerState, c Change) Change {
	c.XPDelta = next.XP - before
	c.LevelAfter = l.Leveling.CurrentLevel(next.XP)
	c.LevelUp = c.LevelAfter > c.LevelBefore
	return c
}

// CreateQuest appends a new quest with the given id. A quest created already
// completed awards its XP and records its achievement as a toggle would.
func (l Ledger) CreateQuest(s types.LedgerState, in types.NewQuest, id string, now time.Time) (types.LedgerState, Change, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return s, Change{}, fmt.Errorf("title is required: %w", ErrInvalidInput)
	}
	if id == "" {
		return s, Change{}, fmt.Errorf("quest id is required: %w", ErrInvalidInput)
	}
	if indexOfQuest(s.Quests, id) >= 0 {
		return s, Change{}, fmt.Errorf("quest %q already exists: %w", id, ErrInvalidInput)
	}

	next, c := l.begin(s)
	q := types.Quest{
		ID:       id,
		Title:    title,
		Category: strings.TrimSpace(in.Category),
		XP:       clampXP(in.XP),
		Private:  in.Private,
	}
	if in.Completed {
		q.Completed = true
		c.Achievement = l.complete(&next, q, now)
		c.Completed = true
	}
	next.Quests = append(next.Quests, q)
	c.Quest = &q
	return next, l.finish(s.XP, next, c), nil
}

// ToggleCompletion flips a quest's completion flag and moves XP and the
// derived achievement with it.
func (l Ledger) ToggleCompletion(s types.LedgerState, id string, now time.Time) (types.LedgerState, Change, error) {
	i := indexOfQuest(s.Quests, id)
	if i < 0 {
		return s, Change{}, fmt.Errorf("quest %q: %w", id, ErrNotFound)
	}

	next, c := l.begin(s)
	q := next.Quests[i]
	q.Completed = !q.Completed
	if q.Completed {
		c.Achievement = l.complete(&next, q, now)
		c.Completed = true
	} else {
		l.uncomplete(&next, q)
		c.Uncompleted = true
	}
	next.Quests[i] = q
	c.Quest = &q
	return next, l.finish(s.XP, next, c), nil
}

// EditQuest applies patch to a quest. A completion transition applies the
// toggle side effects using the patched xp and title; changing xp on a quest
// that stays completed does not touch the total.
func (l Ledger) EditQuest(s types.LedgerState, id string, patch types.QuestPatch, now time.Time) (types.LedgerState, Change, error) {
	i := indexOfQuest(s.Quests, id)
	if i < 0 {
		return s, Change{}, fmt.Errorf("quest %q: %w", id, ErrNotFound)
	}

	next, c := l.begin(s)
	q := next.Quests[i]
	wasCompleted := q.Completed

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return s, Change{}, fmt.Errorf("title is required: %w", ErrInvalidInput)
		}
		q.Title = title
	}
	if patch.Category != nil {
		q.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.XP != nil {
		q.XP = clampXP(*patch.XP)
	}
	if patch.Private != nil {
		q.Private = *patch.Private
	}
	if patch.Completed != nil {
		q.Completed = *patch.Completed
	}

	switch {
	case !wasCompleted && q.Completed:
		c.Achievement = l.complete(&next, q, now)
		c.Completed = true
	case wasCompleted && !q.Completed:
		l.uncomplete(&next, q)
		c.Uncompleted = true
	}

	next.Quests[i] = q
	c.Quest = &q
	return next, l.finish(s.XP, next, c), nil
}

// GrantBonus records a manual achievement and awards its XP.
func (l Ledger) GrantBonus(s types.LedgerState, title string, xp int, id string, now time.Time) (types.LedgerState, Change, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return s, Change{}, fmt.Errorf("title is required: %w", ErrInvalidInput)
	}
	if id == "" {
		return s, Change{}, fmt.Errorf("achievement id is required: %w", ErrInvalidInput)
	}
	if !strings.HasPrefix(id, BonusAchievementPrefix) {
		id = BonusAchievementPrefix + id
	}

	next, c := l.begin(s)
	a := types.Achievement{ID: id, Title: title, XP: clampXP(xp), Date: now}
	var added bool
	next.Achievements, added = AppendAchievement(next.Achievements, a)
	if !added {
		return s, Change{}, fmt.Errorf("achievement %q already exists: %w", id, ErrInvalidInput)
	}
	next.XP = Award(next.XP, a.XP)
	c.Achievement = &a
	return next, l.finish(s.XP, next, c), nil
}

// FindQuestByID returns the quest with the given id.
func FindQuestByID(s types.LedgerState, id string) (types.Quest, error) {
	i := indexOfQuest(s.Quests, id)
	if i < 0 {
		return types.Quest{}, fmt.Errorf("quest %q: %w", id, ErrNotFound)
	}
	return s.Quests[i], nil
}

func (l Ledger) complete(s *types.LedgerState, q types.Quest, now time.Time) *types.Achievement {
	s.XP = Award(s.XP, q.XP)
	a := types.Achievement{
		ID:    QuestAchievementID(q.ID),
		Title: questCompletedTitle + q.Title,
		XP:    q.XP,
		Date:  now,
	}
	var added bool
	s.Achievements, added = AppendAchievement(s.Achievements, a)
	if !added {
		return nil
	}
	return &a
}

func (l Ledger) uncomplete(s *types.LedgerState, q types.Quest) {
	s.XP = Revoke(s.XP, q.XP)
	s.Achievements, _ = RemoveAchievement(s.Achievements, QuestAchievementID(q.ID))
}

func indexOfQuest(quests []types.Quest, id string) int {
	for i := range quests {
		if quests[i].ID == id {
			return i
		}
	}
	return -1
}

func clampXP(xp int) int {
	if xp < 0 {
		return 0
	}
	return xp
}
