// Package profile owns the live ledger state. Every operation runs under a
// single lock, applies one pure ledger transition, saves the result and then
// tells the notifier about it.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hyperengineering/liferpg/internal/ledger"
	"github.com/hyperengineering/liferpg/internal/notify"
	"github.com/hyperengineering/liferpg/internal/persistence"
	"github.com/hyperengineering/liferpg/internal/store"
	"github.com/hyperengineering/liferpg/internal/types"
)

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	// Name is shown on the dashboard.
	Name       string
	XPPerLevel int
	Now        func() time.Time
	NewID      func() string
}

// Service is the controller for one profile.
type Service struct {
	mu       sync.Mutex
	state    types.LedgerState
	source   persistence.Source
	adapter  *persistence.Adapter
	ledger   ledger.Ledger
	notifier notify.Notifier
	name     string
	now      func() time.Time
	newID    func() string
	// rev numbers dashboards; stamp is the store's write time as of the
	// last load or save.
	rev   uint64
	stamp time.Time
}

// New loads the persisted state and renders it once.
func New(ctx context.Context, adapter *persistence.Adapter, notifier notify.Notifier, opts Options) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	s := &Service{
		adapter:  adapter,
		ledger:   ledger.New(opts.XPPerLevel),
		notifier: notifier,
		name:     opts.Name,
		now:      opts.Now,
		newID:    opts.NewID,
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = func() string { return ulid.Make().String() }
	}

	loaded := adapter.Load(ctx)
	s.state = loaded.State
	s.source = loaded.Source
	s.syncStampLocked(ctx)

	slog.Info("profile loaded",
		"component", "profile",
		"source", string(loaded.Source),
		"xp", s.state.XP,
		"level", s.ledger.Leveling.CurrentLevel(s.state.XP),
		"quests", len(s.state.Quests),
	)

	s.notifier.Render(s.dashboardLocked(0))
	return s
}

func (s *Service) syncStampLocked(ctx context.Context) {
	if t, err := s.adapter.Stamp(ctx); err == nil {
		s.stamp = t
	}
}

// refreshLocked reloads the state when another process (a CLI command next to
// a running server) has written it since this service last loaded or saved.
func (s *Service) refreshLocked(ctx context.Context) {
	t, err := s.adapter.Stamp(ctx)
	if err != nil || t.Equal(s.stamp) {
		return
	}
	loaded := s.adapter.Load(ctx)
	if loaded.Source == persistence.SourceDegraded {
		return
	}
	s.state = loaded.State
	s.source = loaded.Source
	s.syncStampLocked(ctx)
	slog.Info("state reloaded after external write",
		"component", "profile",
		"action", "refresh",
		"xp", s.state.XP,
		"quests", len(s.state.Quests),
	)
}

// lockFresh takes the lock and picks up external writes.
func (s *Service) lockFresh(ctx context.Context) {
	s.mu.Lock()
	s.refreshLocked(ctx)
}

// Source reports where the state was loaded from.
func (s *Service) Source() persistence.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// State returns a copy of the full state, private quests included.
func (s *Service) State() types.LedgerState {
	s.lockFresh(context.Background())
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Leveling returns the level thresholds in use.
func (s *Service) Leveling() ledger.Leveling {
	return s.ledger.Leveling
}

// Dashboard returns the read model. limit caps the achievement list.
func (s *Service) Dashboard(limit int) types.Dashboard {
	s.lockFresh(context.Background())
	defer s.mu.Unlock()
	return s.dashboardLocked(limit)
}

func (s *Service) dashboardLocked(limit int) types.Dashboard {
	s.rev++
	d := s.ledger.Dashboard(s.state, limit)
	d.Name = s.name
	d.Revision = s.rev
	return d
}

// Quests returns the quests visible in the current mode.
func (s *Service) Quests() []types.Quest {
	s.lockFresh(context.Background())
	defer s.mu.Unlock()
	return ledger.VisibleQuests(s.state)
}

// Achievements returns the log most recent first.
func (s *Service) Achievements(limit int) []types.Achievement {
	s.lockFresh(context.Background())
	defer s.mu.Unlock()
	return ledger.RecentFirst(s.state.Achievements, limit)
}

// Achievement returns one log entry by id.
func (s *Service) Achievement(id string) (types.Achievement, error) {
	s.lockFresh(context.Background())
	defer s.mu.Unlock()
	return ledger.FindAchievement(s.state.Achievements, id)
}

// Quest returns the quest with exactly this id. Private quests only resolve
// in private mode.
func (s *Service) Quest(id string) (types.Quest, error) {
	s.lockFresh(context.Background())
	defer s.mu.Unlock()
	visible := s.state
	visible.Quests = ledger.VisibleQuests(s.state)
	return ledger.FindQuestByID(visible, id)
}

// FindQuest resolves a quest by id or title. Private quests only resolve in
// private mode.
func (s *Service) FindQuest(ref string) (types.Quest, error) {
	s.lockFresh(context.Background())
	defer s.mu.Unlock()
	visible := s.state
	visible.Quests = ledger.VisibleQuests(s.state)
	return ledger.FindQuest(visible, ref)
}

// CreateQuest adds a quest with a fresh id.
func (s *Service) CreateQuest(ctx context.Context, in types.NewQuest) (types.MutationResult, error) {
	return s.mutate(ctx, "create_quest", func(st types.LedgerState) (types.LedgerState, ledger.Change, error) {
		return s.ledger.CreateQuest(st, in, s.newID(), s.now())
	})
}

// ToggleQuest flips a quest's completion.
func (s *Service) ToggleQuest(ctx context.Context, id string) (types.MutationResult, error) {
	return s.mutate(ctx, "toggle_quest", func(st types.LedgerState) (types.LedgerState, ledger.Change, error) {
		return s.ledger.ToggleCompletion(st, id, s.now())
	})
}

// EditQuest applies patch to a quest.
func (s *Service) EditQuest(ctx context.Context, id string, patch types.QuestPatch) (types.MutationResult, error) {
	return s.mutate(ctx, "edit_quest", func(st types.LedgerState) (types.LedgerState, ledger.Change, error) {
		return s.ledger.EditQuest(st, id, patch, s.now())
	})
}

// GrantBonus records a manual achievement.
func (s *Service) GrantBonus(ctx context.Context, title string, xp int) (types.MutationResult, error) {
	return s.mutate(ctx, "grant_bonus", func(st types.LedgerState) (types.LedgerState, ledger.Change, error) {
		return s.ledger.GrantBonus(st, title, xp, ledger.BonusAchievementPrefix+s.newID(), s.now())
	})
}

type transition func(types.LedgerState) (types.LedgerState, ledger.Change, error)

func (s *Service) mutate(ctx context.Context, action string, fn transition) (types.MutationResult, error) {
	s.lockFresh(ctx)
	next, change, err := fn(s.state)
	if err != nil {
		s.mu.Unlock()
		return types.MutationResult{}, err
	}
	s.state = next
	persisted := s.saveLocked(ctx, action)
	dash := s.dashboardLocked(0)
	s.mu.Unlock()

	res := types.MutationResult{
		Quest:       change.Quest,
		Achievement: change.Achievement,
		XP:          next.XP,
		XPDelta:     change.XPDelta,
		LevelBefore: change.LevelBefore,
		LevelAfter:  change.LevelAfter,
		LevelUp:     change.LevelUp,
		Persisted:   persisted,
	}

	s.notifier.Render(dash)
	for _, e := range events(change) {
		s.notifier.Notify(e)
	}
	return res, nil
}

// events lists the notifications a change raises. A level-up is reported once
// per change however many levels were gained.
func events(c ledger.Change) []notify.Event {
	var out []notify.Event
	switch {
	case c.Completed && c.Quest != nil:
		out = append(out, notify.Event{
			Kind:  notify.KindQuestCompleted,
			Title: c.Quest.Title,
			XP:    c.Quest.XP,
			Level: c.LevelAfter,
		})
	case c.Quest == nil && c.Achievement != nil:
		out = append(out, notify.Event{
			Kind:  notify.KindBonus,
			Title: c.Achievement.Title,
			XP:    c.Achievement.XP,
			Level: c.LevelAfter,
		})
	}
	if c.LevelUp {
		out = append(out, notify.Event{
			Kind:  notify.KindLevelUp,
			Title: fmt.Sprintf("Level %d", c.LevelAfter),
			XP:    c.XPDelta,
			Level: c.LevelAfter,
		})
	}
	return out
}

// saveLocked persists the current state. A failure is logged and reported as
// false; the in-memory state stays authoritative.
func (s *Service) saveLocked(ctx context.Context, action string) bool {
	if err := s.adapter.Save(ctx, s.state); err != nil {
		slog.Warn("state not persisted",
			"component", "profile",
			"action", action,
			"error", err,
		)
		return false
	}
	s.syncStampLocked(ctx)
	return true
}

// Export returns the serialized state, byte-identical to what is persisted.
func (s *Service) Export() ([]byte, error) {
	s.lockFresh(context.Background())
	defer s.mu.Unlock()
	return s.adapter.ExportBlob(s.state)
}

// Import replaces the whole state with an exported document. An invalid
// document leaves the current state untouched.
func (s *Service) Import(ctx context.Context, data []byte) (types.MutationResult, error) {
	s.mu.Lock()
	before := s.state.XP
	next, err := s.adapter.ImportBlob(ctx, data)
	persisted := true
	if err != nil {
		if !errors.Is(err, store.ErrStorageUnavailable) {
			s.mu.Unlock()
			return types.MutationResult{}, err
		}
		persisted = false
		slog.Warn("imported state not persisted",
			"component", "profile",
			"action", "import",
			"error", err,
		)
	}
	s.state = next
	s.source = persistence.SourceStored
	s.syncStampLocked(ctx)
	dash := s.dashboardLocked(0)
	s.mu.Unlock()

	slog.Info("state imported",
		"component", "profile",
		"action", "import",
		"xp", next.XP,
		"quests", len(next.Quests),
	)
	s.notifier.Render(dash)
	return s.result(before, next.XP, persisted), nil
}

// Reset discards the stored state and starts over from the defaults. The PIN
// is kept unless forgetPIN is set.
func (s *Service) Reset(ctx context.Context, forgetPIN bool) (types.MutationResult, error) {
	s.mu.Lock()
	before := s.state.XP
	persisted := true
	if err := s.adapter.DeleteState(ctx); err != nil {
		slog.Warn("stored state not deleted", "component", "profile", "action", "reset", "error", err)
		persisted = false
	}
	if forgetPIN {
		if err := s.adapter.DeletePIN(ctx); err != nil {
			slog.Warn("stored pin not deleted", "component", "profile", "action", "reset", "error", err)
			persisted = false
		}
	}
	s.state = ledger.DefaultState()
	s.source = persistence.SourceDefaults
	if !s.saveLocked(ctx, "reset") {
		persisted = false
	}
	after := s.state.XP
	dash := s.dashboardLocked(0)
	s.mu.Unlock()

	slog.Info("profile reset", "component", "profile", "action", "reset", "forget_pin", forgetPIN)
	s.notifier.Render(dash)
	return s.result(before, after, persisted), nil
}

func (s *Service) result(before, after int, persisted bool) types.MutationResult {
	lv := s.ledger.Leveling
	res := types.MutationResult{
		XP:          after,
		XPDelta:     after - before,
		LevelBefore: lv.CurrentLevel(before),
		LevelAfter:  lv.CurrentLevel(after),
		Persisted:   persisted,
	}
	res.LevelUp = res.LevelAfter > res.LevelBefore
	return res
}
