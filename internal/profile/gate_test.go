package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperengineering/liferpg/internal/ledger"
	"github.com/hyperengineering/liferpg/internal/types"
)

func visibleTitles(svc *Service) map[string]bool {
	out := make(map[string]bool)
	for _, q := range svc.Quests() {
		out[q.Title] = true
	}
	return out
}

func TestEnterPrivate_DefaultPIN(t *testing.T) {
	// Given: a profile with a private quest and no stored PIN
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.svc.CreateQuest(ctx, types.NewQuest{Title: "Hidden", XP: 10, Private: true}); err != nil {
		t.Fatal(err)
	}

	// When: a wrong PIN is entered
	res, err := f.svc.EnterPrivate(ctx, "0000")

	// Then: private mode stays off and the private quest stays hidden
	if err != nil {
		t.Fatal(err)
	}
	if res.Granted || res.PrivateMode || f.svc.State().PrivateMode {
		t.Errorf("result = %+v", res)
	}
	if visibleTitles(f.svc)["Hidden"] {
		t.Error("private quest visible outside private mode")
	}

	// When: the default PIN is entered
	res, err = f.svc.EnterPrivate(ctx, ledger.DefaultPIN)

	// Then: private mode is on, persisted, and the quest is visible
	if err != nil {
		t.Fatal(err)
	}
	if !res.Granted || !res.PrivateMode || !res.Persisted {
		t.Errorf("result = %+v", res)
	}
	if !visibleTitles(f.svc)["Hidden"] {
		t.Error("private quest hidden in private mode")
	}
	if !f.persisted(t).PrivateMode {
		t.Error("private mode not persisted")
	}
}

func TestExitPrivate_AlwaysSucceeds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.svc.EnterPrivate(ctx, "1234"); err != nil {
		t.Fatal(err)
	}

	res := f.svc.ExitPrivate(ctx)
	if res.PrivateMode || f.svc.State().PrivateMode {
		t.Error("still in private mode")
	}

	// Exiting again is harmless.
	res = f.svc.ExitPrivate(ctx)
	if res.PrivateMode || !res.Persisted {
		t.Errorf("result = %+v", res)
	}
}

func TestPrivateMode_DoesNotTouchLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	before := f.svc.State()

	if _, err := f.svc.EnterPrivate(ctx, "1234"); err != nil {
		t.Fatal(err)
	}
	f.svc.ExitPrivate(ctx)

	after := f.svc.State()
	if after.XP != before.XP || len(after.Achievements) != len(before.Achievements) {
		t.Error("private mode changed xp or achievements")
	}
}

func TestChangePIN(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		current string
		next    string
		confirm string
		wantErr error
	}{
		{"wrong current", "0000", "5678", "5678", ledger.ErrMismatch},
		{"blank new", "1234", "", "", ledger.ErrInvalidInput},
		{"confirmation differs", "1234", "5678", "5679", ledger.ErrInvalidInput},
		{"ok", "1234", "5678", "5678", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.svc.ChangePIN(ctx, tt.current, tt.next, tt.confirm)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("err = %v", err)
				}
				if pin, _ := f.adapter.LoadPIN(ctx); pin != tt.next {
					t.Errorf("stored pin = %q, want %q", pin, tt.next)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if pin, _ := f.adapter.LoadPIN(ctx); pin != "" {
				t.Errorf("pin stored after failed change: %q", pin)
			}
		})
	}
}

func TestDisablePIN_RevertsToDefault(t *testing.T) {
	// Given: a custom PIN and private mode on
	ctx := context.Background()
	f := newFixture(t)
	if err := f.svc.ChangePIN(ctx, "1234", "4321", "4321"); err != nil {
		t.Fatal(err)
	}
	if res, _ := f.svc.EnterPrivate(ctx, "1234"); res.Granted {
		t.Fatal("old default PIN accepted after change")
	}
	if res, _ := f.svc.EnterPrivate(ctx, "4321"); !res.Granted {
		t.Fatal("custom PIN rejected")
	}

	// When: the PIN is disabled
	res, err := f.svc.DisablePIN(ctx, "4321")
	if err != nil {
		t.Fatal(err)
	}

	// Then: private mode is off and only the default PIN works
	if res.PrivateMode || f.svc.State().PrivateMode {
		t.Error("private mode still on after disabling the PIN")
	}
	if res, _ := f.svc.EnterPrivate(ctx, "4321"); res.Granted {
		t.Error("custom PIN still accepted after disable")
	}
	if res, _ := f.svc.EnterPrivate(ctx, ledger.DefaultPIN); !res.Granted {
		t.Error("default PIN rejected after disable")
	}
}

func TestDisablePIN_RequiresCurrentPIN(t *testing.T) {
	// Given: a custom PIN
	ctx := context.Background()
	f := newFixture(t)
	if err := f.svc.ChangePIN(ctx, "1234", "9876", "9876"); err != nil {
		t.Fatal(err)
	}

	// When: disabling with the default or a blank PIN
	for _, guess := range []string{ledger.DefaultPIN, ""} {
		if _, err := f.svc.DisablePIN(ctx, guess); !errors.Is(err, ledger.ErrMismatch) {
			t.Errorf("DisablePIN(%q) err = %v, want ErrMismatch", guess, err)
		}
	}

	// Then: the custom PIN is still the only way in
	if pin, _ := f.adapter.LoadPIN(ctx); pin != "9876" {
		t.Errorf("stored pin = %q, want 9876", pin)
	}
	if res, _ := f.svc.EnterPrivate(ctx, ledger.DefaultPIN); res.Granted {
		t.Error("default PIN granted access")
	}
}

func TestChangePIN_StorageFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.kv.broken = true

	err := f.svc.ChangePIN(ctx, "1234", "5678", "5678")
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ledger.ErrMismatch) {
		t.Errorf("storage failure reported as mismatch: %v", err)
	}
}
