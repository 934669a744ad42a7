package notify

import (
	"bytes"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperengineering/liferpg/internal/types"
)

type recorder struct {
	renders []types.Dashboard
	events  []Event
}

func (r *recorder) Render(d types.Dashboard) { r.renders = append(r.renders, d) }
func (r *recorder) Notify(e Event)           { r.events = append(r.events, e) }

func TestMulti_FansOutInOrder(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, Nop{}, b}

	m.Render(types.Dashboard{XP: 10})
	m.Notify(Event{Kind: KindBonus, Title: "Ran a marathon", XP: 200})

	for i, r := range []*recorder{a, b} {
		if len(r.renders) != 1 || r.renders[0].XP != 10 {
			t.Errorf("recorder %d renders = %+v", i, r.renders)
		}
		if len(r.events) != 1 || r.events[0].Kind != KindBonus {
			t.Errorf("recorder %d events = %+v", i, r.events)
		}
	}
}

func TestLog_WritesStructuredEvent(t *testing.T) {
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(old)

	Log{}.Notify(Event{Kind: KindLevelUp, Title: "Level 2", Level: 2})

	out := buf.String()
	for _, want := range []string{"kind=level_up", "level=2", "component=notify"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestToaster_DismissesAfterDuration(t *testing.T) {
	var dismissed atomic.Int32
	toaster := NewToaster(20*time.Millisecond, func() { dismissed.Add(1) })

	toaster.Show()
	if !toaster.Pending() {
		t.Fatal("expected a pending dismissal")
	}

	deadline := time.Now().Add(time.Second)
	for dismissed.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if dismissed.Load() != 1 {
		t.Fatalf("dismissed = %d, want 1", dismissed.Load())
	}
	if toaster.Pending() {
		t.Error("dismissal still pending after firing")
	}
}

func TestToaster_RetriggerCancelsPendingDismissal(t *testing.T) {
	// Given: a toast shown with a long countdown
	var dismissed atomic.Int32
	toaster := NewToaster(300*time.Millisecond, func() { dismissed.Add(1) })
	toaster.Show()

	// When: a second toast replaces it before the countdown ends
	time.Sleep(100 * time.Millisecond)
	toaster.Show()

	// Then: only one dismissal fires, after the second countdown
	time.Sleep(250 * time.Millisecond)
	if got := dismissed.Load(); got != 0 {
		t.Fatalf("dismissed = %d before the restarted countdown ended", got)
	}
	deadline := time.Now().Add(time.Second)
	for dismissed.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	if got := dismissed.Load(); got != 1 {
		t.Errorf("dismissed = %d, want 1", got)
	}
}

func TestToaster_StopCancels(t *testing.T) {
	var dismissed atomic.Int32
	toaster := NewToaster(20*time.Millisecond, func() { dismissed.Add(1) })
	toaster.Show()
	toaster.Stop()

	time.Sleep(60 * time.Millisecond)
	if dismissed.Load() != 0 {
		t.Error("stopped toast was dismissed")
	}
}

func TestNewToaster_DefaultDuration(t *testing.T) {
	toaster := NewToaster(0, func() {})
	if toaster.duration != DefaultToastDuration {
		t.Errorf("duration = %v, want %v", toaster.duration, DefaultToastDuration)
	}
}
