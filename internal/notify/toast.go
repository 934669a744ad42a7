package notify

import (
	"sync"
	"time"
)

// DefaultToastDuration is how long a notification stays up.
const DefaultToastDuration = 3 * time.Second

// Toaster schedules the dismissal of the visible notification. Showing a new
// one cancels the pending dismissal and starts the countdown again.
type Toaster struct {
	mu       sync.Mutex
	duration time.Duration
	timer    *time.Timer
	dismiss  func()
}

// NewToaster returns a Toaster that calls dismiss once the toast has been
// visible for d without being replaced.
func NewToaster(d time.Duration, dismiss func()) *Toaster {
	if d <= 0 {
		d = DefaultToastDuration
	}
	return &Toaster{duration: d, dismiss: dismiss}
}

// Show (re)starts the dismissal countdown.
func (t *Toaster) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(t.duration, func() {
		t.mu.Lock()
		if t.timer != timer {
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.mu.Unlock()
		t.dismiss()
	})
	t.timer = timer
}

// Pending reports whether a dismissal is scheduled.
func (t *Toaster) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

// Stop cancels any pending dismissal.
func (t *Toaster) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
