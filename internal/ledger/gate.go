package ledger

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/hyperengineering/liferpg/internal/types"
)

// DefaultPIN guards private mode when no PIN has been stored.
const DefaultPIN = "1234"

// EffectivePIN returns the stored PIN, or DefaultPIN when none is stored.
func EffectivePIN(stored string) string {
	if stored == "" {
		return DefaultPIN
	}
	return stored
}

// CheckPIN compares candidate against the effective PIN in constant time.
func CheckPIN(stored, candidate string) bool {
	want := EffectivePIN(stored)
	if len(want) != len(candidate) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(candidate)) == 1
}

// ValidatePINChange checks a change request against the stored PIN and
// returns the PIN to store.
func ValidatePINChange(stored, current, next, confirm string) (string, error) {
	if !CheckPIN(stored, current) {
		return "", ErrMismatch
	}
	if strings.TrimSpace(next) == "" {
		return "", fmt.Errorf("new pin is required: %w", ErrInvalidInput)
	}
	if next != confirm {
		return "", fmt.Errorf("new pin and confirmation differ: %w", ErrInvalidInput)
	}
	return next, nil
}

// SetPrivateMode returns a copy of s with the private-mode flag set.
func SetPrivateMode(s types.LedgerState, on bool) types.LedgerState {
	next := s.Clone()
	next.PrivateMode = on
	return next
}

// Visible reports whether a quest is shown on the dashboard.
func Visible(q types.Quest, privateMode bool) bool {
	return !q.Private || privateMode
}

// VisibleQuests filters quests for display. Storage, XP and achievements are
// unaffected by the filter.
func VisibleQuests(s types.LedgerState) []types.Quest {
	out := make([]types.Quest, 0, len(s.Quests))
	for _, q := range s.Quests {
		if Visible(q, s.PrivateMode) {
			out = append(out, q)
		}
	}
	return out
}
