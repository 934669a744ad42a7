package profile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hyperengineering/liferpg/internal/ledger"
	"github.com/hyperengineering/liferpg/internal/types"
)

// EnterPrivate turns private mode on when candidate matches the PIN. A wrong
// PIN leaves the state unchanged and returns a result with Granted false.
func (s *Service) EnterPrivate(ctx context.Context, candidate string) (types.GateResult, error) {
	s.lockFresh(ctx)
	stored, err := s.adapter.LoadPIN(ctx)
	if err != nil {
		s.mu.Unlock()
		return types.GateResult{}, fmt.Errorf("enter private mode: %w", err)
	}
	if !ledger.CheckPIN(stored, candidate) {
		res := types.GateResult{PrivateMode: s.state.PrivateMode, Persisted: true}
		s.mu.Unlock()
		slog.Warn("private mode denied", "component", "profile", "action", "enter_private")
		return res, nil
	}
	return s.setPrivateMode(ctx, true, "enter_private"), nil
}

// ExitPrivate turns private mode off. It always succeeds.
func (s *Service) ExitPrivate(ctx context.Context) types.GateResult {
	s.lockFresh(ctx)
	return s.setPrivateMode(ctx, false, "exit_private")
}

// setPrivateMode must be called with s.mu held; it releases the lock.
func (s *Service) setPrivateMode(ctx context.Context, on bool, action string) types.GateResult {
	s.state = ledger.SetPrivateMode(s.state, on)
	persisted := s.saveLocked(ctx, action)
	dash := s.dashboardLocked(0)
	s.mu.Unlock()

	s.notifier.Render(dash)
	return types.GateResult{Granted: true, PrivateMode: on, Persisted: persisted}
}

// ChangePIN replaces the PIN after checking the current one.
func (s *Service) ChangePIN(ctx context.Context, current, next, confirm string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.adapter.LoadPIN(ctx)
	if err != nil {
		return fmt.Errorf("change pin: %w", err)
	}
	pin, err := ledger.ValidatePINChange(stored, current, next, confirm)
	if err != nil {
		return fmt.Errorf("change pin: %w", err)
	}
	if err := s.adapter.SavePIN(ctx, pin); err != nil {
		return fmt.Errorf("change pin: %w", err)
	}
	slog.Info("pin changed", "component", "profile", "action", "change_pin")
	return nil
}

// DisablePIN forgets the stored PIN, so the default applies again, and
// leaves private mode. current must match the PIN in effect.
func (s *Service) DisablePIN(ctx context.Context, current string) (types.GateResult, error) {
	s.lockFresh(ctx)
	stored, err := s.adapter.LoadPIN(ctx)
	if err != nil {
		s.mu.Unlock()
		return types.GateResult{}, fmt.Errorf("disable pin: %w", err)
	}
	if !ledger.CheckPIN(stored, current) {
		s.mu.Unlock()
		slog.Warn("pin disable denied", "component", "profile", "action", "disable_pin")
		return types.GateResult{}, fmt.Errorf("disable pin: %w", ledger.ErrMismatch)
	}
	if err := s.adapter.DeletePIN(ctx); err != nil {
		s.mu.Unlock()
		return types.GateResult{}, fmt.Errorf("disable pin: %w", err)
	}
	slog.Info("pin disabled", "component", "profile", "action", "disable_pin")
	res := s.setPrivateMode(ctx, false, "disable_pin")
	res.Granted = false
	return res, nil
}
