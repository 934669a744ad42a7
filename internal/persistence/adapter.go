// Package persistence serializes the ledger state to and from the key-value
// store. The state document and the access PIN live under separate keys so a
// reset can wipe one without the other.
package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/tidwall/gjson"

	"github.com/hyperengineering/liferpg/internal/ledger"
	"github.com/hyperengineering/liferpg/internal/store"
	"github.com/hyperengineering/liferpg/internal/types"
)

const (
	DefaultStateKey = "life-rpg-state"
	DefaultPINKey   = "life-rpg-pin"
	// ExportFilename is the suggested download name for ExportBlob output.
	ExportFilename = "life-rpg-export.json"
)

// Source records where a loaded state came from.
type Source string

const (
	SourceStored   Source = "stored"
	SourceDefaults Source = "defaults"
	// SourceDegraded means the store could not be read; the state is
	// in-memory defaults and was not written back.
	SourceDegraded Source = "degraded"
)

// Loaded is the result of Adapter.Load.
type Loaded struct {
	State  types.LedgerState
	Source Source
	// Warning is set when the state could not be read or written back. The
	// session continues with State either way.
	Warning error
}

// Options configures an Adapter. Zero values fall back to defaults.
type Options struct {
	StateKey string
	PINKey   string
	NewID    func() string
}

// Adapter persists full-state snapshots into a store.KV.
type Adapter struct {
	kv       store.KV
	stateKey string
	pinKey   string
	newID    func() string
}

// NewAdapter creates an Adapter over kv.
func NewAdapter(kv store.KV, opts Options) *Adapter {
	a := &Adapter{
		kv:       kv,
		stateKey: opts.StateKey,
		pinKey:   opts.PINKey,
		newID:    opts.NewID,
	}
	if a.stateKey == "" {
		a.stateKey = DefaultStateKey
	}
	if a.pinKey == "" {
		a.pinKey = DefaultPINKey
	}
	if a.newID == nil {
		a.newID = func() string { return ulid.Make().String() }
	}
	return a
}

// Load reads the persisted state. An absent or unparseable document yields
// the built-in defaults, which are written back. A stored document is
// migrated and its XP reconciled up to the seed floor; it is written back
// only when that changed its bytes. Nothing is written when the store itself
// failed.
func (a *Adapter) Load(ctx context.Context) Loaded {
	raw, err := a.kv.Get(ctx, a.stateKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return a.persistLoaded(ctx, ledger.DefaultState(), SourceDefaults)
	case err != nil:
		slog.Warn("state unreadable, continuing with defaults",
			"component", "persistence",
			"action", "load_degraded",
			"key", a.stateKey,
			"error", err,
		)
		return Loaded{
			State:   ledger.DefaultState(),
			Source:  SourceDegraded,
			Warning: fmt.Errorf("load state: %w", err),
		}
	}

	s, err := Migrate(raw, a.newID)
	if err != nil {
		slog.Warn("stored state malformed, replacing with defaults",
			"component", "persistence",
			"action", "load_malformed",
			"key", a.stateKey,
			"error", err,
		)
		return a.persistLoaded(ctx, ledger.DefaultState(), SourceDefaults)
	}
	s = ledger.Reconcile(s)
	if encoded, err := Encode(s); err == nil && bytes.Equal(encoded, raw) {
		return Loaded{State: s, Source: SourceStored}
	}
	return a.persistLoaded(ctx, s, SourceStored)
}

// Stamp returns when the state document was last written. It is zero when
// the document is absent or the store does not record write times.
func (a *Adapter) Stamp(ctx context.Context) (time.Time, error) {
	st, ok := a.kv.(store.Stamped)
	if !ok {
		return time.Time{}, nil
	}
	t, err := st.UpdatedAt(ctx, a.stateKey)
	if errors.Is(err, store.ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("state stamp: %w", asUnavailable(err))
	}
	return t, nil
}

func (a *Adapter) persistLoaded(ctx context.Context, s types.LedgerState, src Source) Loaded {
	out := Loaded{State: s, Source: src}
	if err := a.Save(ctx, s); err != nil {
		slog.Warn("could not persist loaded state",
			"component", "persistence",
			"action", "save_failed",
			"error", err,
		)
		out.Warning = err
	}
	return out
}

// Encode returns the canonical serialized document for s.
func Encode(s types.LedgerState) ([]byte, error) {
	s.Version = ledger.SchemaVersion
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// Save overwrites the persisted document with the full state.
func (a *Adapter) Save(ctx context.Context, s types.LedgerState) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := a.kv.Put(ctx, a.stateKey, data); err != nil {
		return fmt.Errorf("save state: %w", asUnavailable(err))
	}
	return nil
}

// ExportBlob returns the same bytes Save would persist.
func (a *Adapter) ExportBlob(s types.LedgerState) ([]byte, error) {
	return Encode(s)
}

// ImportBlob parses a user-supplied document and, if it carries a quests
// array with unique ids, persists it as the new state. Nothing is written on
// failure.
func (a *Adapter) ImportBlob(ctx context.Context, data []byte) (types.LedgerState, error) {
	if !gjson.ValidBytes(data) {
		return types.LedgerState{}, fmt.Errorf("import: not a JSON document: %w", ledger.ErrInvalidFormat)
	}
	if !gjson.GetBytes(data, "quests").IsArray() {
		return types.LedgerState{}, fmt.Errorf("import: document has no quests array: %w", ledger.ErrInvalidFormat)
	}
	if dups := DuplicateQuestIDs(data); len(dups) > 0 {
		return types.LedgerState{}, fmt.Errorf("import: duplicate quest ids %q: %w", dups, ledger.ErrInvalidFormat)
	}

	s, err := Migrate(data, a.newID)
	if err != nil {
		return types.LedgerState{}, fmt.Errorf("import: %w: %w", ledger.ErrInvalidFormat, err)
	}
	if err := a.Save(ctx, s); err != nil {
		return s, err
	}
	return s, nil
}

// DeleteState removes the persisted state document. The PIN is untouched.
func (a *Adapter) DeleteState(ctx context.Context) error {
	if err := a.kv.Delete(ctx, a.stateKey); err != nil {
		return fmt.Errorf("delete state: %w", asUnavailable(err))
	}
	return nil
}

// LoadPIN returns the stored PIN, or "" when none is stored.
func (a *Adapter) LoadPIN(ctx context.Context) (string, error) {
	raw, err := a.kv.Get(ctx, a.pinKey)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load pin: %w", asUnavailable(err))
	}
	return string(raw), nil
}

// SavePIN stores pin under the PIN key.
func (a *Adapter) SavePIN(ctx context.Context, pin string) error {
	if err := a.kv.Put(ctx, a.pinKey, []byte(pin)); err != nil {
		return fmt.Errorf("save pin: %w", asUnavailable(err))
	}
	return nil
}

// DeletePIN removes the stored PIN so checks revert to ledger.DefaultPIN.
func (a *Adapter) DeletePIN(ctx context.Context) error {
	if err := a.kv.Delete(ctx, a.pinKey); err != nil {
		return fmt.Errorf("delete pin: %w", asUnavailable(err))
	}
	return nil
}

// asUnavailable makes sure store failures match store.ErrStorageUnavailable
// even when a KV implementation returns its own errors.
func asUnavailable(err error) error {
	if errors.Is(err, store.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", store.ErrStorageUnavailable, err)
}
