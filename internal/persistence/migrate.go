package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/hyperengineering/liferpg/internal/ledger"
	"github.com/hyperengineering/liferpg/internal/types"
)

// ErrMalformed is wrapped by every DecodeError.
var ErrMalformed = errors.New("malformed state document")

// DecodeError reports why a raw document could not become a LedgerState.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode state: %s: %v", e.Reason, e.Err)
	}
	return "decode state: " + e.Reason
}

func (e *DecodeError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformed, e.Err}
	}
	return []error{ErrMalformed}
}

// migrationStep upgrades a document from version N to N+1.
type migrationStep func(doc []byte, newID func() string) ([]byte, error)

// steps[N] upgrades version N to N+1.
var steps = []migrationStep{
	migrateV0ToV1,
}

// Migrate turns a raw persisted document of any known version into a fully
// populated current-shape state. Missing or mistyped top-level fields are
// filled from defaults; a missing quests array becomes the built-in set.
// Scalars of the wrong type are coerced rather than rejected.
func Migrate(raw []byte, newID func() string) (types.LedgerState, error) {
	if !gjson.ValidBytes(raw) {
		return types.LedgerState{}, &DecodeError{Reason: "invalid JSON"}
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return types.LedgerState{}, &DecodeError{Reason: "top-level value is not an object"}
	}

	version := int(root.Get("version").Int())
	if version < 0 || version > ledger.SchemaVersion {
		return types.LedgerState{}, &DecodeError{Reason: fmt.Sprintf("unsupported schema version %d", version)}
	}

	doc := raw
	var err error
	for v := version; v < ledger.SchemaVersion; v++ {
		if doc, err = steps[v](doc, newID); err != nil {
			return types.LedgerState{}, &DecodeError{Reason: fmt.Sprintf("migrate v%d", v), Err: err}
		}
	}

	if doc, err = ensureShape(doc, newID); err != nil {
		return types.LedgerState{}, &DecodeError{Reason: "normalize", Err: err}
	}

	var s types.LedgerState
	if err := json.Unmarshal(doc, &s); err != nil {
		return types.LedgerState{}, &DecodeError{Reason: "unmarshal", Err: err}
	}
	s.Version = ledger.SchemaVersion
	return s, nil
}

// migrateV0ToV1 upgrades the unversioned browser blob: quests had no ids and
// achievement dates were epoch milliseconds.
func migrateV0ToV1(doc []byte, newID func() string) ([]byte, error) {
	var err error
	quests := gjson.GetBytes(doc, "quests")
	if quests.IsArray() {
		for i, q := range quests.Array() {
			if !q.IsObject() || q.Get("id").String() != "" {
				continue
			}
			if doc, err = sjson.SetBytes(doc, fmt.Sprintf("quests.%d.id", i), newID()); err != nil {
				return nil, err
			}
		}
	}

	achievements := gjson.GetBytes(doc, "achievements")
	if achievements.IsArray() {
		for i, a := range achievements.Array() {
			date := a.Get("date")
			if date.Type != gjson.Number {
				continue
			}
			ts := time.UnixMilli(date.Int()).UTC().Format(time.RFC3339Nano)
			if doc, err = sjson.SetBytes(doc, fmt.Sprintf("achievements.%d.date", i), ts); err != nil {
				return nil, err
			}
		}
	}

	return sjson.SetBytes(doc, "version", 1)
}

// ensureShape patches every field into its current type. Quests and
// achievements are rebuilt element by element: scalar ids and titles become
// strings, XP is truncated to a non-negative whole number, and non-bool flags
// become false. Non-object entries are dropped; duplicate quest ids after the
// first get fresh ids.
func ensureShape(doc []byte, newID func() string) ([]byte, error) {
	var err error
	root := gjson.ParseBytes(doc)

	if doc, err = sjson.SetBytes(doc, "xp", wholeXP(root.Get("xp"))); err != nil {
		return nil, err
	}

	if quests := root.Get("quests"); quests.IsArray() {
		doc, err = sjson.SetBytes(doc, "quests", normalizeQuests(quests, newID))
	} else {
		doc, err = sjson.SetBytes(doc, "quests", ledger.DefaultQuests())
	}
	if err != nil {
		return nil, err
	}

	if doc, err = sjson.SetBytes(doc, "achievements", normalizeAchievements(root.Get("achievements"), newID)); err != nil {
		return nil, err
	}

	return sjson.SetBytes(doc, "privateMode", root.Get("privateMode").Type == gjson.True)
}

func normalizeQuests(arr gjson.Result, newID func() string) []types.Quest {
	quests := make([]types.Quest, 0)
	seen := make(map[string]bool)
	for _, q := range arr.Array() {
		if !q.IsObject() {
			continue
		}
		id := scalarString(q.Get("id"))
		if id == "" || seen[id] {
			id = newID()
		}
		seen[id] = true
		quests = append(quests, types.Quest{
			ID:        id,
			Title:     scalarString(q.Get("title")),
			Category:  scalarString(q.Get("category")),
			XP:        wholeXP(q.Get("xp")),
			Completed: q.Get("completed").Type == gjson.True,
			Private:   q.Get("private").Type == gjson.True,
		})
	}
	return quests
}

func normalizeAchievements(arr gjson.Result, newID func() string) []types.Achievement {
	log := make([]types.Achievement, 0)
	if !arr.IsArray() {
		return log
	}
	seen := make(map[string]bool)
	for _, a := range arr.Array() {
		if !a.IsObject() {
			continue
		}
		id := scalarString(a.Get("id"))
		if id == "" {
			id = ledger.BonusAchievementPrefix + newID()
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		log = append(log, types.Achievement{
			ID:    id,
			Title: scalarString(a.Get("title")),
			XP:    wholeXP(a.Get("xp")),
			Date:  achievementDate(a.Get("date")),
		})
	}
	return log
}

// scalarString renders strings as-is and numbers in their JSON form. Anything
// else is "".
func scalarString(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Raw
	}
	return ""
}

func wholeXP(v gjson.Result) int {
	n := v.Num
	switch v.Type {
	case gjson.Number:
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0
		}
		n = f
	default:
		return 0
	}
	switch {
	case n < 0 || math.IsNaN(n):
		return 0
	case n > math.MaxInt32:
		return math.MaxInt32
	}
	return int(n)
}

func achievementDate(v gjson.Result) time.Time {
	switch v.Type {
	case gjson.Number:
		return time.UnixMilli(v.Int()).UTC()
	case gjson.String:
		if t, err := time.Parse(time.RFC3339Nano, v.Str); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DuplicateQuestIDs returns every quest id that appears more than once in a
// raw document, in first-seen order.
func DuplicateQuestIDs(raw []byte) []string {
	var dups []string
	counts := make(map[string]int)
	for _, q := range gjson.GetBytes(raw, "quests").Array() {
		id := scalarString(q.Get("id"))
		if id == "" {
			continue
		}
		counts[id]++
		if counts[id] == 2 {
			dups = append(dups, id)
		}
	}
	return dups
}
