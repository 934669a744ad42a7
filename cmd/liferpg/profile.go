package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/hyperengineering/liferpg/internal/config"
	"github.com/hyperengineering/liferpg/internal/notify"
	"github.com/hyperengineering/liferpg/internal/profile"
	"github.com/hyperengineering/liferpg/internal/store"
	"github.com/hyperengineering/liferpg/internal/types"
	"github.com/spf13/cobra"
)

// session is an opened profile for a single CLI command.
type session struct {
	cfg *config.Config
	svc *profile.Service
	db  *store.SQLiteStore
}

func (s *session) Close() error {
	return s.db.Close()
}

// openSession loads config, opens the database and loads the profile.
// Notifications are printed to the command's stderr; only warnings are logged.
func openSession(cmd *cobra.Command) (*session, error) {
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
		&slog.HandlerOptions{Level: slog.LevelWarn})))

	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	var n notify.Notifier = notify.Nop{}
	if !jsonOutput {
		n = &printNotifier{w: cmd.ErrOrStderr()}
	}
	svc := newService(context.Background(), cfg, db, n)
	return &session{cfg: cfg, svc: svc, db: db}, nil
}

// printNotifier shows notifications as console lines.
type printNotifier struct {
	w io.Writer
}

func (p *printNotifier) Render(types.Dashboard) {}

func (p *printNotifier) Notify(e notify.Event) {
	switch e.Kind {
	case notify.KindQuestCompleted:
		fmt.Fprintf(p.w, "Quest complete: %s (+%d XP)\n", e.Title, e.XP)
	case notify.KindBonus:
		fmt.Fprintf(p.w, "Bonus: %s (+%d XP)\n", e.Title, e.XP)
	case notify.KindLevelUp:
		fmt.Fprintf(p.w, "LEVEL UP! You are now level %d\n", e.Level)
	}
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// printResult reports a mutation in human form.
func printResult(w io.Writer, verb string, res types.MutationResult) {
	switch {
	case res.Quest != nil:
		fmt.Fprintf(w, "%s quest %q (%s)\n", verb, res.Quest.Title, res.Quest.ID)
	case res.Achievement != nil:
		fmt.Fprintf(w, "%s %q\n", verb, res.Achievement.Title)
	default:
		fmt.Fprintln(w, verb)
	}
	fmt.Fprintf(w, "XP: %d (%+d)  Level: %d\n", res.XP, res.XPDelta, res.LevelAfter)
	if !res.Persisted {
		fmt.Fprintln(w, "warning: change was not saved")
	}
}

func check(done bool) string {
	if done {
		return "x"
	}
	return " "
}
