package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var dashboardLimit int

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show level, progress, quests and recent achievements",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

func init() {
	dashboardCmd.Flags().IntVar(&dashboardLimit, "limit", 5,
		"Number of recent achievements to show (0 for all)")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	d := s.svc.Dashboard(dashboardLimit)
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), d)
	}

	out := cmd.OutOrStdout()
	if d.Name != "" {
		fmt.Fprintln(out, d.Name)
	}
	const barWidth = 20
	filled := min(max(d.ProgressPercent, 0), 100) * barWidth / 100
	fmt.Fprintf(out, "Level %d  [%s%s] %d%%  %d / %d XP\n",
		d.Level,
		strings.Repeat("#", filled), strings.Repeat("-", barWidth-filled),
		d.ProgressPercent, d.XP, d.NextLevelXP)
	fmt.Fprintf(out, "Quests: %d/%d complete", d.CompletedQuests, d.TotalQuests)
	if d.PrivateMode {
		fmt.Fprint(out, "  (private mode)")
	} else if d.HiddenQuestCount > 0 {
		fmt.Fprintf(out, "  (%d hidden)", d.HiddenQuestCount)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out)
	w := newTabWriter(out)
	fmt.Fprintln(w, "\tID\tCATEGORY\tTITLE\tXP")
	for _, q := range d.Quests {
		fmt.Fprintf(w, "[%s]\t%s\t%s\t%s\t%d\n", check(q.Completed), q.ID, q.Category, q.Title, q.XP)
	}
	w.Flush()

	if len(d.Achievements) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Recent achievements:")
		w = newTabWriter(out)
		for _, a := range d.Achievements {
			fmt.Fprintf(w, "  %s\t%s\t+%d XP\n", a.Date.Format("2006-01-02"), a.Title, a.XP)
		}
		w.Flush()
	}
	return nil
}
