package main

import (
	"context"
	"fmt"

	"github.com/hyperengineering/liferpg/internal/validation"
	"github.com/spf13/cobra"
)

var (
	achievementLimit int
	bonusXP          int
)

var achievementCmd = &cobra.Command{
	Use:   "achievement",
	Short: "Browse achievements and grant bonus XP",
}

var achievementListCmd = &cobra.Command{
	Use:   "list",
	Short: "List achievements, newest first",
	Args:  cobra.NoArgs,
	RunE:  runAchievementList,
}

var achievementBonusCmd = &cobra.Command{
	Use:   "bonus <title>",
	Short: "Record a bonus achievement",
	Args:  cobra.ExactArgs(1),
	RunE:  runAchievementBonus,
}

func init() {
	achievementListCmd.Flags().IntVar(&achievementLimit, "limit", 0,
		"Maximum number of achievements (0 for all)")
	achievementBonusCmd.Flags().IntVar(&bonusXP, "xp", 0, "XP awarded (required)")
	achievementBonusCmd.MarkFlagRequired("xp")

	achievementCmd.AddCommand(achievementListCmd)
	achievementCmd.AddCommand(achievementBonusCmd)
}

func runAchievementList(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	achievements := s.svc.Achievements(achievementLimit)
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"achievements": achievements,
			"total":        len(achievements),
		})
	}

	if len(achievements) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No achievements yet.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "DATE\tTITLE\tXP")
	for _, a := range achievements {
		fmt.Fprintf(w, "%s\t%s\t+%d\n", a.Date.Format("2006-01-02 15:04"), a.Title, a.XP)
	}
	return w.Flush()
}

func runAchievementBonus(cmd *cobra.Command, args []string) error {
	if errs := validation.ValidateBonus(args[0], bonusXP); len(errs) > 0 {
		return fmt.Errorf("invalid bonus: %w", validation.Join(errs))
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.svc.GrantBonus(context.Background(), args[0], bonusXP)
	if err != nil {
		return err
	}
	return report(cmd, "Awarded", res)
}
