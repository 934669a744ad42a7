package main

import (
	"context"
	"fmt"

	"github.com/hyperengineering/liferpg/internal/types"
	"github.com/hyperengineering/liferpg/internal/validation"
	"github.com/spf13/cobra"
)

var (
	questCategory  string
	questXP        int
	questCompleted bool
	questPrivate   bool

	editTitle     string
	editCategory  string
	editXP        int
	editCompleted bool
	editPrivate   bool
)

var questCmd = &cobra.Command{
	Use:   "quest",
	Short: "Manage quests",
	Long:  "List, add, complete and edit quests. A quest may be referred to by id, title, or an unambiguous part of its title.",
}

var questListCmd = &cobra.Command{
	Use:   "list",
	Short: "List quests",
	Args:  cobra.NoArgs,
	RunE:  runQuestList,
}

var questAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a quest",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuestAdd,
}

var questToggleCmd = &cobra.Command{
	Use:   "toggle <quest>",
	Short: "Mark a quest complete, or incomplete again",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuestToggle,
}

var questEditCmd = &cobra.Command{
	Use:   "edit <quest>",
	Short: "Change a quest's fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuestEdit,
}

func init() {
	questAddCmd.Flags().StringVar(&questCategory, "category", "", "Quest category")
	questAddCmd.Flags().IntVar(&questXP, "xp", 50, "XP awarded on completion")
	questAddCmd.Flags().BoolVar(&questCompleted, "completed", false, "Create the quest already completed")
	questAddCmd.Flags().BoolVar(&questPrivate, "private", false, "Only show the quest in private mode")

	questEditCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	questEditCmd.Flags().StringVar(&editCategory, "category", "", "New category")
	questEditCmd.Flags().IntVar(&editXP, "xp", 0, "New XP value")
	questEditCmd.Flags().BoolVar(&editCompleted, "completed", false, "Completion state")
	questEditCmd.Flags().BoolVar(&editPrivate, "private", false, "Privacy flag")

	questCmd.AddCommand(questListCmd)
	questCmd.AddCommand(questAddCmd)
	questCmd.AddCommand(questToggleCmd)
	questCmd.AddCommand(questEditCmd)
}

func runQuestList(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	quests := s.svc.Quests()
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"quests": quests,
			"total":  len(quests),
		})
	}

	if len(quests) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No quests found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tDONE\tCATEGORY\tTITLE\tXP\tPRIVATE")
	for _, q := range quests {
		private := "-"
		if q.Private {
			private = "yes"
		}
		fmt.Fprintf(w, "%s\t[%s]\t%s\t%s\t%d\t%s\n", q.ID, check(q.Completed), q.Category, q.Title, q.XP, private)
	}
	return w.Flush()
}

func runQuestAdd(cmd *cobra.Command, args []string) error {
	in := types.NewQuest{
		Title:     args[0],
		Category:  questCategory,
		XP:        questXP,
		Completed: questCompleted,
		Private:   questPrivate,
	}
	if errs := validation.ValidateNewQuest(in); len(errs) > 0 {
		return fmt.Errorf("invalid quest: %w", validation.Join(errs))
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.svc.CreateQuest(context.Background(), in)
	if err != nil {
		return err
	}
	return report(cmd, "Created", res)
}

func runQuestToggle(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	q, err := s.svc.FindQuest(args[0])
	if err != nil {
		return err
	}
	res, err := s.svc.ToggleQuest(context.Background(), q.ID)
	if err != nil {
		return err
	}
	verb := "Completed"
	if res.Quest != nil && !res.Quest.Completed {
		verb = "Reopened"
	}
	return report(cmd, verb, res)
}

func runQuestEdit(cmd *cobra.Command, args []string) error {
	var patch types.QuestPatch
	flags := cmd.Flags()
	if flags.Changed("title") {
		patch.Title = &editTitle
	}
	if flags.Changed("category") {
		patch.Category = &editCategory
	}
	if flags.Changed("xp") {
		patch.XP = &editXP
	}
	if flags.Changed("completed") {
		patch.Completed = &editCompleted
	}
	if flags.Changed("private") {
		patch.Private = &editPrivate
	}
	if errs := validation.ValidateQuestPatch(patch); len(errs) > 0 {
		return fmt.Errorf("invalid edit: %w", validation.Join(errs))
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	q, err := s.svc.FindQuest(args[0])
	if err != nil {
		return err
	}
	res, err := s.svc.EditQuest(context.Background(), q.ID, patch)
	if err != nil {
		return err
	}
	return report(cmd, "Updated", res)
}

// report prints a mutation result as JSON or text.
func report(cmd *cobra.Command, verb string, res types.MutationResult) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), res)
	}
	printResult(cmd.OutOrStdout(), verb, res)
	return nil
}

