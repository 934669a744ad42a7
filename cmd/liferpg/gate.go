package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hyperengineering/liferpg/internal/ledger"
	"github.com/hyperengineering/liferpg/internal/types"
	"github.com/spf13/cobra"
)

var (
	pinCurrent string
	pinNew     string
	pinConfirm string

	pinDisableCurrent string
)

var privateCmd = &cobra.Command{
	Use:   "private",
	Short: "Show or hide private quests",
}

var privateEnterCmd = &cobra.Command{
	Use:   "enter [pin]",
	Short: "Enter private mode",
	Long: `Enter private mode.

Without an argument the PIN is read from standard input, which keeps it
out of shell history and the process list.`,
	Args: cobra.MaximumNArgs(1),
	RunE:  runPrivateEnter,
}

var privateExitCmd = &cobra.Command{
	Use:   "exit",
	Short: "Leave private mode",
	Args:  cobra.NoArgs,
	RunE:  runPrivateExit,
}

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Manage the private mode PIN",
}

var pinChangeCmd = &cobra.Command{
	Use:   "change",
	Short: "Change the PIN",
	Long: `Change the PIN.

Values not given as flags are read from standard input, one per line, in
the order current, new, confirm.`,
	Args:  cobra.NoArgs,
	RunE:  runPINChange,
}

var pinDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Forget the PIN so the default applies, and leave private mode",
	Args:  cobra.NoArgs,
	RunE:  runPINDisable,
}

func init() {
	pinChangeCmd.Flags().StringVar(&pinCurrent, "current", "", "Current PIN")
	pinChangeCmd.Flags().StringVar(&pinNew, "new", "", "New PIN")
	pinChangeCmd.Flags().StringVar(&pinConfirm, "confirm", "", "New PIN again")
	pinDisableCmd.Flags().StringVar(&pinDisableCurrent, "current", "", "Current PIN (read from stdin when omitted)")

	privateCmd.AddCommand(privateEnterCmd)
	privateCmd.AddCommand(privateExitCmd)
	pinCmd.AddCommand(pinChangeCmd)
	pinCmd.AddCommand(pinDisableCmd)
}

func runPrivateEnter(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	pin := ""
	if len(args) == 1 {
		pin = args[0]
	} else if pin, err = newSecretReader(cmd).read("PIN: "); err != nil {
		return err
	}

	res, err := s.svc.EnterPrivate(context.Background(), pin)
	if err != nil {
		return err
	}
	if !res.Granted {
		return fmt.Errorf("enter private mode: %w", ledger.ErrMismatch)
	}
	return reportGate(cmd, "Private mode on", res)
}

func runPrivateExit(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	return reportGate(cmd, "Private mode off", s.svc.ExitPrivate(context.Background()))
}

func runPINChange(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	sr := newSecretReader(cmd)
	current, next, confirm := pinCurrent, pinNew, pinConfirm
	if !cmd.Flags().Changed("current") {
		if current, err = sr.read("Current PIN: "); err != nil {
			return err
		}
	}
	if !cmd.Flags().Changed("new") {
		if next, err = sr.read("New PIN: "); err != nil {
			return err
		}
	}
	if !cmd.Flags().Changed("confirm") {
		if confirm, err = sr.read("Confirm new PIN: "); err != nil {
			return err
		}
	}

	if err := s.svc.ChangePIN(context.Background(), current, next, confirm); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"changed": true})
	}
	fmt.Fprintln(cmd.OutOrStdout(), "PIN changed")
	return nil
}

func runPINDisable(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	current := pinDisableCurrent
	if !cmd.Flags().Changed("current") {
		if current, err = newSecretReader(cmd).read("Current PIN: "); err != nil {
			return err
		}
	}

	res, err := s.svc.DisablePIN(context.Background(), current)
	if err != nil {
		return err
	}
	return reportGate(cmd, fmt.Sprintf("PIN disabled; the default PIN %s applies", ledger.DefaultPIN), res)
}

func reportGate(cmd *cobra.Command, msg string, res types.GateResult) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	if !res.Persisted {
		fmt.Fprintln(cmd.OutOrStdout(), "warning: change was not saved")
	}
	return nil
}

// secretReader reads PINs line by line from the command's input, prompting
// on stderr so stdout stays clean for --json.
type secretReader struct {
	in     *bufio.Reader
	prompt io.Writer
}

func newSecretReader(cmd *cobra.Command) *secretReader {
	return &secretReader{in: bufio.NewReader(cmd.InOrStdin()), prompt: cmd.ErrOrStderr()}
}

func (r *secretReader) read(prompt string) (string, error) {
	fmt.Fprint(r.prompt, prompt)
	line, err := r.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read pin: %w", err)
	}
	if err != nil && line == "" {
		return "", fmt.Errorf("read pin: no input: %w", ledger.ErrInvalidInput)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
