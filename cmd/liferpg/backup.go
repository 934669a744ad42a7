package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperengineering/liferpg/internal/snapshot"
	"github.com/hyperengineering/liferpg/internal/worker"
	"github.com/spf13/cobra"
)

var backupDirOverride string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write an export backup now, uploading it when storage is configured",
	Args:  cobra.NoArgs,
	RunE:  runBackup,
}

var backupURLCmd = &cobra.Command{
	Use:   "url",
	Short: "Print a pre-signed download link for the uploaded backup",
	Args:  cobra.NoArgs,
	RunE:  runBackupURL,
}

func init() {
	backupCmd.PersistentFlags().StringVar(&backupDirOverride, "dir", "",
		"Backup directory (overrides config and LIFERPG_BACKUP_DIR)")
	backupCmd.AddCommand(backupURLCmd)
}

func newBackupWorker(s *session) (*worker.BackupWorker, error) {
	uploader, err := snapshot.NewUploader(s.cfg.SnapshotStorage)
	if err != nil {
		return nil, err
	}
	dir := s.cfg.Backup.Dir
	if backupDirOverride != "" {
		dir = backupDirOverride
	}
	return worker.NewBackupWorker(s.svc, uploader, dir, s.cfg.Storage.StateKey,
		time.Duration(s.cfg.Backup.Interval)), nil
}

func runBackup(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	w, err := newBackupWorker(s)
	if err != nil {
		return err
	}
	path, err := w.Backup(context.Background())
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"path": path})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", path)
	return nil
}

func runBackupURL(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	w, err := newBackupWorker(s)
	if err != nil {
		return err
	}
	link, expiry, err := w.DownloadURL(context.Background())
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"url": link, "expires_at": expiry})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n(expires %s)\n", link, expiry.Format(time.RFC3339))
	return nil
}
