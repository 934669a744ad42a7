// Package worker runs background jobs alongside the server.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperengineering/liferpg/internal/persistence"
	"github.com/hyperengineering/liferpg/internal/snapshot"
)

// Exporter produces the export document of the current state.
type Exporter interface {
	Export() ([]byte, error)
}

// BackupWorker periodically writes the export document to disk and, when
// configured, uploads it. It never mutates the ledger.
type BackupWorker struct {
	exporter  Exporter
	uploader  snapshot.Uploader
	dir       string
	namespace string
	interval  time.Duration
}

// NewBackupWorker creates a worker writing into dir. The uploader may be nil,
// in which case backups stay local. namespace keys the uploaded object.
func NewBackupWorker(exporter Exporter, uploader snapshot.Uploader, dir, namespace string, interval time.Duration) *BackupWorker {
	if uploader == nil {
		uploader = snapshot.NoopUploader{}
	}
	return &BackupWorker{
		exporter:  exporter,
		uploader:  uploader,
		dir:       dir,
		namespace: namespace,
		interval:  interval,
	}
}

// Path is where the latest backup is written.
func (w *BackupWorker) Path() string {
	return filepath.Join(w.dir, persistence.ExportFilename)
}

// Run backs up immediately and then on every interval until ctx is done.
func (w *BackupWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "backup",
		"interval", w.interval,
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "backup",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *BackupWorker) runOnce(ctx context.Context) {
	if _, err := w.Backup(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("backup failed",
			"component", "worker",
			"action", "backup_failed",
			"error", err,
		)
	}
}

// Backup writes one backup and returns its path. A failed upload is logged
// and does not fail the backup; the local file remains valid.
func (w *BackupWorker) Backup(ctx context.Context) (string, error) {
	data, err := w.exporter.Export()
	if err != nil {
		return "", fmt.Errorf("export state: %w", err)
	}
	path := w.Path()
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	slog.Info("backup written",
		"component", "worker",
		"action", "backup_written",
		"path", path,
		"bytes", len(data),
	)

	if err := w.uploader.Upload(ctx, w.namespace, path); err != nil {
		slog.Warn("backup upload failed",
			"component", "worker",
			"action", "backup_upload_failed",
			"error", err,
		)
	}
	return path, nil
}

// DownloadURL returns a pre-signed link to the uploaded backup.
func (w *BackupWorker) DownloadURL(ctx context.Context) (string, time.Time, error) {
	return w.uploader.PresignedURL(ctx, w.namespace)
}

// writeFileAtomic writes through a temp file in the same directory so
// readers never see a partial document.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".backup-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close backup: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename backup: %w", err)
	}
	return nil
}
