package storage

import (
	"fmt"
	"io"
	"os"
)

// BackupSuffix is appended to the original path to form the backup path
const BackupSuffix = ".backup"

// BackupManager keeps a single rolling backup next to a file.
// Each Backup call overwrites the previous generation.
type BackupManager struct {
	path string
}

// NewBackupManager creates a BackupManager for path
func NewBackupManager(path string) *BackupManager {
	return &BackupManager{path: path}
}

// Path returns the backup file location
func (bm *BackupManager) Path() string {
	return bm.path + BackupSuffix
}

// Backup copies the current file over the backup. A missing source is not
// an error; there is simply nothing to back up.
func (bm *BackupManager) Backup() error {
	if !FileExists(bm.path) {
		return nil
	}
	if err := copyFile(bm.path, bm.Path()); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	return nil
}

// Restore copies the backup back over the file
func (bm *BackupManager) Restore() error {
	if !FileExists(bm.Path()) {
		return fmt.Errorf("no backup found for %s", bm.path)
	}
	if err := copyFile(bm.Path(), bm.path); err != nil {
		return fmt.Errorf("failed to restore from backup: %w", err)
	}
	return nil
}

// copyFile copies src to dst, preserving src's permissions
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode().Perm())
}
