package project

import (
	"fmt"
	"os"
)

// BackupSuffix is appended to a mapping path to name its backup copy.
const BackupSuffix = ".bak"

// BackupMapping copies the mapping at path to path+BackupSuffix, replacing
// any older backup. It returns the backup path, or "" when there was nothing
// to back up.
func BackupMapping(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read mapping for backup: %w", err)
	}
	backup := path + BackupSuffix
	if err := os.WriteFile(backup, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write mapping backup: %w", err)
	}
	return backup, nil
}

// RestoreMapping copies a backup over the mapping it was taken from.
func RestoreMapping(path string) error {
	data, err := os.ReadFile(path + BackupSuffix)
	if err != nil {
		return fmt.Errorf("failed to read mapping backup: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to restore mapping: %w", err)
	}
	return nil
}
