package kernelio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// BackupData is the top-level structure for a combined export of
// application preferences and project state in a single file.
type BackupData struct {
	Version   string            `json:"version"`
	CreatedAt string            `json:"created_at"`
	Config    AppConfig         `json:"config"`
	Project   stackmodel.Library `json:"project"`
}

// ExportAllData writes config and lib to a single timestamped JSON
// backup file at exportPath.
func ExportAllData(exportPath string, config AppConfig, lib stackmodel.Library, now time.Time) error {
	backup := BackupData{
		Version:   "1.0.0",
		CreatedAt: now.UTC().Format(time.RFC3339),
		Config:    config,
		Project:   lib,
	}
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup data: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(exportPath), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	return os.WriteFile(exportPath, data, 0o644)
}

// ImportAllData reads a backup file written by ExportAllData, applying
// the same backward-compat defaulting a plain project load would.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("read backup file: %w", err)
	}
	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	ApplyBackwardCompatDefaults(&backup.Project)
	return backup, nil
}
