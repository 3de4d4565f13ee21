package kernelio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/piwi3910/stackfab/internal/stackmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportAndImportAllDataRoundTrips(t *testing.T) {
	lib := stackmodel.NewLibrary("demo")
	lib.Params = []stackmodel.Parameter{{ID: "p1", Key: "D", Expression: "10", Unit: stackmodel.UnitMM}}
	cfg := DefaultAppConfig()
	cfg.DefaultToolDiameter = 3.175

	path := filepath.Join(t.TempDir(), "backup.json")
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, ExportAllData(path, cfg, lib, now))

	backup, err := ImportAllData(path)
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", backup.Version)
	assert.Equal(t, "2026-01-02T03:04:05Z", backup.CreatedAt)
	assert.Equal(t, cfg.DefaultToolDiameter, backup.Config.DefaultToolDiameter)
	require.Len(t, backup.Project.Params, 1)
	assert.Equal(t, "D", backup.Project.Params[0].Key)
}

func TestImportAllDataRejectsMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"created_at":"2026-01-01T00:00:00Z"}`), 0o644))

	_, err := ImportAllData(path)
	assert.Error(t, err)
}

func TestImportAllDataMissingFileErrors(t *testing.T) {
	_, err := ImportAllData(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
