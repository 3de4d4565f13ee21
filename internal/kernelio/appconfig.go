// Package kernelio implements the external I/O collaborators that sit
// outside the geometry core: parameter CSV/XLSX import/export,
// project-file backward-compat defaulting and load/save, application
// preferences, and backup/restore.
package kernelio

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/stackfab/internal/layerexport"
	"github.com/piwi3910/stackfab/internal/pocket"
)

// AppConfig holds application-wide defaults applied to new projects:
// the Pocketer/GCode defaults a headless recompute needs. Editor-only
// preferences live with the editor, not here.
type AppConfig struct {
	DefaultToolDiameter float64 `json:"default_tool_diameter"`
	DefaultStepDown     float64 `json:"default_step_down"`
	DefaultStepOver     float64 `json:"default_step_over"`
	DefaultSafeZ        float64 `json:"default_safe_z"`
	DefaultFeedRate     float64 `json:"default_feed_rate"`
	DefaultPlungeRate   float64 `json:"default_plunge_rate"`
	DefaultSpindleSpeed int     `json:"default_spindle_speed"`
	DefaultGCodeProfile string  `json:"default_gcode_profile"`
}

// DefaultAppConfig returns sane defaults for a 1/8in endmill.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		DefaultToolDiameter: 3.175,
		DefaultStepDown:     2.0,
		DefaultStepOver:     1.5,
		DefaultSafeZ:        10.0,
		DefaultFeedRate:     1200,
		DefaultPlungeRate:   400,
		DefaultSpindleSpeed: 18000,
		DefaultGCodeProfile: "Generic",
	}
}

// ApplyToPocketSettings seeds a pocket.Settings from the saved defaults.
func (c AppConfig) ApplyToPocketSettings(s *pocket.Settings) {
	s.ToolDiameter = c.DefaultToolDiameter
	s.StepDown = c.DefaultStepDown
	s.StepOver = c.DefaultStepOver
	s.SafeZ = c.DefaultSafeZ
}

// ApplyToGCodeSettings seeds a layerexport.Settings from the saved
// defaults.
func (c AppConfig) ApplyToGCodeSettings(s *layerexport.Settings) {
	s.FeedRate = c.DefaultFeedRate
	s.PlungeRate = c.DefaultPlungeRate
	s.SpindleSpeed = c.DefaultSpindleSpeed
	s.Profile = c.DefaultGCodeProfile
}

// DefaultConfigDir returns ~/.stackfab, the config home.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".stackfab")
}

// DefaultConfigPath returns the default application config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// SaveAppConfig persists an AppConfig to path as indented JSON, creating
// parent directories as needed.
func SaveAppConfig(path string, config AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadAppConfig reads an AppConfig from path, returning DefaultAppConfig
// with no error when the file does not yet exist.
func LoadAppConfig(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultAppConfig(), nil
		}
		return AppConfig{}, err
	}
	var config AppConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return AppConfig{}, err
	}
	return config, nil
}
