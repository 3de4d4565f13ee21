// Command stackfabd is the headless batch/export daemon: it reads a job
// manifest naming a project file and a list of footprint/layer/output
// triples, resolves the project once, and dispatches every job over the
// bounded worker pool internal/batch.RunAll provides, the batch-recompute
// counterpart to cmd/stackfab's one-job-at-a-time CLI.
//
// Usage:
//
//	stackfabd -manifest jobs.json [-workers N] [-config path]
//
// Manifest format:
//
//	{
//	  "project": "project.json",
//	  "jobs": [
//	    {"footprint_id": "F1", "layer_id": "L1", "output_path": "out/L1.svg", "format": "svg"}
//	  ]
//	}
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/piwi3910/stackfab/internal/batch"
	"github.com/piwi3910/stackfab/internal/kernelio"
	"github.com/piwi3910/stackfab/internal/layerexport"
	"github.com/piwi3910/stackfab/internal/manifold"
	"github.com/piwi3910/stackfab/internal/progress"
)

// manifestJob is one job entry's on-disk shape.
type manifestJob struct {
	FootprintID string `json:"footprint_id"`
	LayerID     string `json:"layer_id"`
	OutputPath  string `json:"output_path"`
	Format      string `json:"format"`
}

// manifest is the on-disk batch job description.
type manifest struct {
	Project string        `json:"project"`
	Config  string        `json:"config,omitempty"`
	Jobs    []manifestJob `json:"jobs"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	manifestPath := flag.String("manifest", "", "path to the batch job manifest JSON")
	workers := flag.Int("workers", 0, "worker pool size (<=0 uses GOMAXPROCS)")
	flag.Parse()

	if *manifestPath == "" {
		logger.Error("stackfabd: -manifest is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *manifestPath, *workers, logger); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, manifestPath string, workers int, logger *slog.Logger) error {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	if m.Project == "" {
		return fmt.Errorf("manifest: project path is required")
	}

	loaded, err := kernelio.LoadProject(m.Project)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	lib := &loaded
	scope, resolved := batch.BuildScope(lib)
	for _, p := range resolved {
		if p.Err != nil {
			logger.Warn("parameter failed to resolve", "key", p.Key, "error", p.Err)
		}
	}

	configPath := m.Config
	if configPath == "" {
		configPath = kernelio.DefaultConfigPath()
	}
	appConfig, err := kernelio.LoadAppConfig(configPath)
	if err != nil {
		return fmt.Errorf("load app config: %w", err)
	}

	settings := batch.Settings{Layer: manifold.DefaultLayerOptions()}
	appConfig.ApplyToPocketSettings(&settings.Pocket)
	appConfig.ApplyToGCodeSettings(&settings.GCode)
	settings.Reporter = progress.ReporterFunc(func(e progress.Event) {
		logger.Warn(e.Message)
	})

	jobs := make([]batch.Job, len(m.Jobs))
	for i, j := range m.Jobs {
		jobs[i] = batch.Job{
			FootprintID: j.FootprintID,
			LayerID:     j.LayerID,
			OutputPath:  j.OutputPath,
			Format:      layerexport.FileType(strings.ToUpper(j.Format)),
		}
	}

	reporter := progress.ReporterFunc(func(e progress.Event) {
		if e.Err != nil {
			logger.Error("job failed", "id", e.ID, "error", e.Err)
			return
		}
		logger.Info(e.Message, "percent", e.Percent)
	})

	results := batch.RunAll(ctx, lib, scope, jobs, settings, workers, reporter)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("stackfabd: %d of %d jobs failed", failed, len(results))
	}
	return nil
}
