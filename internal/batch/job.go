// Package batch wires the geometry pipeline (params -> flatten -> contour
// -> manifold -> pocket -> layerexport) into the single "compute one
// layer's output file" operation the cmd/stackfab CLI and the
// cmd/stackfabd daemon both front, the composition-root role a host
// embedding the engine is expected to play.
package batch

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/piwi3910/stackfab/internal/contour"
	"github.com/piwi3910/stackfab/internal/expr"
	"github.com/piwi3910/stackfab/internal/flatten"
	"github.com/piwi3910/stackfab/internal/layerexport"
	"github.com/piwi3910/stackfab/internal/manifold"
	"github.com/piwi3910/stackfab/internal/params"
	"github.com/piwi3910/stackfab/internal/pocket"
	"github.com/piwi3910/stackfab/internal/progress"
	"github.com/piwi3910/stackfab/internal/stackmodel"
	"github.com/piwi3910/stackfab/internal/toolbuilder"
)

// BuildScope resolves lib's parameters in dependency order and returns
// the expr.Scope every downstream component evaluates against, plus the
// resolved parameter slice (so a caller can report per-parameter Err
// without re-resolving).
func BuildScope(lib *stackmodel.Library) (expr.Scope, []stackmodel.Parameter) {
	resolved := params.Resolve(lib.Params)
	scope := make(expr.Scope, len(resolved))
	for _, p := range resolved {
		scope[p.Key] = p.Value
	}
	return scope, resolved
}

// Job describes one layer export: which footprint and layer to compute,
// which file to write, and in what format.
type Job struct {
	FootprintID string
	LayerID     string
	OutputPath  string
	Format      layerexport.FileType
}

// Settings bundles the Pocketer and GCode settings a Job needs; STL/SVG/
// DXF jobs only consult the pocket/gcode-irrelevant fields when the
// format calls for them.
type Settings struct {
	Pocket  pocket.Settings
	GCode   layerexport.Settings
	Layer   manifold.LayerOptions
	BottomZ float64 // global Z of the current layer's local origin

	// Reporter receives per-shape diagnostics from the boolean engine
	// (tool bodies falling back to their stair-step approximation).
	// Nil discards them.
	Reporter progress.Reporter
}

// Result reports the outcome of one Job.
type Result struct {
	Job Job
	Err error
}

// Run executes a single job against lib, using scope as the already
// resolved parameter scope (see BuildScope).
func Run(ctx context.Context, lib *stackmodel.Library, scope expr.Scope, job Job, settings Settings) error {
	footprint, ok := lib.Footprints[job.FootprintID]
	if !ok {
		return fmt.Errorf("batch: unknown footprint %q", job.FootprintID)
	}
	var layer *stackmodel.StackupLayer
	for i := range lib.Stackup {
		if lib.Stackup[i].ID == job.LayerID {
			layer = &lib.Stackup[i]
			break
		}
	}
	if layer == nil {
		return fmt.Errorf("batch: unknown layer %q", job.LayerID)
	}
	fplib := lib.FootprintLib()

	switch job.Format {
	case layerexport.FileSTL:
		return runSTLJob(ctx, fplib, scope, footprint, layer, job, settings)
	case layerexport.FileGCode:
		return runGCodeJob(fplib, scope, footprint, layer, job, settings)
	default:
		return runVectorJob(fplib, scope, footprint, layer, job, settings)
	}
}

func runSTLJob(ctx context.Context, lib stackmodel.FootprintLibrary, scope expr.Scope, footprint *stackmodel.Footprint, layer *stackmodel.StackupLayer, job Job, settings Settings) error {
	engine := manifold.NewEngine(lib, scope, settings.Layer, toolbuilder.SubtractionSDF)
	engine.Reporter = settings.Reporter
	mesh, err := engine.ComputeLayer(ctx, footprint, layer)
	if err != nil {
		return err
	}
	return layerexport.STLExporter{}.ExportMesh(job.OutputPath, mesh)
}

func runGCodeJob(lib stackmodel.FootprintLibrary, scope expr.Scope, footprint *stackmodel.Footprint, layer *stackmodel.StackupLayer, job Job, settings Settings) error {
	flat := flatten.Flatten(footprint, lib, scope)
	resolution := settings.Layer.ContourResolution
	if resolution <= 0 {
		resolution = contour.DefaultResolution
	}
	moves, err := pocket.Generate(flat, footprint, lib, scope, resolution, layer, settings.Pocket, 0, 0, settings.BottomZ)
	if err != nil {
		return err
	}
	writer := layerexport.NewGCodeWriter(settings.GCode)
	text := writer.WriteMoves(moves, layer.Name, 0)
	return writeTextFile(job.OutputPath, text)
}

func runVectorJob(lib stackmodel.FootprintLibrary, scope expr.Scope, footprint *stackmodel.Footprint, layer *stackmodel.StackupLayer, job Job, settings Settings) error {
	flat := flatten.Flatten(footprint, lib, scope)
	resolution := settings.Layer.ContourResolution
	if resolution <= 0 {
		resolution = contour.DefaultResolution
	}

	records, err := layerexport.BuildShapeRecords(flat, lib, scope, layer.ID, resolution)
	if err != nil {
		return err
	}

	var outline []layerexport.OutlinePoint
	if outlineID, ok := footprint.BoardOutlineFor(layer.ID); ok {
		if bo := findBoardOutline(footprint, outlineID); bo != nil {
			outline = layerexport.BuildOutline(bo.Points, footprint, lib, scope)
		}
	}

	thickness, err := expr.Eval(layer.Thickness, scope)
	if err != nil {
		return err
	}

	req := layerexport.Request{
		FilePath:       job.OutputPath,
		FileType:       job.Format,
		MachiningType:  machiningTypeOf(layer.Type),
		CutDirection:   cutDirectionOf(layer.CarveSide),
		Outline:        outline,
		Shapes:         records,
		LayerThickness: thickness,
	}

	var exporter layerexport.Exporter
	switch job.Format {
	case layerexport.FileDXF:
		exporter = layerexport.DXFExporter{}
	default:
		exporter = layerexport.SVGExporter{}
	}
	return exporter.Export(req)
}

func writeTextFile(path, text string) error {
	return os.WriteFile(path, []byte(text), 0o644)
}

func findBoardOutline(footprint *stackmodel.Footprint, shapeID string) *stackmodel.BoardOutline {
	for _, s := range footprint.Shapes {
		if bo, ok := s.(*stackmodel.BoardOutline); ok && bo.ID == shapeID {
			return bo
		}
	}
	return nil
}

func machiningTypeOf(t stackmodel.LayerType) layerexport.MachiningType {
	if t == stackmodel.LayerCarved {
		return layerexport.MachiningCarved
	}
	return layerexport.MachiningCut
}

func cutDirectionOf(side stackmodel.CarveSide) layerexport.CutDirection {
	if side == stackmodel.CarveBottom {
		return layerexport.CutBottom
	}
	return layerexport.CutTop
}

// RunAll dispatches jobs over a bounded worker pool, mirroring
// manifold.Engine.ComputeLayers' "one goroutine per unit of work over a
// GOMAXPROCS-sized pool" idiom, but for whole export jobs instead of
// layer manifolds. Progress is reported per completed job;
// ctx cancellation stops dispatch of not-yet-started jobs; a running STL
// job stops at ComputeLayer's next cancellation check, while a running
// job of another format runs to completion.
func RunAll(ctx context.Context, lib *stackmodel.Library, scope expr.Scope, jobs []Job, settings Settings, workers int, reporter progress.Reporter) []Result {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if reporter == nil {
		reporter = progress.Discard
	}

	results := make([]Result, len(jobs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, job := range jobs {
		select {
		case <-ctx.Done():
			results[i] = Result{Job: job, Err: ctx.Err()}
			continue
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, job Job) {
			defer wg.Done()
			defer func() { <-sem }()

			err := Run(ctx, lib, scope, job, settings)
			results[i] = Result{Job: job, Err: err}

			msg := fmt.Sprintf("wrote %s", job.OutputPath)
			percent := float64(i+1) / float64(len(jobs))
			reporter.Report(progress.Event{ID: job.OutputPath, Message: msg, Percent: percent, Err: err})
		}(i, job)
	}
	wg.Wait()
	return results
}
