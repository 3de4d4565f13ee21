// Command stackfab is the headless CLI front-end for the StackFab
// geometry engine: resolving a project's parameters, estimating
// material cost, and exporting one footprint/layer pair to SVG, DXF,
// STL, or GCode. There is no GUI here; the editor surface lives
// elsewhere.
//
// Usage:
//
//	stackfab resolve <project.json>
//	stackfab estimate [-sheet-width mm] [-sheet-height mm] [-waste pct] <project.json>
//	stackfab export [-format svg|dxf|stl|gcode] <project.json> <footprint-id> <layer-id> <output>
//	stackfab import-params [-out path] <project.json> <csv-path>
//
// Flags go before the positional arguments: parsing stops at the first
// non-flag argument.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/piwi3910/stackfab/internal/batch"
	"github.com/piwi3910/stackfab/internal/contour"
	"github.com/piwi3910/stackfab/internal/expr"
	"github.com/piwi3910/stackfab/internal/kernelio"
	"github.com/piwi3910/stackfab/internal/layerexport"
	"github.com/piwi3910/stackfab/internal/manifold"
	"github.com/piwi3910/stackfab/internal/progress"
	"github.com/piwi3910/stackfab/internal/stackmodel"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "resolve":
		err = runResolve(os.Args[2:], logger)
	case "estimate":
		err = runEstimate(os.Args[2:], logger)
	case "export":
		err = runExport(os.Args[2:], logger)
	case "import-params":
		err = runImportParams(os.Args[2:], logger)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: stackfab <resolve|estimate|export|import-params> ...")
}

func runResolve(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("resolve: project path required")
	}

	loaded, err := kernelio.LoadProject(fs.Arg(0))
	if err != nil {
		return err
	}
	lib := &loaded
	_, resolved := batch.BuildScope(lib)

	failed := 0
	for _, p := range resolved {
		if p.Err != nil {
			failed++
			logger.Warn("parameter failed to resolve", "key", p.Key, "error", p.Err)
			continue
		}
		fmt.Printf("%s = %g %s\n", p.Key, p.Value, p.Unit)
	}
	if failed > 0 {
		return fmt.Errorf("resolve: %d of %d parameters failed", failed, len(resolved))
	}
	return nil
}

func runEstimate(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("estimate", flag.ExitOnError)
	sheetWidth := fs.Float64("sheet-width", 1220, "stock sheet width in mm")
	sheetHeight := fs.Float64("sheet-height", 2440, "stock sheet height in mm")
	waste := fs.Float64("waste", 10, "waste percent added to sheet count")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("estimate: project path required")
	}

	loaded, err := kernelio.LoadProject(fs.Arg(0))
	if err != nil {
		return err
	}
	lib := &loaded
	scope, resolved := batch.BuildScope(lib)
	for _, p := range resolved {
		if p.Err != nil {
			logger.Warn("parameter failed to resolve, estimate may be inaccurate", "key", p.Key)
		}
	}

	boardArea := firstBoardArea(lib, scope)
	estimates := stackmodel.EstimateMaterial(lib.Stackup, boardArea, *sheetWidth, *sheetHeight, *waste, nil)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(estimates)
}

func runExport(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "svg", "output format: svg|dxf|stl|gcode")
	config := fs.String("config", "", "path to an app config JSON (defaults to ~/.stackfab/config.json)")
	fs.Parse(args)
	if fs.NArg() < 4 {
		return fmt.Errorf("export: usage is export [-format <fmt>] <project.json> <footprint-id> <layer-id> <output>")
	}

	loaded, err := kernelio.LoadProject(fs.Arg(0))
	if err != nil {
		return err
	}
	lib := &loaded
	scope, resolved := batch.BuildScope(lib)
	for _, p := range resolved {
		if p.Err != nil {
			logger.Warn("parameter failed to resolve", "key", p.Key, "error", p.Err)
		}
	}

	configPath := *config
	if configPath == "" {
		configPath = kernelio.DefaultConfigPath()
	}
	appConfig, err := kernelio.LoadAppConfig(configPath)
	if err != nil {
		return err
	}

	settings := batch.Settings{Layer: manifold.DefaultLayerOptions()}
	appConfig.ApplyToPocketSettings(&settings.Pocket)
	appConfig.ApplyToGCodeSettings(&settings.GCode)
	settings.Reporter = progress.ReporterFunc(func(e progress.Event) {
		logger.Warn(e.Message)
	})

	job := batch.Job{
		FootprintID: fs.Arg(1),
		LayerID:     fs.Arg(2),
		OutputPath:  fs.Arg(3),
		Format:      layerexport.FileType(strings.ToUpper(*format)),
	}

	if err := batch.Run(context.Background(), lib, scope, job, settings); err != nil {
		return err
	}
	logger.Info("exported layer", "footprint", job.FootprintID, "layer", job.LayerID, "path", job.OutputPath)
	return nil
}

func runImportParams(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("import-params", flag.ExitOnError)
	out := fs.String("out", "", "output project path (defaults to overwriting the input)")
	fs.Parse(args)
	if fs.NArg() < 2 {
		return fmt.Errorf("import-params: usage is import-params <project.json> <csv-path>")
	}

	lib, err := kernelio.LoadProject(fs.Arg(0))
	if err != nil {
		return err
	}

	data, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		return err
	}
	imported, err := kernelio.ParseParameterCSV(data)
	if err != nil {
		return err
	}

	counter := len(lib.Params)
	lib.Params = kernelio.MergeParameters(lib.Params, imported, func() string {
		counter++
		return fmt.Sprintf("p%d", counter)
	})

	outPath := *out
	if outPath == "" {
		outPath = fs.Arg(0)
	}
	if err := kernelio.SaveProject(outPath, lib); err != nil {
		return err
	}
	logger.Info("imported parameters", "count", len(imported), "path", outPath)
	return nil
}

func firstBoardArea(lib *stackmodel.Library, scope expr.Scope) float64 {
	for _, fp := range lib.Footprints {
		if !fp.IsBoard {
			continue
		}
		id, ok := fp.FirstBoardOutline()
		if !ok {
			continue
		}
		for _, s := range fp.Shapes {
			bo, ok := s.(*stackmodel.BoardOutline)
			if !ok || bo.ID != id {
				continue
			}
			cs := contour.Polygon(bo.Points, fp, lib.FootprintLib(), scope, contour.DefaultResolution)
			return cs.Area()
		}
	}
	return 0
}
