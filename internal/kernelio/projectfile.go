package kernelio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// LoadProject reads a project file from path and applies the
// backward-compat defaulting table below.
func LoadProject(path string) (stackmodel.Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return stackmodel.Library{}, fmt.Errorf("read project file: %w", err)
	}
	var lib stackmodel.Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return stackmodel.Library{}, fmt.Errorf("parse project file: %w", err)
	}
	ApplyBackwardCompatDefaults(&lib)
	return lib, nil
}

// SaveProject writes lib to path as indented JSON, creating parent
// directories as needed.
func SaveProject(path string, lib stackmodel.Library) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ApplyBackwardCompatDefaults fills in every field an older project
// file may be missing: unit <- "mm", color <- tableau10[i mod 10],
// carveSide <- "Top", assignedLayers <- {}, angle <- "0",
// cornerRadius <- "0". It mutates lib in place so older project files
// missing these fields (added across the tool's lifetime) still load
// with sensible values instead of failing validation.
func ApplyBackwardCompatDefaults(lib *stackmodel.Library) {
	for i := range lib.Params {
		if lib.Params[i].Unit == "" {
			lib.Params[i].Unit = stackmodel.UnitMM
		}
	}
	for i := range lib.Stackup {
		layer := &lib.Stackup[i]
		if layer.Color == "" {
			layer.Color = stackmodel.DefaultColor(i)
		}
		if layer.CarveSide == "" {
			layer.CarveSide = stackmodel.CarveTop
		}
		if layer.Type == "" {
			layer.Type = stackmodel.LayerCut
		}
	}
	for _, fp := range lib.Footprints {
		defaultFootprintShapes(fp.Shapes)
	}
}

// defaultFootprintShapes walks a shape list (recursing into Union
// children) applying the per-shape defaults: assignedLayers <- {},
// angle <- "0", cornerRadius <- "0" — only the shape kinds that actually
// carry those fields are touched.
func defaultFootprintShapes(shapes []stackmodel.Shape) {
	for _, s := range shapes {
		if setter, ok := s.(assignmentsSetter); ok && setter.Assignments() == nil {
			setter.SetAssignments(map[string]stackmodel.LayerAssignment{})
		}
		switch v := s.(type) {
		case *stackmodel.Rect:
			if v.Angle == "" {
				v.Angle = "0"
			}
			if v.CornerRadius == "" {
				v.CornerRadius = "0"
			}
		case *stackmodel.FootprintReference:
			if v.Angle == "" {
				v.Angle = "0"
			}
		case *stackmodel.Union:
			if v.Angle == "" {
				v.Angle = "0"
			}
			defaultFootprintShapes(v.Shapes)
		case *stackmodel.Text:
			if v.Angle == "" {
				v.Angle = "0"
			}
		}
	}
}

// assignmentsSetter is implemented by every Shape via its embedded base,
// letting defaultFootprintShapes initialize a nil AssignedLayers map
// without a type switch over every concrete kind.
type assignmentsSetter interface {
	Assignments() map[string]stackmodel.LayerAssignment
	SetAssignments(map[string]stackmodel.LayerAssignment)
}
