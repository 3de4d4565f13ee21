package stackmodel

// Parameter is a named, expression-valued scalar. Its Value is kept in
// sync by internal/params.Resolve whenever any expression or unit in the
// owning set changes; it is not an invariant ExprEval enforces on its own.
type Parameter struct {
	ID         string  `json:"id"`
	Key        string  `json:"key"`
	Expression string  `json:"expression"`
	Value      float64 `json:"value"` // mm, after unit reduction
	Unit       Unit    `json:"unit"`

	// Err is set by internal/params.Resolve when this parameter could not
	// be resolved (cycle, unknown identifier, eval error). Value is 0 in
	// that case but the batch is not aborted.
	Err error `json:"-"`
}

// LayerType distinguishes a fully-through cut layer from a partial-depth
// carved/printed one.
type LayerType string

const (
	LayerCut    LayerType = "Cut"
	LayerCarved LayerType = "Carved"
)

// CarveSide names which face of a Carved layer the tool enters from.
type CarveSide string

const (
	CarveTop    CarveSide = "Top"
	CarveBottom CarveSide = "Bottom"
)

// StackupLayer is one sheet in the laminated board, ordered with index 0
// topmost.
type StackupLayer struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       LayerType `json:"type"`
	Thickness  string    `json:"thickness"` // expression text; value ≥ 0
	Color      string    `json:"color"`
	CarveSide  CarveSide `json:"carve_side"`
	Material   string    `json:"material,omitempty"`
}

// LayerAssignment is the per-shape, per-layer cut instruction. For Cut
// layers only its presence matters: depth equals the layer thickness
// regardless of the Depth expression. For Carved layers Depth is clamped
// into [0, thickness] by the BooleanEngine.
type LayerAssignment struct {
	Depth         string `json:"depth"`
	EndmillRadius string `json:"endmill_radius"`
	InputFillet   string `json:"input_fillet"`
}

// tableau10 is the default color cycle used when loading a project whose
// StackupLayer.Color field is missing.
var tableau10 = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// DefaultColor returns the tableau10 palette entry for the i'th layer.
func DefaultColor(i int) string {
	return tableau10[i%len(tableau10)]
}
