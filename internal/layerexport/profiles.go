package layerexport

// GCodeProfile defines a post-processor configuration for a CNC
// controller: the dialect's preamble/postamble, comment style, and
// which plunge strategies it supports.
type GCodeProfile struct {
	Name        string
	Description string
	Units       string

	StartCode    []string
	SpindleStart string
	SpindleStop  string
	HomeAll      string
	HomeXY       string

	AbsoluteMode string
	FeedMode     string
	RapidMove    string
	FeedMove     string

	EndCode []string

	CommentPrefix string
	CommentSuffix string

	DecimalPlaces int
	LeadingZeros  bool
}

// Profiles is the built-in GCode profile catalog: the four common
// controller presets.
var Profiles = []GCodeProfile{
	{
		Name: "Grbl", Description: "Standard Grbl configuration (Arduino CNC shields)", Units: "mm",
		StartCode: []string{"G90", "G21", "G17"}, SpindleStart: "M3 S%d", SpindleStop: "M5",
		HomeAll: "$H", HomeXY: "$H", AbsoluteMode: "G90", FeedMode: "G94", RapidMove: "G0", FeedMove: "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M5", "M2"},
		CommentPrefix: ";", DecimalPlaces: 3,
	},
	{
		Name: "Mach3", Description: "Mach3 CNC control software", Units: "mm",
		StartCode: []string{"G90", "G21", "G17", "G94"}, SpindleStart: "M3 S%d", SpindleStop: "M5",
		HomeAll: "G28 X0 Y0 Z0", HomeXY: "G28 X0 Y0", AbsoluteMode: "G90", FeedMode: "G94", RapidMove: "G0", FeedMove: "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G28 X0 Y0", "M5", "M30"},
		CommentPrefix: ";", DecimalPlaces: 4,
	},
	{
		Name: "LinuxCNC", Description: "LinuxCNC (formerly EMC2)", Units: "mm",
		StartCode: []string{"G90", "G21", "G17", "G94"}, SpindleStart: "M3 S%d", SpindleStop: "M5",
		HomeAll: "G28 X0 Y0 Z0", HomeXY: "G28 X0 Y0", AbsoluteMode: "G90", FeedMode: "G94", RapidMove: "G0", FeedMove: "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M5", "M2"},
		CommentPrefix: ";", DecimalPlaces: 4,
	},
	{
		Name: "Generic", Description: "Generic standard GCode", Units: "mm",
		StartCode: []string{"G90", "G21"}, SpindleStart: "M3 S%d", SpindleStop: "M5",
		HomeAll: "G28 X0 Y0 Z0", HomeXY: "G28 X0 Y0", AbsoluteMode: "G90", FeedMode: "G94", RapidMove: "G0", FeedMove: "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M5", "M2"},
		CommentPrefix: ";", DecimalPlaces: 3,
	},
}

// GetProfile returns the named profile, or the Generic one if name is
// unrecognized, matching model.GetProfile fallback.
func GetProfile(name string) GCodeProfile {
	for _, p := range Profiles {
		if p.Name == name {
			return p
		}
	}
	return Profiles[len(Profiles)-1]
}

// PlungeType names a strategy for entering material at the start of a
// cutting pass. GCodeWriter does not read it: every pass enters with the
// straight plunge the pocket toolpath already contains.
type PlungeType string

const (
	PlungeDirect PlungeType = "Direct"
	PlungeRamp   PlungeType = "Ramp"
	PlungeHelix  PlungeType = "Helix"
)

// Settings carries the GCode writer's feed/speed and plunge-strategy
// configuration, kept separate from pocket.Settings so machine config
// stays distinct from the pure toolpath geometry it feeds.
type Settings struct {
	Profile      string
	FeedRate     float64
	PlungeRate   float64
	SpindleSpeed int
	UseClimb     bool

	// The plunge-strategy fields are stored only; nothing in this package
	// reads them or applies defaults or caps to them.
	PlungeType      PlungeType
	RampAngleDeg    float64 // ramp angle, degrees
	HelixDiameter   float64 // helix diameter, mm
	HelixRevPercent float64 // depth-per-revolution as % of step-down
}
