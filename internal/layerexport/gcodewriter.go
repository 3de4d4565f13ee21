package layerexport

import (
	"fmt"
	"strings"

	"github.com/piwi3910/stackfab/internal/pocket"
)

// GCodeWriter turns a Pocketer move list into GCode text using a
// GCodeProfile's header/footer/comment/format conventions. It only ever
// replays an already-ordered []pocket.Move — Pocketer, not this writer,
// owns toolpath ordering — and the geometry core emits no feed or
// spindle codes of its own, so the profile's feed/spindle/home wrapping
// lives here, one layer above it.
type GCodeWriter struct {
	Settings Settings
	profile  GCodeProfile
}

// NewGCodeWriter resolves settings.Profile against the built-in catalog,
// falling back to Generic.
func NewGCodeWriter(settings Settings) *GCodeWriter {
	return &GCodeWriter{Settings: settings, profile: GetProfile(settings.Profile)}
}

// WriteMoves renders one layer's already-ordered toolpath as GCode text.
// label and layerIndex only annotate the header comment block.
func (w *GCodeWriter) WriteMoves(moves []pocket.Move, label string, layerIndex int) string {
	var b strings.Builder
	w.writeHeader(&b, label, layerIndex, len(moves))

	inCut := false
	for _, m := range moves {
		if m.Rapid {
			if inCut {
				b.WriteString(w.comment("retract"))
				inCut = false
			}
			b.WriteString(fmt.Sprintf("%s X%s Y%s Z%s\n", w.profile.RapidMove,
				w.format(m.X), w.format(m.Y), w.format(m.Z)))
			continue
		}
		if !inCut {
			b.WriteString(w.comment("cut"))
			inCut = true
		}
		b.WriteString(fmt.Sprintf("%s X%s Y%s Z%s F%s\n", w.profile.FeedMove,
			w.format(m.X), w.format(m.Y), w.format(m.Z), w.format(w.Settings.FeedRate)))
	}

	w.writeFooter(&b)
	return b.String()
}

func (w *GCodeWriter) writeHeader(b *strings.Builder, label string, layerIndex, moveCount int) {
	p := w.profile
	b.WriteString(p.CommentPrefix)
	b.WriteString(fmt.Sprintf(" StackFab GCode — Layer %d (%s)\n", layerIndex, label))
	b.WriteString(p.CommentPrefix)
	b.WriteString(fmt.Sprintf(" Moves: %d, Profile: %s\n", moveCount, p.Name))
	b.WriteString(p.CommentPrefix)
	b.WriteString(fmt.Sprintf(" Feed: %.0f mm/min, Plunge: %.0f mm/min\n", w.Settings.FeedRate, w.Settings.PlungeRate))
	b.WriteString("\n")

	for _, code := range p.StartCode {
		b.WriteString(code + "\n")
	}
	if p.SpindleStart != "" {
		b.WriteString(fmt.Sprintf(p.SpindleStart+"\n", w.Settings.SpindleSpeed))
	}
	b.WriteString("\n")
}

func (w *GCodeWriter) writeFooter(b *strings.Builder) {
	p := w.profile
	b.WriteString("\n")
	b.WriteString(p.CommentPrefix + " === Layer complete ===\n")
	for _, code := range p.EndCode {
		b.WriteString(strings.ReplaceAll(code, "[SafeZ]", "0") + "\n")
	}
	if p.SpindleStop != "" {
		b.WriteString(p.SpindleStop + "\n")
	}
}

func (w *GCodeWriter) comment(text string) string {
	return w.profile.CommentPrefix + " " + text + w.profile.CommentSuffix + "\n"
}

func (w *GCodeWriter) format(v float64) string {
	return fmt.Sprintf(fmt.Sprintf("%%.%df", w.profile.DecimalPlaces), v)
}
