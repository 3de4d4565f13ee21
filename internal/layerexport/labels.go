package layerexport

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// LayerSummary is one stackup layer's computed result, the unit the
// summary report is built from: one row per layer, one QR code encoding
// its id for shop-floor lookup.
type LayerSummary struct {
	LayerID   string
	LayerName string
	Material  string
	Volume    float64 // mm^3, Manifold.Volume()
	Estimate  stackmodel.MaterialEstimate
}

// Page layout constants for the single-column summary report.
const (
	summaryPageWidth  = 215.9 // US Letter, mm
	summaryMarginLeft = 15.0
	summaryMarginTop  = 15.0
	summaryRowHeight  = 22.0
	summaryQRSize     = 16.0
	summaryPadding    = 2.0
)

// qrPayload is what gets encoded into each row's QR code: a
// project+layer id pair a shop-floor scanner can look up.
type qrPayload struct {
	ProjectName string `json:"project"`
	LayerID     string `json:"layer_id"`
	LayerName   string `json:"layer_name"`
}

// ExportLayerSummary generates a one-page-per-project PDF listing each
// stackup layer's material, computed manifold volume, and estimated
// cost, with a QR code per row.
func ExportLayerSummary(path, projectName string, summaries []LayerSummary) error {
	if len(summaries) == 0 {
		return fmt.Errorf("no layers to summarize")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(true, summaryMarginTop)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(summaryMarginLeft, summaryMarginTop)
	pdf.CellFormat(summaryPageWidth-2*summaryMarginLeft, 8, fmt.Sprintf("%s — Layer Summary", projectName), "", 1, "L", false, 0, "")

	y := summaryMarginTop + 12
	for _, s := range summaries {
		if err := renderSummaryRow(pdf, projectName, summaryMarginLeft, y, s); err != nil {
			return fmt.Errorf("layer %q: %w", s.LayerName, err)
		}
		y += summaryRowHeight
	}

	return pdf.OutputFileAndClose(path)
}

func renderSummaryRow(pdf *fpdf.Fpdf, projectName string, x, y float64, s LayerSummary) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, summaryPageWidth-2*summaryMarginLeft, summaryRowHeight, "D")

	payload := qrPayload{ProjectName: projectName, LayerID: s.LayerID, LayerName: s.LayerName}
	qrData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal QR payload: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%s", s.LayerID)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))
	qrX := x + summaryPageWidth - 2*summaryMarginLeft - summaryQRSize - summaryPadding
	qrY := y + (summaryRowHeight-summaryQRSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, summaryQRSize, summaryQRSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + summaryPadding
	textW := summaryPageWidth - 2*summaryMarginLeft - summaryQRSize - 3*summaryPadding

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+summaryPadding)
	pdf.CellFormat(textW, 5, s.LayerName, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(textX, y+summaryPadding+5.5)
	pdf.CellFormat(textW, 4, fmt.Sprintf("Material: %s    Volume: %.1f mm^3", s.Material, s.Volume), "", 1, "L", false, 0, "")

	pdf.SetXY(textX, y+summaryPadding+9.5)
	pdf.CellFormat(textW, 4, fmt.Sprintf("Sheets: %d (incl. %.0f%% waste)    Est. cost: %.2f",
		s.Estimate.SheetsWithWaste, s.Estimate.WastePercent, s.Estimate.EstimatedCost), "", 1, "L", false, 0, "")

	return nil
}
