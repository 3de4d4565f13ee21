package stackmodel

import "math"

// sqmmPerBoardFoot is the number of square millimetres in one board foot:
// 12in x 12in = 144 sq in = 144 * 25.4^2 sq mm.
const sqmmPerBoardFoot = 92903.04

// MaterialEstimate holds the results of a stackup purchasing calculation
// for one material group.
type MaterialEstimate struct {
	Material          string  `json:"material"`
	TotalLayerArea    float64 `json:"total_layer_area"`    // sq mm, summed over layers of this material
	TotalBoardFeet    float64 `json:"total_board_feet"`
	SheetArea         float64 `json:"sheet_area"`          // sq mm, area of one stock sheet
	SheetsNeededExact float64 `json:"sheets_needed_exact"`
	SheetsNeededMin   int     `json:"sheets_needed_min"`
	SheetsWithWaste   int     `json:"sheets_with_waste"`
	WastePercent      float64 `json:"waste_percent"`
	EstimatedCost     float64 `json:"estimated_cost"`
	PricePerSheet     float64 `json:"price_per_sheet"`
}

// EstimateMaterial computes how many sheets of each stackup layer's
// material to buy, given the board's footprint area (the CLI passes the
// area of its BoardOutline polygon) and a waste factor. Layers sharing a material name are
// grouped and priced together.
func EstimateMaterial(layers []StackupLayer, boardArea float64, sheetWidth, sheetHeight float64, wastePercent float64, pricePerSheet map[string]float64) []MaterialEstimate {
	areaByMaterial := map[string]float64{}
	order := []string{}
	for _, l := range layers {
		mat := l.Material
		if mat == "" {
			mat = "unspecified"
		}
		if _, seen := areaByMaterial[mat]; !seen {
			order = append(order, mat)
		}
		areaByMaterial[mat] += boardArea
	}

	sheetArea := sheetWidth * sheetHeight
	results := make([]MaterialEstimate, 0, len(order))
	for _, mat := range order {
		totalArea := areaByMaterial[mat]
		price := pricePerSheet[mat]

		if sheetArea <= 0 {
			results = append(results, MaterialEstimate{
				Material:       mat,
				TotalLayerArea: totalArea,
				TotalBoardFeet: totalArea / sqmmPerBoardFoot,
				WastePercent:   wastePercent,
				PricePerSheet:  price,
			})
			continue
		}

		exactSheets := totalArea / sheetArea
		minSheets := int(math.Ceil(exactSheets))
		wasteFactor := 1.0 + (wastePercent / 100.0)
		sheetsWithWaste := int(math.Ceil(exactSheets * wasteFactor))
		if sheetsWithWaste < minSheets {
			sheetsWithWaste = minSheets
		}

		results = append(results, MaterialEstimate{
			Material:          mat,
			TotalLayerArea:    totalArea,
			TotalBoardFeet:    totalArea / sqmmPerBoardFoot,
			SheetArea:         sheetArea,
			SheetsNeededExact: exactSheets,
			SheetsNeededMin:   minSheets,
			SheetsWithWaste:   sheetsWithWaste,
			WastePercent:      wastePercent,
			EstimatedCost:     float64(sheetsWithWaste) * price,
			PricePerSheet:     price,
		})
	}
	return results
}
