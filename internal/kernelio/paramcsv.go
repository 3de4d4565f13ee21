package kernelio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// paramColumnAliases maps each parameter CSV column to its accepted
// header spellings, matched case-insensitively against the
// "Name, Unit, Expression, Value, Comments, Favorite" column set.
var paramColumnAliases = map[string][]string{
	"name":       {"name", "key", "parameter", "param"},
	"unit":       {"unit", "units"},
	"expression": {"expression", "expr", "formula"},
	"value":      {"value", "val"},
	"comments":   {"comments", "comment", "notes", "note"},
	"favorite":   {"favorite", "favourite", "fav", "starred"},
}

// paramColumnMapping gives the column index (or -1 if absent) of each
// recognized role.
type paramColumnMapping struct {
	Name, Unit, Expression, Value, Comments, Favorite int
}

// detectParamColumns matches a header row against paramColumnAliases,
// case-insensitively; the first match per role wins.
func detectParamColumns(row []string) paramColumnMapping {
	m := paramColumnMapping{Name: -1, Unit: -1, Expression: -1, Value: -1, Comments: -1, Favorite: -1}
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range paramColumnAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				switch role {
				case "name":
					if m.Name == -1 {
						m.Name = i
					}
				case "unit":
					if m.Unit == -1 {
						m.Unit = i
					}
				case "expression":
					if m.Expression == -1 {
						m.Expression = i
					}
				case "value":
					if m.Value == -1 {
						m.Value = i
					}
				case "comments":
					if m.Comments == -1 {
						m.Comments = i
					}
				case "favorite":
					if m.Favorite == -1 {
						m.Favorite = i
					}
				}
			}
		}
	}
	return m
}

// ImportedParameter is one parsed CSV/XLSX row before it is merged into
// a Library's parameter list.
type ImportedParameter struct {
	Key        string
	Unit       stackmodel.Unit
	Expression string
	Comments   string
	Favorite   bool
}

// SanitizeKey replaces every character that cannot appear in an
// expression identifier with '_'. The identifier alphabet mirrors
// internal/expr's own isIdentStart/isIdentPart rune classes exactly so a
// sanitized key tokenizes as an identifier — except the unit words "mm"
// and "in" (in any letter case), which the tokenizer reads as unit
// suffixes and which are left unchanged here.
func SanitizeKey(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		isStart := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if isStart || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	s := b.String()
	// A key that is empty or starts with a digit is not a valid
	// identifier yet; prefix rather than drop the leading digit.
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return "_" + s
	}
	return s
}

// ParseParameterCSV reads the parameter CSV column set (Name, Unit, Expression,
// Value, Comments, Favorite) from data. The Value column is read only as
// a fallback display hint; ParamResolver, not the importer, is the
// source of truth for the resolved value.
func ParseParameterCSV(data []byte) ([]ImportedParameter, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse parameter CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	mapping := detectParamColumns(rows[0])
	start := 1
	if mapping.Name == -1 {
		// No recognizable header; assume positional Name,Unit,Expression order.
		mapping = paramColumnMapping{Name: 0, Unit: 1, Expression: 2, Value: 3, Comments: 4, Favorite: 5}
		start = 0
	}

	var out []ImportedParameter
	for _, row := range rows[start:] {
		p, ok := rowToParameter(row, mapping)
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ParseParameterXLSX reads the same column set from the first sheet of
// an .xlsx workbook via excelize.
func ParseParameterXLSX(r io.Reader) ([]ImportedParameter, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	mapping := detectParamColumns(rows[0])
	start := 1
	if mapping.Name == -1 {
		mapping = paramColumnMapping{Name: 0, Unit: 1, Expression: 2, Value: 3, Comments: 4, Favorite: 5}
		start = 0
	}

	var out []ImportedParameter
	for _, row := range rows[start:] {
		p, ok := rowToParameter(row, mapping)
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func rowToParameter(row []string, mapping paramColumnMapping) (ImportedParameter, bool) {
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	name := cell(mapping.Name)
	if name == "" {
		return ImportedParameter{}, false
	}

	unit := stackmodel.UnitMM
	if u := strings.ToLower(cell(mapping.Unit)); u == "in" || u == "inch" || u == "inches" {
		unit = stackmodel.UnitIn
	}

	expression := cell(mapping.Expression)
	if expression == "" {
		// Fall back to the literal Value column when no expression was given.
		expression = cell(mapping.Value)
	}

	favorite, _ := strconv.ParseBool(cell(mapping.Favorite))

	return ImportedParameter{
		Key:        SanitizeKey(name),
		Unit:       unit,
		Expression: expression,
		Comments:   cell(mapping.Comments),
		Favorite:   favorite,
	}, true
}

// MergeParameters merges imported rows into an existing parameter list
// by key: existing keys have only their expression and unit updated in
// place, new keys are appended.
func MergeParameters(existing []stackmodel.Parameter, imported []ImportedParameter, newID func() string) []stackmodel.Parameter {
	byKey := make(map[string]int, len(existing))
	for i, p := range existing {
		byKey[p.Key] = i
	}

	for _, imp := range imported {
		if idx, ok := byKey[imp.Key]; ok {
			existing[idx].Expression = imp.Expression
			existing[idx].Unit = imp.Unit
			continue
		}
		existing = append(existing, stackmodel.Parameter{
			ID:         newID(),
			Key:        imp.Key,
			Expression: imp.Expression,
			Unit:       imp.Unit,
		})
		byKey[imp.Key] = len(existing) - 1
	}
	return existing
}
