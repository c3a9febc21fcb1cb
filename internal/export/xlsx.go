package export

import (
	"encoding/json"
	"fmt"

	"github.com/tinytelemetry/prognosticator/internal/model"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Predictions"

// Workbook builds an XLSX workbook holding rs on a single sheet. Numeric
// values are stored as numbers, everything else as text.
func Workbook(rs model.ResultSet) (*excelize.File, error) {
	if len(rs) == 0 {
		return nil, ErrNoResult
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("export: rename sheet: %w", err)
	}

	headers := rs.Columns()
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("export: write header: %w", err)
	}

	for r, row := range rs {
		cells := make([]any, len(headers))
		for i, h := range headers {
			v, _ := row.Value(h)
			cells[i] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			f.Close()
			return nil, fmt.Errorf("export: write row %d: %w", r+1, err)
		}
	}
	return f, nil
}

// WriteXLSX writes rs to dir/predictions.xlsx and returns the written path.
func WriteXLSX(dir string, rs model.ResultSet) (string, error) {
	f, err := Workbook(rs)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path, err := targetPath(dir, model.DefaultWorkbookName)
	if err != nil {
		return "", err
	}
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("export: save %s: %w", path, err)
	}
	return path, nil
}

func cellValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Float64(); err == nil {
			return n
		}
		return t.String()
	case float64, bool:
		return t
	default:
		return model.FormatValue(v)
	}
}
