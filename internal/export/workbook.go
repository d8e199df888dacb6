// Package export turns a served prediction payload into a spreadsheet
// workbook and keeps generated workbooks in a short-lived in-memory store
// for download.
package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/solarcast/solarcast/internal/common"
)

// PredictionRow is one exported prediction, mirroring the serving output.
// Weather values are nullable: a nil pointer round-trips as JSON null.
type PredictionRow struct {
	Date          string              `json:"date"`
	ProductionKWh float64             `json:"pv_production_kwh"`
	SavingsMAD    float64             `json:"financial_savings_mad"`
	Weather       map[string]*float64 `json:"weather_data"`
}

// Payload is the serving output handed back for export.
type Payload struct {
	Predictions []PredictionRow        `json:"predictions"`
	Summary     map[string]interface{} `json:"summary"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// BuildWorkbook produces a three-sheet xlsx workbook: Predictions with
// weather sub-fields flattened to top-level columns, Summary as a single
// row, and Metadata as a single row.
func BuildWorkbook(p Payload) ([]byte, error) {
	if len(p.Predictions) == 0 {
		return nil, fmt.Errorf("no prediction data provided")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Predictions"); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet("Summary"); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet("Metadata"); err != nil {
		return nil, err
	}

	if err := writePredictions(f, p.Predictions); err != nil {
		return nil, err
	}
	if err := writeSingleRow(f, "Summary", p.Summary); err != nil {
		return nil, err
	}
	if err := writeSingleRow(f, "Metadata", p.Metadata); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePredictions(f *excelize.File, rows []PredictionRow) error {
	// Union of weather keys across all rows, sorted for a stable layout.
	weatherKeys := make(map[string]bool)
	for _, r := range rows {
		for k := range r.Weather {
			weatherKeys[k] = true
		}
	}
	weather := make([]string, 0, len(weatherKeys))
	for k := range weatherKeys {
		weather = append(weather, k)
	}
	sort.Strings(weather)

	headers := append([]string{"date", "pv_production_kwh", "financial_savings_mad"}, weather...)
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue("Predictions", cell, h); err != nil {
			return err
		}
	}

	for i, r := range rows {
		values := []interface{}{r.Date, r.ProductionKWh, r.SavingsMAD}
		for _, k := range weather {
			if v, ok := r.Weather[k]; ok && v != nil {
				values = append(values, *v)
			} else {
				values = append(values, nil)
			}
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue("Predictions", cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeSingleRow(f *excelize.File, sheet string, data map[string]interface{}) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for col, k := range keys {
		headerCell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, headerCell, k); err != nil {
			return err
		}
		valueCell, err := excelize.CoordinatesToCellName(col+1, 2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, valueCell, fmt.Sprintf("%v", data[k])); err != nil {
			return err
		}
	}
	return nil
}

// Filename derives the download name from the payload's metadata and
// summary blocks.
func Filename(p Payload) string {
	location := "unknown"
	if v, ok := p.Metadata["location"].(string); ok && v != "" {
		location = v
	}
	start, end := "unknown", "unknown"
	if dr, ok := p.Summary["date_range"].(map[string]interface{}); ok {
		if v, ok := dr["start"].(string); ok && v != "" {
			start = v
		}
		if v, ok := dr["end"].(string); ok && v != "" {
			end = v
		}
	}
	return common.SanitizeFilename(fmt.Sprintf("pv_predictions_%s_%s_%s.xlsx", location, start, end))
}
