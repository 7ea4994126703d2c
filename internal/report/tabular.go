package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/a3tai/pdf-form-extract/internal/pdf/extraction"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet rows are written to
const SheetName = "Sheet1"

// WriteCSV writes a header row and one row per record
func WriteCSV(w io.Writer, specs extraction.FieldSpecs, results []*extraction.ExtractionResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns(specs)); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range results {
		row := Row(specs, r)
		cells := make([]string, len(row))
		for i, v := range row {
			switch v := v.(type) {
			case bool:
				cells[i] = strconv.FormatBool(v)
			case string:
				cells[i] = v
			default:
				cells[i] = fmt.Sprint(v)
			}
		}
		if err := cw.Write(cells); err != nil {
			return fmt.Errorf("failed to write csv row for %s: %w", r.Filename, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the records as an indented JSON array of objects keyed
// by column name
func WriteJSON(w io.Writer, specs extraction.FieldSpecs, results []*extraction.ExtractionResult) error {
	cols := Columns(specs)
	rows := make([]orderedRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, orderedRow{cols: cols, cells: Row(specs, r)})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("failed to encode json report: %w", err)
	}
	return nil
}

// orderedRow marshals as an object whose keys follow column order
type orderedRow struct {
	cols  []string
	cells []interface{}
}

func (o orderedRow) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, col := range o.cols {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(o.cells[i])
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

// newWorkbook lays the header and rows out on SheetName
func newWorkbook(specs extraction.FieldSpecs, results []*extraction.ExtractionResult) (*excelize.File, error) {
	f := excelize.NewFile()

	header := make([]interface{}, 0)
	for _, col := range Columns(specs) {
		header = append(header, col)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, r := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := Row(specs, r)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row for %s: %w", r.Filename, err)
		}
	}

	return f, nil
}

// WriteXLSX writes a workbook with a header row and one row per record
func WriteXLSX(w io.Writer, specs extraction.FieldSpecs, results []*extraction.ExtractionResult) error {
	f, err := newWorkbook(specs, results)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook to path
func SaveXLSX(path string, specs extraction.FieldSpecs, results []*extraction.ExtractionResult) error {
	f, err := newWorkbook(specs, results)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
