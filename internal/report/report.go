// Package report renders extraction records as console text, CSV, JSON or
// spreadsheet rows, and parses the console text back into records.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/a3tai/pdf-form-extract/internal/pdf/extraction"
)

// Format names an output encoding
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// Formats lists every supported format
var Formats = []Format{FormatText, FormatCSV, FormatJSON, FormatXLSX}

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown report format %q", name)
}

// Fixed column names
const (
	ColumnFilename         = "filename"
	ColumnImagePresentBool = "image_present_bool"
	ColumnImagePresentFlag = "image_present_flag"
	optionsSuffix          = "_options"
)

// Columns returns the row header: filename, the value keys, the two image
// columns, then one options column per choice key.
func Columns(specs extraction.FieldSpecs) []string {
	cols := []string{ColumnFilename}
	cols = append(cols, specs.ValueKeys()...)
	cols = append(cols, ColumnImagePresentBool, ColumnImagePresentFlag)
	for _, key := range specs.ChoiceKeys() {
		cols = append(cols, key+optionsSuffix)
	}
	return cols
}

// Row flattens a record in Columns order. The bool column is left as a
// bool so spreadsheet writers can store it natively.
func Row(specs extraction.FieldSpecs, r *extraction.ExtractionResult) []interface{} {
	row := []interface{}{r.Filename}
	for _, key := range specs.ValueKeys() {
		row = append(row, r.Value(key))
	}
	row = append(row, r.ImagePresent, r.ImageFlag())
	for _, key := range specs.ChoiceKeys() {
		row = append(row, JoinOptions(r.OptionList(key)))
	}
	return row
}

// JoinOptions renders an option list as one comma separated cell. Embedded
// ", " sequences collapse to "," so the cell splits back cleanly.
func JoinOptions(options []string) string {
	return strings.ReplaceAll(strings.Join(options, ","), ", ", ",")
}

// SplitOptions is the inverse of JoinOptions. An empty cell is an empty
// list.
func SplitOptions(cell string) []string {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ", ", ",")
	if cell == "" {
		return []string{}
	}
	return strings.Split(cell, ",")
}

// Write renders results in format to w
func Write(w io.Writer, format Format, specs extraction.FieldSpecs, results []*extraction.ExtractionResult) error {
	switch format {
	case FormatText:
		return WriteText(w, specs, results)
	case FormatCSV:
		return WriteCSV(w, specs, results)
	case FormatJSON:
		return WriteJSON(w, specs, results)
	case FormatXLSX:
		return WriteXLSX(w, specs, results)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
