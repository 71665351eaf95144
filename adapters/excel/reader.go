// Package excel reads uploaded tabular data files and renders analysis
// results as spreadsheet workbooks.
package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"ncsresearch/internal"
)

// Table is a parsed tabular dataset: a header row plus string-valued data
// rows. Value typing happens downstream in the profiler.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Column returns every value of the named column in row order
func (t *Table) Column(name string) []string {
	idx := -1
	for i, h := range t.Headers {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx < len(row) {
			out = append(out, row[idx])
		} else {
			out = append(out, "")
		}
	}
	return out
}

// ReadTable parses an uploaded CSV or Excel stream based on the filename
// extension. The file must carry a header row and at least one data row.
func ReadTable(filename string, r io.Reader) (*Table, error) {
	log := internal.DefaultLogger.Named("excel")
	ext := strings.ToLower(filepath.Ext(filename))

	var rows [][]string
	var err error
	switch ext {
	case ".csv":
		rows, err = readCSVRows(r)
	case ".xlsx", ".xls":
		rows, err = readExcelRows(r)
	default:
		return nil, fmt.Errorf("unsupported file type %q (expected .csv or .xlsx)", ext)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("data file must have a header row and at least one data row")
	}

	log.Debug("parsed %s: %d columns, %d rows", filename, len(rows[0]), len(rows)-1)
	return buildTable(rows), nil
}

func readCSVRows(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}
	return rows, nil
}

func readExcelRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel data: %w", err)
	}
	defer f.Close()

	// First sheet, whatever its name.
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func buildTable(rows [][]string) *Table {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		normalized := make([]string, len(headers))
		for i := range headers {
			if i < len(row) {
				normalized[i] = strings.TrimSpace(row[i])
			}
		}
		data = append(data, normalized)
	}
	return &Table{Headers: headers, Rows: data}
}
