package excel

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"ncsresearch/domain/analysis"
)

// WriteResultsWorkbook renders a batch of analysis results as an Excel
// workbook: one summary sheet plus one detail sheet per result. Returns
// the serialized .xlsx bytes.
func WriteResultsWorkbook(filename string, results []analysis.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	f.SetSheetName(f.GetSheetName(0), summary)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DCE6F1"}},
	})

	writeRow(f, summary, 1, []string{"Analysis", "Type", "R Library", "Significant", "Created"})
	f.SetCellStyle(summary, "A1", "E1", headerStyle)
	f.SetCellValue(summary, "G1", "Source: "+filename)

	for i, res := range results {
		row := i + 2
		writeRow(f, summary, row, []string{
			res.Name,
			string(res.Type),
			res.RLibrary,
			yesNo(res.Significance),
			res.CreatedAt.Format(time.RFC3339),
		})
	}
	autoWidth(f, summary, 5)

	for i, res := range results {
		if err := writeDetailSheet(f, res, i, headerStyle); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeDetailSheet(f *excelize.File, res analysis.Result, idx int, headerStyle int) error {
	name := sheetName(res.Name, idx)
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", name, err)
	}

	writeRow(f, name, 1, []string{"Field", "Value"})
	f.SetCellStyle(name, "A1", "B1", headerStyle)

	row := 2
	for _, kv := range flattenJSON(res.Data) {
		writeRow(f, name, row, []string{kv[0], kv[1]})
		row++
	}

	if res.Interpretation != "" {
		row++
		f.SetCellValue(name, fmt.Sprintf("A%d", row), "Interpretation")
		f.SetCellValue(name, fmt.Sprintf("B%d", row), res.Interpretation)
	}
	autoWidth(f, name, 2)
	return nil
}

// flattenJSON turns a nested result payload into sorted dotted key/value
// pairs, so R output of any shape lands on a two-column sheet.
func flattenJSON(raw json.RawMessage) [][2]string {
	var data any
	if len(raw) == 0 || json.Unmarshal(raw, &data) != nil {
		return nil
	}
	flat := map[string]string{}
	flattenValue("", data, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{k, flat[k]})
	}
	return out
}

func flattenValue(prefix string, v any, out map[string]string) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			flattenValue(joinKey(prefix, k), child, out)
		}
	case []any:
		for i, child := range val {
			flattenValue(joinKey(prefix, fmt.Sprintf("%d", i)), child, out)
		}
	case nil:
		out[prefix] = ""
	case float64:
		out[prefix] = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", val), "0"), ".")
	default:
		out[prefix] = fmt.Sprintf("%v", val)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func writeRow(f *excelize.File, sheet string, row int, values []string) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		f.SetCellValue(sheet, cell, v)
	}
}

func autoWidth(f *excelize.File, sheet string, cols int) {
	for c := 1; c <= cols; c++ {
		name, _ := excelize.ColumnNumberToName(c)
		f.SetColWidth(sheet, name, name, 24)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// sheetName builds a sheet title that respects Excel's 31-char limit and
// stays unique across the workbook.
func sheetName(base string, idx int) string {
	cleaned := strings.NewReplacer("/", "-", "\\", "-", "?", "", "*", "", "[", "(", "]", ")", ":", "-").Replace(base)
	if cleaned == "" {
		cleaned = "Result"
	}
	suffix := fmt.Sprintf(" %d", idx+1)
	if len(cleaned)+len(suffix) > 31 {
		cleaned = cleaned[:31-len(suffix)]
	}
	return cleaned + suffix
}
