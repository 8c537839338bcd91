package documents

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SpreadsheetExtractor flattens workbook sheets into labeled text lines.
type SpreadsheetExtractor struct{}

// NewSpreadsheetExtractor creates a spreadsheet extractor.
func NewSpreadsheetExtractor() *SpreadsheetExtractor {
	return &SpreadsheetExtractor{}
}

// Supports reports whether the file is an Excel workbook.
func (e *SpreadsheetExtractor) Supports(fileName string) bool {
	return hasExtension(fileName, ".xlsx", ".xlsm")
}

// ExtractText renders each sheet as "label: value" lines. Two-column sheets
// are read as key/value pairs; wider sheets use the first row as headers.
func (e *SpreadsheetExtractor) ExtractText(ctx context.Context, fileName string, content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		writeRows(&sb, rows)
	}
	return sb.String(), nil
}

func writeRows(sb *strings.Builder, rows [][]string) {
	rows = nonEmptyRows(rows)
	if len(rows) == 0 {
		return
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	if width <= 2 || len(rows) == 1 {
		for _, row := range rows {
			sb.WriteString(strings.Join(row, ": "))
			sb.WriteString("\n")
		}
		return
	}

	headers := rows[0]
	for _, row := range rows[1:] {
		for i, cell := range row {
			if cell == "" {
				continue
			}
			if i < len(headers) && headers[i] != "" {
				fmt.Fprintf(sb, "%s: %s\n", headers[i], cell)
			} else {
				sb.WriteString(cell + "\n")
			}
		}
		sb.WriteString("\n")
	}
}

func nonEmptyRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		empty := true
		for _, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell != "" {
				empty = false
			}
			cells = append(cells, cell)
		}
		if !empty {
			out = append(out, cells)
		}
	}
	return out
}
