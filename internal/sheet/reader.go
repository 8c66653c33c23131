// Package sheet decodes uploaded workbooks into named sheets of raw rows.
//
// Third-party exports rarely put the header in row one: title banners, filter
// summaries, and blank padding rows come first. The reader scores candidate
// rows to find the real header, deduplicates header names, and flags
// aggregate/report sheets that must not be imported as transactions.
package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Sheet is one decoded tab of a workbook: an ordered header list and the data
// rows keyed by header name.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []map[string]string
}

// Column returns up to limit values of one column, in row order.
func (s *Sheet) Column(header string, limit int) []string {
	var out []string
	for _, row := range s.Rows {
		if len(out) >= limit {
			break
		}
		out = append(out, row[header])
	}
	return out
}

// Parse decodes workbook bytes into sheets. Files are detected by content:
// xlsx archives start with the zip magic, everything else is treated as CSV
// (a single sheet named after the file).
func Parse(fileName string, data []byte) ([]Sheet, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("parse %s: empty file", fileName)
	}
	if isZip(data) {
		return parseWorkbook(fileName, data)
	}
	return parseCSV(fileName, data)
}

func isZip(data []byte) bool {
	return len(data) >= 4 && data[0] == 'P' && data[1] == 'K'
}

func parseWorkbook(fileName string, data []byte) ([]Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", fileName, err)
	}
	defer func() { _ = f.Close() }()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", fileName)
	}

	var sheets []Sheet
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if sh, ok := fromGrid(name, rows); ok {
			sheets = append(sheets, sh)
		}
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no readable sheets", fileName)
	}
	return sheets, nil
}

func parseCSV(fileName string, data []byte) ([]Sheet, error) {
	r := csv.NewReader(bytes.NewReader(sanitizeUTF8(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV %s: %w", fileName, err)
	}

	name := strings.TrimSuffix(fileName, ".csv")
	sh, ok := fromGrid(name, records)
	if !ok {
		return nil, fmt.Errorf("CSV %s has no data rows", fileName)
	}
	return []Sheet{sh}, nil
}

// fromGrid turns a raw cell grid into a Sheet: locate the header row, dedupe
// its names, and key every following non-empty row by header.
func fromGrid(name string, grid [][]string) (Sheet, bool) {
	headerIdx := ChooseHeaderRow(grid)
	if headerIdx < 0 {
		return Sheet{}, false
	}

	headers := DedupeHeaders(grid[headerIdx])
	sh := Sheet{Name: name, Headers: headers}

	for _, raw := range grid[headerIdx+1:] {
		if isEmptyRow(raw) {
			continue
		}
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(raw) {
				row[h] = strings.TrimSpace(raw[i])
			} else {
				row[h] = ""
			}
		}
		sh.Rows = append(sh.Rows, row)
	}
	return sh, true
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sanitizeUTF8 replaces invalid byte sequences so the csv reader does not
// choke on exports saved in legacy encodings.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}
	return buf.Bytes()
}
