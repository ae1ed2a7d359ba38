// Package ingest parses the harvest, climate and area-sampling survey source
// files and loads them into the store.
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Table is a parsed source file: a header row and the data rows below it.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
	cols   map[string]int
}

func newTable(name string, header []string, rows [][]string) *Table {
	t := &Table{Name: name, Header: header, Rows: rows, cols: make(map[string]int, len(header))}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		key := columnKey(h)
		if _, dup := t.cols[key]; !dup {
			t.cols[key] = i
		}
	}
	return t
}

func columnKey(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// Index returns the position of a header, compared case-insensitively with
// whitespace collapsed.
func (t *Table) Index(name string) (int, bool) {
	i, ok := t.cols[columnKey(name)]
	return i, ok
}

// Require returns the positions of every named header, or an error naming
// the first one missing.
func (t *Table) Require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		j, ok := t.Index(n)
		if !ok {
			return nil, eris.Errorf("ingest: %s: missing column %q", t.Name, n)
		}
		idx[i] = j
	}
	return idx, nil
}

// Cell returns the trimmed value at column i of row, or "" when the row is
// short.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ReadFile parses a .csv or .xlsx file by extension.
func ReadFile(ctx context.Context, path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return ReadCSV(ctx, filepath.Base(path), f)
	case ".xlsx":
		return ReadXLSX(ctx, path)
	}
	return nil, eris.Errorf("ingest: unsupported file type %q", path)
}

// ReadCSV parses comma-separated input whose first record is the header.
// Records may have varying field counts.
func ReadCSV(ctx context.Context, name string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.Errorf("ingest: %s: empty file", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: %s: read header", name)
	}

	var rows [][]string
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrapf(ctx.Err(), "ingest: %s: cancelled", name)
		}
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: %s: read row %d", name, len(rows)+2)
		}
		if blank(rec) {
			continue
		}
		rows = append(rows, rec)
	}
	return newTable(name, header, rows), nil
}

// ReadXLSX parses the first sheet of a workbook whose first row is the
// header. Raw cell values are used so numbers keep no display formatting.
func ReadXLSX(ctx context.Context, path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("ingest: %s: workbook has no sheets", path)
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("ingest: %s: empty sheet %q", path, sheet.Name)
	}

	header := xlsxRow(sheet.Rows[0])
	rows := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		if ctx.Err() != nil {
			return nil, eris.Wrapf(ctx.Err(), "ingest: %s: cancelled", path)
		}
		cells := xlsxRow(row)
		if blank(cells) {
			continue
		}
		rows = append(rows, cells)
	}
	return newTable(filepath.Base(path), header, rows), nil
}

func xlsxRow(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		cells[i] = c.Value
	}
	return cells
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
