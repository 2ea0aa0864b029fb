package dataset

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/TobiSchelling/bizwire/internal/record"
)

const xlsxSheet = "Sheet1"

// XLSXStore keeps the dataset in a single-sheet Excel workbook: one header
// row followed by one row per record, no index column.
type XLSXStore struct {
	path string
}

// NewXLSXStore creates a store for the workbook at path.
func NewXLSXStore(path string) *XLSXStore {
	return &XLSXStore{path: path}
}

// Location returns the workbook path.
func (s *XLSXStore) Location() string {
	return s.path
}

// Load reads the first sheet of the workbook.
func (s *XLSXStore) Load(ctx context.Context) ([]record.Record, error) {
	if err := statDataset(s.path); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	return fromTable(rows)
}

// Save rewrites the whole workbook.
func (s *XLSXStore) Save(ctx context.Context, records []record.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(xlsxSheet)
	if err != nil {
		return fmt.Errorf("creating sheet writer: %w", err)
	}

	if err := sw.SetRow("A1", toCells(record.Columns)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(r.Row())); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet: %w", err)
	}

	return writeFileAtomic(s.path, func(w io.Writer) error {
		if _, err := f.WriteTo(w); err != nil {
			return fmt.Errorf("writing workbook: %w", err)
		}
		return nil
	})
}

// toCells leaves empty strings as blank cells.
func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		if v != "" {
			cells[i] = v
		}
	}
	return cells
}
