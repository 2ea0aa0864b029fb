package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/TobiSchelling/bizwire/internal/record"
)

// CSVStore keeps the dataset as a comma-separated file with a header row.
type CSVStore struct {
	path string
}

// NewCSVStore creates a store for the CSV file at path.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Location returns the file path.
func (s *CSVStore) Location() string {
	return s.path
}

// Load reads every row of the file.
func (s *CSVStore) Load(ctx context.Context) ([]record.Record, error) {
	if err := statDataset(s.path); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	return fromTable(rows)
}

// Save rewrites the whole file.
func (s *CSVStore) Save(ctx context.Context, records []record.Record) error {
	return writeFileAtomic(s.path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(record.Columns); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		for _, r := range records {
			if err := cw.Write(r.Row()); err != nil {
				return fmt.Errorf("writing row: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	})
}
