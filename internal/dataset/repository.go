package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/TobiSchelling/bizwire/internal/record"
)

// ErrNotFound is returned by Load when the dataset has not been created yet.
var ErrNotFound = errors.New("dataset not found")

// Repository persists the full ordered set of records.
type Repository interface {
	// Load reads every record, or returns ErrNotFound.
	Load(ctx context.Context) ([]record.Record, error)
	// Save replaces the stored dataset with records.
	Save(ctx context.Context, records []record.Record) error
	// Location describes where the dataset lives.
	Location() string
}

// Supported dataset formats.
const (
	FormatAuto   = "auto"
	FormatXLSX   = "xlsx"
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// ResolveFormat maps "auto" (or "") to a concrete format using the path's
// extension.
func ResolveFormat(path, format string) (string, error) {
	format = strings.ToLower(format)
	if format != "" && format != FormatAuto {
		switch format {
		case FormatXLSX, FormatCSV, FormatSQLite:
			return format, nil
		}
		return "", fmt.Errorf("unknown dataset format %q", format)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("cannot infer dataset format from %q; set dataset.format", path)
}

// OpenFile returns the file-backed repository for path. SQLite datasets are
// opened through the database package.
func OpenFile(path, format string) (Repository, error) {
	resolved, err := ResolveFormat(path, format)
	if err != nil {
		return nil, err
	}
	switch resolved {
	case FormatXLSX:
		return NewXLSXStore(path), nil
	case FormatCSV:
		return NewCSVStore(path), nil
	}
	return nil, fmt.Errorf("format %q is not file-backed", resolved)
}

// writeFileAtomic writes via a temp file in the destination directory and
// renames it into place.
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating dataset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing dataset: %w", err)
	}
	return nil
}

// statDataset maps a missing file to ErrNotFound.
func statDataset(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("checking dataset: %w", err)
	}
	return nil
}

// fromTable converts header-first rows into records.
func fromTable(rows [][]string) ([]record.Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	header := rows[0]
	records := make([]record.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		r, err := record.FromRow(header, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, r)
	}
	return records, nil
}
