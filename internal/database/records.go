package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/TobiSchelling/bizwire/internal/dataset"
	"github.com/TobiSchelling/bizwire/internal/record"
)

const metaRecordsInitialized = "records_initialized"

// RecordStore keeps the dataset in the records table. It implements
// dataset.Repository.
type RecordStore struct {
	db *DB
}

// Records returns the SQLite-backed dataset repository.
func (db *DB) Records() *RecordStore {
	return &RecordStore{db: db}
}

// Location returns the database file path.
func (s *RecordStore) Location() string {
	return s.db.path + "#records"
}

// Load returns all records in insertion order. It returns
// dataset.ErrNotFound until the first Save.
func (s *RecordStore) Load(ctx context.Context) ([]record.Record, error) {
	var v string
	err := s.db.conn.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", metaRecordsInitialized).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dataset.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading dataset state: %w", err)
	}

	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT title, summary, url, published_at, company_1, company_2, company_3, company_4, company_5
		FROM records ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []record.Record
	for rows.Next() {
		var r record.Record
		var companies [5]sql.NullString
		if err := rows.Scan(&r.Title, &r.Summary, &r.URL, &r.PublishedAt,
			&companies[0], &companies[1], &companies[2], &companies[3], &companies[4]); err != nil {
			return nil, err
		}
		for i, c := range companies {
			r.Companies[i] = c.String
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Save replaces the table contents in a single transaction.
func (s *RecordStore) Save(ctx context.Context, records []record.Record) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (position, title, summary, url, published_at,
			company_1, company_2, company_3, company_4, company_5)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		args := []any{i, r.Title, r.Summary, r.URL, r.PublishedAt}
		for _, c := range r.Companies {
			args = append(args, nullable(c))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting record %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO meta (key, value) VALUES (?, '1') ON CONFLICT(key) DO NOTHING",
		metaRecordsInitialized,
	); err != nil {
		return fmt.Errorf("marking dataset initialized: %w", err)
	}

	return tx.Commit()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
