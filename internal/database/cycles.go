package database

import (
	"context"
	"database/sql"
)

// InsertCycle records a finished cycle and returns its ID.
func (db *DB) InsertCycle(ctx context.Context, c Cycle) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO cycles (started_at, finished_at, fetched, added, outcome, error)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.StartedAt, c.FinishedAt, c.Fetched, c.Added, c.Outcome, c.Error,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetRecentCycles returns up to limit cycles, newest first.
func (db *DB) GetRecentCycles(ctx context.Context, limit int) ([]Cycle, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, started_at, finished_at, fetched, added, outcome, error
		FROM cycles ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cycles []Cycle
	for rows.Next() {
		var c Cycle
		if err := rows.Scan(&c.ID, &c.StartedAt, &c.FinishedAt, &c.Fetched, &c.Added, &c.Outcome, &c.Error); err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// GetStats returns aggregate statistics over all cycles.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	s := &Stats{}
	var last sql.NullString
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN error IS NOT NULL AND error != '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(added), 0),
			MAX(started_at)
		FROM cycles`,
	).Scan(&s.TotalCycles, &s.FailedCycles, &s.TotalAdded, &last)
	if err != nil {
		return nil, err
	}
	if last.Valid {
		s.LastCycleAt = &last.String
	}

	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&s.StoredRows); err != nil {
		return nil, err
	}
	return s, nil
}
