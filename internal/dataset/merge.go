package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/TobiSchelling/bizwire/internal/record"
)

// Outcome is what a merge did to the dataset.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeAppended Outcome = "appended"
	OutcomeNoNew    Outcome = "no_new"
)

// Message returns the human-readable status line for the outcome.
func (o Outcome) Message() string {
	switch o {
	case OutcomeCreated:
		return "New dataset created with the current data."
	case OutcomeAppended:
		return "New stories added to the dataset."
	default:
		return "No new stories found."
	}
}

// Wrote reports whether the outcome rewrote the dataset.
func (o Outcome) Wrote() bool {
	return o == OutcomeCreated || o == OutcomeAppended
}

// MergeResult summarises one merge.
type MergeResult struct {
	Outcome Outcome
	// Existing is the row count before the merge, Total the count after.
	Existing int
	Total    int
	Added    int
	// Skipped counts incoming records whose title was already present.
	Skipped int
	// New holds the appended records in fetch order.
	New []record.Record
}

// Merge appends the records whose Title is not already in the dataset and
// rewrites it. Existing rows keep their order and are never modified. When
// the dataset does not exist yet, all records become the initial dataset.
func Merge(ctx context.Context, repo Repository, incoming []record.Record) (*MergeResult, error) {
	if len(incoming) == 0 {
		return &MergeResult{Outcome: OutcomeNoNew}, nil
	}

	existing, err := repo.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		if err := repo.Save(ctx, incoming); err != nil {
			return nil, fmt.Errorf("creating dataset: %w", err)
		}
		return &MergeResult{
			Outcome: OutcomeCreated,
			Added:   len(incoming),
			Total:   len(incoming),
			New:     incoming,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	toAdd := Unseen(existing, incoming)
	r := &MergeResult{
		Outcome:  OutcomeNoNew,
		Existing: len(existing),
		Added:    len(toAdd),
		Skipped:  len(incoming) - len(toAdd),
		Total:    len(existing),
		New:      toAdd,
	}
	if len(toAdd) == 0 {
		return r, nil
	}

	merged := make([]record.Record, 0, len(existing)+len(toAdd))
	merged = append(merged, existing...)
	merged = append(merged, toAdd...)
	if err := repo.Save(ctx, merged); err != nil {
		return nil, fmt.Errorf("saving dataset: %w", err)
	}

	r.Outcome = OutcomeAppended
	r.Total = len(merged)
	return r, nil
}

// Unseen returns the incoming records whose Title does not appear in
// existing, in incoming order. Titles are compared exactly.
func Unseen(existing, incoming []record.Record) []record.Record {
	seen := record.Titles(existing)
	var out []record.Record
	for _, r := range incoming {
		if _, ok := seen[r.Title]; !ok {
			out = append(out, r)
		}
	}
	return out
}
