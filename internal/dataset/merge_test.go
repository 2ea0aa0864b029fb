package dataset

import (
	"context"
	"errors"
	"testing"

	"github.com/TobiSchelling/bizwire/internal/record"
)

func rec(title string) record.Record {
	return record.Shape(record.Article{Title: title, URL: "https://example.com/" + title}, nil)
}

func titles(records []record.Record) []string {
	var out []string
	for _, r := range records {
		out = append(out, r.Title)
	}
	return out
}

func assertTitles(t *testing.T, records []record.Record, want ...string) {
	t.Helper()
	got := titles(records)
	if len(got) != len(want) {
		t.Fatalf("expected titles %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected titles %q, got %q", want, got)
		}
	}
}

func TestMergeCreatesDataset(t *testing.T) {
	store := &MemoryStore{}
	res, err := Merge(context.Background(), store, []record.Record{rec("X"), rec("Y"), rec("Z")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeCreated {
		t.Errorf("expected created, got %s", res.Outcome)
	}
	if res.Added != 3 || res.Total != 3 {
		t.Errorf("expected 3 added / 3 total, got %d / %d", res.Added, res.Total)
	}
	assertTitles(t, store.Records(), "X", "Y", "Z")
}

func TestMergeAppendsUnseen(t *testing.T) {
	store := NewMemoryStore(rec("A"), rec("B"))
	res, err := Merge(context.Background(), store, []record.Record{rec("B"), rec("C")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeAppended {
		t.Errorf("expected appended, got %s", res.Outcome)
	}
	if res.Existing != 2 || res.Added != 1 || res.Skipped != 1 || res.Total != 3 {
		t.Errorf("unexpected counts %+v", res)
	}
	assertTitles(t, res.New, "C")
	assertTitles(t, store.Records(), "A", "B", "C")
}

func TestMergeNoNewSkipsWrite(t *testing.T) {
	store := NewMemoryStore(rec("A"), rec("B"))
	res, err := Merge(context.Background(), store, []record.Record{rec("A")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeNoNew {
		t.Errorf("expected no_new, got %s", res.Outcome)
	}
	if store.Saves() != 0 {
		t.Errorf("expected no save, got %d", store.Saves())
	}
}

func TestMergeIdempotent(t *testing.T) {
	store := &MemoryStore{}
	batch := []record.Record{rec("A"), rec("B"), rec("C")}

	if _, err := Merge(context.Background(), store, batch); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	res, err := Merge(context.Background(), store, batch)
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if res.Outcome != OutcomeNoNew {
		t.Errorf("expected no_new on second merge, got %s", res.Outcome)
	}
	assertTitles(t, store.Records(), "A", "B", "C")
}

func TestMergeExistingRowsUntouched(t *testing.T) {
	old := rec("A")
	old.Summary = "edited by hand"
	store := NewMemoryStore(old)

	updated := rec("A")
	if _, err := Merge(context.Background(), store, []record.Record{updated, rec("B")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := store.Records()
	if got[0].Summary != "edited by hand" {
		t.Errorf("existing row was modified: %+v", got[0])
	}
}

func TestMergeTitleMatchIsExact(t *testing.T) {
	store := NewMemoryStore(rec("Apple"))
	res, err := Merge(context.Background(), store, []record.Record{rec("apple"), rec("Apple "), rec("Apple")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Added != 2 {
		t.Errorf("expected case/space variants to be added, got %d", res.Added)
	}
	assertTitles(t, store.Records(), "Apple", "apple", "Apple ")
}

func TestMergeEmptyIncoming(t *testing.T) {
	store := &MemoryStore{}
	res, err := Merge(context.Background(), store, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeNoNew {
		t.Errorf("expected no_new, got %s", res.Outcome)
	}
	if _, err := store.Load(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected dataset to remain absent, got %v", err)
	}
}

func TestMergeLoadError(t *testing.T) {
	store := NewMemoryStore(rec("A"))
	store.LoadErr = errors.New("corrupt")
	if _, err := Merge(context.Background(), store, []record.Record{rec("B")}); err == nil {
		t.Error("expected load error to propagate")
	}
	store.LoadErr = nil
	assertTitles(t, store.Records(), "A")
}

func TestMergeSaveError(t *testing.T) {
	store := &MemoryStore{SaveErr: errors.New("read-only")}
	if _, err := Merge(context.Background(), store, []record.Record{rec("A")}); err == nil {
		t.Error("expected save error to propagate")
	}
}

func TestOutcomeMessage(t *testing.T) {
	if OutcomeCreated.Message() == OutcomeAppended.Message() || OutcomeAppended.Message() == OutcomeNoNew.Message() {
		t.Error("expected distinct messages per outcome")
	}
	if !OutcomeCreated.Wrote() || !OutcomeAppended.Wrote() || OutcomeNoNew.Wrote() {
		t.Error("unexpected Wrote() values")
	}
}
