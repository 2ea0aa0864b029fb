package record

import (
	"reflect"
	"testing"
)

func TestShapeSummary(t *testing.T) {
	r := Shape(Article{Title: "Markets rally", Description: ""}, nil)
	if r.Summary != "Markets rally" {
		t.Errorf("expected summary to equal title, got %q", r.Summary)
	}

	r = Shape(Article{Title: "Markets rally", Description: "Stocks rose."}, nil)
	if r.Summary != "Markets rally - Stocks rose." {
		t.Errorf("unexpected summary %q", r.Summary)
	}
}

func TestShapePassesThroughFields(t *testing.T) {
	a := Article{Title: "T", URL: "not a url", PublishedAt: "2026-10-19T08:00:00Z"}
	r := Shape(a, nil)
	if r.URL != "not a url" {
		t.Errorf("expected URL passed through, got %q", r.URL)
	}
	if r.PublishedAt != "2026-10-19T08:00:00Z" {
		t.Errorf("expected timestamp passed through, got %q", r.PublishedAt)
	}
}

func TestShapeCompanySlots(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   [5]string
	}{
		{"none", nil, [5]string{}},
		{"two", []string{"IBM", "AMD"}, [5]string{"IBM", "AMD"}},
		{"five", []string{"A1", "B2", "C3", "D4", "E5"}, [5]string{"A1", "B2", "C3", "D4", "E5"}},
		{"extra ignored", []string{"A", "B", "C", "D", "E", "F"}, [5]string{"A", "B", "C", "D", "E"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Shape(Article{Title: "x"}, tt.tokens)
			if r.Companies != tt.want {
				t.Errorf("expected %q, got %q", tt.want, r.Companies)
			}
			assertContiguous(t, r)
		})
	}
}

func assertContiguous(t *testing.T, r Record) {
	t.Helper()
	gap := false
	for i, c := range r.Companies {
		if c == "" {
			gap = true
		} else if gap {
			t.Errorf("slot %d filled after an empty slot: %q", i+1, r.Companies)
		}
	}
}

func TestShapeAll(t *testing.T) {
	records := ShapeAll([]Article{
		{Title: "Acme ABC Corp raises $10M", URL: "https://a"},
		{Title: "Quiet day", Description: "NYSE and NASDAQ flat", URL: "https://b"},
	})
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if !reflect.DeepEqual(records[0].MentionedCompanies(), []string{"ABC"}) {
		t.Errorf("expected [ABC], got %q", records[0].MentionedCompanies())
	}
	if !reflect.DeepEqual(records[1].MentionedCompanies(), []string{"NYSE", "NASDAQ"}) {
		t.Errorf("expected [NYSE NASDAQ], got %q", records[1].MentionedCompanies())
	}
	if records[1].Summary != "Quiet day - NYSE and NASDAQ flat" {
		t.Errorf("unexpected summary %q", records[1].Summary)
	}
}

func TestColumns(t *testing.T) {
	want := []string{
		"Title", "Summary", "URL", "Published At",
		"Mentioned Company 1", "Mentioned Company 2", "Mentioned Company 3",
		"Mentioned Company 4", "Mentioned Company 5",
	}
	if !reflect.DeepEqual(Columns, want) {
		t.Errorf("expected %q, got %q", want, Columns)
	}
}

func TestRowRoundTrip(t *testing.T) {
	r := Shape(Article{Title: "IBM buys XYZ", Description: "d", URL: "u", PublishedAt: "p"}, []string{"IBM", "XYZ"})
	got, err := FromRow(Columns, r.Row())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != r {
		t.Errorf("expected %+v, got %+v", r, got)
	}
}

func TestFromRowReorderedAndShort(t *testing.T) {
	header := []string{"URL", "Title", "Mentioned Company 1"}
	got, err := FromRow(header, []string{"https://x", "Headline"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Headline" || got.URL != "https://x" {
		t.Errorf("unexpected record %+v", got)
	}
	if got.Companies[0] != "" {
		t.Errorf("expected empty slot for short row, got %q", got.Companies[0])
	}
}

func TestFromRowMissingTitle(t *testing.T) {
	if _, err := FromRow([]string{"Summary"}, []string{"s"}); err == nil {
		t.Error("expected error for missing Title column")
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain title", "plain title"},
		{"ctl\x08char", "ctlchar"},
		{"nul\x00and\x1fesc", "nulandesc"},
		{"tab\there", "tab\there"},
		{"line\r\nbreak", "line\nbreak"},
		{"lone\rcr", "lone\rcr"},
		{"  padded  ", "  padded  "},
		{"non\uFFFEchar\uFFFF", "nonchar"},
		{"bad \xff byte", "bad \uFFFD byte"},
		{"Ünïcode", "Ünïcode"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShapeSanitizesFields(t *testing.T) {
	r := Shape(Article{Title: "ACME\x07 wins", Description: "deal\r\nclosed", URL: "https://a\x00", PublishedAt: "2026\x1b"}, nil)
	want := Record{Title: "ACME wins", Summary: "ACME wins - deal\nclosed", URL: "https://a", PublishedAt: "2026"}
	if r != want {
		t.Errorf("expected %+v, got %+v", want, r)
	}

	recs := ShapeAll([]Article{{Title: "ABC\x08DEF merger"}})
	if got := recs[0].MentionedCompanies(); !reflect.DeepEqual(got, []string{"ABCDEF"}) {
		t.Errorf("expected tokens from sanitized text, got %q", got)
	}
}
