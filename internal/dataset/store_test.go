package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/TobiSchelling/bizwire/internal/record"
)

func sampleRecords() []record.Record {
	return []record.Record{
		record.Shape(record.Article{Title: "Acme ABC Corp raises $10M", Description: "Funding", URL: "https://a", PublishedAt: "2026-10-19T08:00:00Z"}, []string{"ABC"}),
		record.Shape(record.Article{Title: "Markets flat", URL: "https://b", PublishedAt: "2026-10-19T09:00:00Z"}, nil),
		record.Shape(record.Article{Title: "Ünïcode, \"quotes\"", URL: "https://c"}, []string{"AAA", "BBB", "CCC", "DDD", "EEE"}),
	}
}

func TestFileStores(t *testing.T) {
	stores := map[string]func(string) Repository{
		"news.xlsx": func(p string) Repository { return NewXLSXStore(p) },
		"news.csv":  func(p string) Repository { return NewCSVStore(p) },
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "nested", name)
			store := open(path)

			if _, err := store.Load(ctx); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			want := sampleRecords()
			if err := store.Save(ctx, want); err != nil {
				t.Fatalf("save: %v", err)
			}

			got, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("expected %d records, got %d", len(want), len(got))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("record %d: expected %+v, got %+v", i, want[i], got[i])
				}
			}

			entries, _ := os.ReadDir(filepath.Dir(path))
			if len(entries) != 1 {
				t.Errorf("expected only the dataset file, found %d entries", len(entries))
			}
		})
	}
}

func TestFileStoresDedupAwkwardTitles(t *testing.T) {
	titles := []string{"  padded  ", "line\r\nbreak", "ctl\x08char", "12345", "=1+1", "tab\there", "bad \xff byte"}
	articles := make([]record.Article, len(titles))
	for i, title := range titles {
		articles[i] = record.Article{Title: title, URL: "https://example.com/" + strconv.Itoa(i)}
	}

	for _, name := range []string{"news.xlsx", "news.csv"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store, err := OpenFile(filepath.Join(t.TempDir(), name), FormatAuto)
			if err != nil {
				t.Fatalf("open: %v", err)
			}

			first, err := Merge(ctx, store, record.ShapeAll(articles))
			if err != nil {
				t.Fatalf("first merge: %v", err)
			}
			if first.Outcome != OutcomeCreated || first.Added != len(titles) {
				t.Fatalf("unexpected first result %+v", first)
			}

			second, err := Merge(ctx, store, record.ShapeAll(articles))
			if err != nil {
				t.Fatalf("second merge: %v", err)
			}
			if second.Outcome != OutcomeNoNew || second.Added != 0 {
				t.Errorf("expected no new stories on re-merge, got %+v (new: %+v)", second, second.New)
			}

			got, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(got) != len(titles) {
				t.Errorf("expected %d rows, got %d", len(titles), len(got))
			}
		})
	}
}

func TestFileStoreMergeRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewXLSXStore(filepath.Join(t.TempDir(), "business_news.xlsx"))

	if _, err := Merge(ctx, store, []record.Record{rec("A"), rec("B")}); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	res, err := Merge(ctx, store, []record.Record{rec("B"), rec("C")})
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if res.Outcome != OutcomeAppended || res.Added != 1 {
		t.Errorf("unexpected result %+v", res)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertTitles(t, got, "A", "B", "C")
}

func TestCSVHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.csv")
	if err := NewCSVStore(path).Save(context.Background(), nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := strings.Join(record.Columns, ",") + "\n"
	if string(data) != want {
		t.Errorf("expected header %q, got %q", want, string(data))
	}
}

func TestCSVMissingTitleColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.csv")
	os.WriteFile(path, []byte("Headline,URL\nx,y\n"), 0o644)
	if _, err := NewCSVStore(path).Load(context.Background()); err == nil {
		t.Error("expected error for file without Title column")
	}
}

func TestXLSXCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.xlsx")
	os.WriteFile(path, []byte("not a workbook"), 0o644)
	_, err := NewXLSXStore(path).Load(context.Background())
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected a non-NotFound error, got %v", err)
	}
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		path, format, want string
		wantErr            bool
	}{
		{"business_news.xlsx", "auto", FormatXLSX, false},
		{"news.CSV", "", FormatCSV, false},
		{"news.db", "auto", FormatSQLite, false},
		{"news.txt", "auto", "", true},
		{"news.txt", "csv", FormatCSV, false},
		{"news.xlsx", "parquet", "", true},
	}
	for _, tt := range tests {
		got, err := ResolveFormat(tt.path, tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ResolveFormat(%q, %q) error = %v, wantErr %v", tt.path, tt.format, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveFormat(%q, %q) = %q, want %q", tt.path, tt.format, got, tt.want)
		}
	}
}

func TestOpenFile(t *testing.T) {
	repo, err := OpenFile("data/news.xlsx", FormatAuto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.(*XLSXStore); !ok {
		t.Errorf("expected XLSXStore, got %T", repo)
	}
	if _, err := OpenFile("news.db", FormatAuto); err == nil {
		t.Error("expected error for sqlite path")
	}
}
