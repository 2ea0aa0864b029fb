package record

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/bizwire/internal/extract"
)

// Column headers of the persisted dataset, in order.
const (
	ColTitle       = "Title"
	ColSummary     = "Summary"
	ColURL         = "URL"
	ColPublishedAt = "Published At"
)

// Columns lists every dataset column in persisted order.
var Columns = func() []string {
	cols := []string{ColTitle, ColSummary, ColURL, ColPublishedAt}
	for i := 1; i <= extract.MaxCompanies; i++ {
		cols = append(cols, CompanyColumn(i))
	}
	return cols
}()

// CompanyColumn returns the header of the n-th (1-based) company slot.
func CompanyColumn(n int) string {
	return fmt.Sprintf("Mentioned Company %d", n)
}

// Article is a headline as returned by the news API.
type Article struct {
	Title       string
	Description string // empty when the API sent null
	URL         string
	PublishedAt string
}

// Record is one flattened dataset row.
type Record struct {
	Title       string
	Summary     string
	URL         string
	PublishedAt string
	// Companies holds candidate names left-aligned; "" marks an empty slot.
	Companies [extract.MaxCompanies]string
}

// Sanitized returns a copy of the article with every text field passed
// through Sanitize.
func (a Article) Sanitized() Article {
	return Article{
		Title:       Sanitize(a.Title),
		Description: Sanitize(a.Description),
		URL:         Sanitize(a.URL),
		PublishedAt: Sanitize(a.PublishedAt),
	}
}

// Sanitize normalizes text so it reads back unchanged from every store.
// CRLF becomes LF, control characters other than tab, CR and LF are
// dropped along with the noncharacters U+FFFE and U+FFFF, and invalid UTF-8
// becomes U+FFFD. Titles are dedup keys and must round-trip byte for byte.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t', r == '\n', r == '\r':
			return r
		case r < 0x20, r == 0xFFFE, r == 0xFFFF:
			return -1
		}
		return r
	}, s)
}

// Shape builds the record for an article from its extracted tokens. Text
// fields are sanitized first.
func Shape(a Article, tokens []string) Record {
	a = a.Sanitized()
	r := Record{
		Title:       a.Title,
		Summary:     a.Title,
		URL:         a.URL,
		PublishedAt: a.PublishedAt,
	}
	if a.Description != "" {
		r.Summary = a.Title + " - " + a.Description
	}
	for i := 0; i < len(r.Companies) && i < len(tokens); i++ {
		r.Companies[i] = tokens[i]
	}
	return r
}

// ShapeAll extracts and shapes every article, keeping fetch order.
func ShapeAll(articles []Article) []Record {
	records := make([]Record, 0, len(articles))
	for _, a := range articles {
		a = a.Sanitized()
		tokens := extract.Extract(extract.ArticleText(a.Title, a.Description))
		records = append(records, Shape(a, tokens))
	}
	return records
}

// MentionedCompanies returns the filled company slots.
func (r Record) MentionedCompanies() []string {
	var out []string
	for _, c := range r.Companies {
		if c == "" {
			break
		}
		out = append(out, c)
	}
	return out
}

// Row returns the record's cells in Columns order.
func (r Record) Row() []string {
	row := []string{r.Title, r.Summary, r.URL, r.PublishedAt}
	return append(row, r.Companies[:]...)
}

// FromRow rebuilds a record from a tabular row, matching cells to header
// names. Only the Title column is required; other missing cells read as "".
func FromRow(header, row []string) (Record, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	if _, ok := idx[ColTitle]; !ok {
		return Record{}, fmt.Errorf("missing %q column", ColTitle)
	}

	cell := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	r := Record{
		Title:       cell(ColTitle),
		Summary:     cell(ColSummary),
		URL:         cell(ColURL),
		PublishedAt: cell(ColPublishedAt),
	}
	for i := range r.Companies {
		r.Companies[i] = cell(CompanyColumn(i + 1))
	}
	return r, nil
}

// Titles returns the set of titles present in records.
func Titles(records []Record) map[string]struct{} {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		seen[r.Title] = struct{}{}
	}
	return seen
}
