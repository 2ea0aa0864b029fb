package report

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/TobiSchelling/bizwire/internal/record"
)

const maxTitleWidth = 80

// Table renders rows as a Markdown table with columns padded to equal
// display width, so CJK and emoji titles line up in a terminal.
func Table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = max(3, runewidth.StringWidth(h))
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i, w := range widths {
			content := ""
			if i < len(cells) {
				content = cells[i]
			}
			b.WriteString(" ")
			b.WriteString(runewidth.FillRight(content, w))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(header)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}

// Headlines renders records as a compact terminal table: index, title,
// mentioned companies, and publish time. A positive limit keeps only the
// last limit records.
func Headlines(records []record.Record, limit int) string {
	start := 0
	if limit > 0 && len(records) > limit {
		start = len(records) - limit
	}

	rows := make([][]string, 0, len(records)-start)
	for i := start; i < len(records); i++ {
		r := records[i]
		rows = append(rows, []string{
			fmt.Sprint(i),
			Cell(runewidth.Truncate(r.Title, maxTitleWidth, "…")),
			Cell(strings.Join(r.MentionedCompanies(), ", ")),
			Cell(r.PublishedAt),
		})
	}
	return Table([]string{"#", record.ColTitle, "Mentioned Companies", record.ColPublishedAt}, rows)
}

// Markdown renders every dataset column, linking titles to their URL.
func Markdown(records []record.Record) string {
	header := []string{record.ColTitle, record.ColPublishedAt, "Mentioned Companies", record.ColSummary}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		title := Cell(r.Title)
		if r.URL != "" {
			title = fmt.Sprintf("[%s](%s)", escapeLinkText(title), escapeURL(r.URL))
		}
		rows = append(rows, []string{
			title,
			Cell(r.PublishedAt),
			Cell(strings.Join(r.MentionedCompanies(), ", ")),
			Cell(r.Summary),
		})
	}
	return Table(header, rows)
}

// Cell makes a value safe to place in a Markdown table cell.
func Cell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func escapeLinkText(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}

func escapeURL(s string) string {
	return strings.NewReplacer(" ", "%20", "(", "%28", ")", "%29").Replace(s)
}
