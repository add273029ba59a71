// Package tabular parses the delimited text of a contact export into rows.
//
// The dialect is fixed: comma delimiter, double-quote quoting, and a doubled
// quote inside a quoted region for a literal quote. Parsing is lenient: an
// unterminated quoted region is not an error, it simply runs to the end of
// its line.
package tabular

import (
	"strings"

	"github.com/tartampluch/birthday-liberator/internal/config"
)

// Row is the ordered list of fields parsed from one line of input.
// Rows of the same input need not have the same length.
type Row []string

// Field returns the field at idx, or "" when idx is negative or past the end.
func (r Row) Field(idx int) string {
	if idx < 0 || idx >= len(r) {
		return ""
	}
	return r[idx]
}

// Index returns the position of the first field exactly equal to label, or -1.
func (r Row) Index(label string) int {
	for i, f := range r {
		if f == label {
			return i
		}
	}
	return -1
}

// Parse splits text into rows. Lines that are blank after trimming produce no
// row; every other line produces one row holding at least one field.
func Parse(text string) []Row {
	var rows []Row
	for _, line := range strings.Split(text, config.LineBreak) {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, parseLine(line))
	}
	return rows
}

// parseLine scans one line. The quote state is local to the line, so an
// unbalanced quote never swallows the lines after it.
func parseLine(line string) Row {
	var (
		row      Row
		field    strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == config.Quote:
			if inQuotes && i+1 < len(line) && line[i+1] == config.Quote {
				field.WriteByte(config.Quote)
				i++
				continue
			}
			inQuotes = !inQuotes
		case c == config.Delimiter && !inQuotes:
			row = append(row, field.String())
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}

	return append(row, field.String())
}
