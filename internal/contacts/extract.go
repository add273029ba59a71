package contacts

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tartampluch/birthday-liberator/internal/config"
	"github.com/tartampluch/birthday-liberator/internal/tabular"
)

// Format identifies the kind of contact export.
type Format int

const (
	FormatCSV Format = iota
	FormatVCard
)

func (f Format) String() string {
	if f == FormatVCard {
		return "vcard"
	}
	return "csv"
}

// Detect guesses the export format from its content.
func Detect(text string) Format {
	head := strings.TrimSpace(text)
	if len(head) >= len(config.VCardBegin) && strings.EqualFold(head[:len(config.VCardBegin)], config.VCardBegin) {
		return FormatVCard
	}
	return FormatCSV
}

// columns holds the header positions of the recognized labels; -1 when absent.
type columns struct {
	first, middle, last, birthday int
}

func locateColumns(header tabular.Row) columns {
	return columns{
		first:    header.Index(config.ColFirstName),
		middle:   header.Index(config.ColMiddleName),
		last:     header.Index(config.ColLastName),
		birthday: header.Index(config.ColBirthday),
	}
}

// Extract maps the header and data rows to records.
//
// The first row is the header. Data rows without a birthday value, or whose
// name parts are all blank, are dropped silently: exports routinely contain
// such entries. Order is preserved and nothing is deduplicated.
func Extract(rows []tabular.Row) ([]Record, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	cols := locateColumns(rows[0])
	if cols.birthday < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, config.ColBirthday)
	}

	var records []Record
	for _, row := range rows[1:] {
		if len(row) <= cols.birthday || strings.TrimSpace(row[cols.birthday]) == "" {
			continue
		}

		rec, ok := NewRecord(
			row.Field(cols.first),
			row.Field(cols.middle),
			row.Field(cols.last),
			row[cols.birthday],
		)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	slog.Debug("Contacts extracted",
		config.LogKeyComponent, config.CompContacts,
		config.LogKeyRows, len(rows)-1,
		config.LogKeyExtracted, len(records))

	return records, nil
}
