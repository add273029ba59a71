// Package contacts turns parsed contact exports into birthday records.
package contacts

import (
	"errors"
	"strings"

	"github.com/tartampluch/birthday-liberator/internal/config"
)

var (
	// ErrEmptyInput is returned when the export holds no rows at all.
	ErrEmptyInput = errors.New(config.ErrEmptyInput)

	// ErrMissingColumn is returned when the header lacks the birthday label.
	ErrMissingColumn = errors.New(config.ErrMissingColumn)
)

// Record is one person with a birthday, as found in the export.
// Birthday is the trimmed raw value; it is normalized later by the engine.
type Record struct {
	FirstName  string
	MiddleName string
	LastName   string
	FullName   string
	Birthday   string
}

// NewRecord trims every part and derives FullName. It reports false when the
// result would break the record invariant (no name or no birthday).
func NewRecord(first, middle, last, birthday string) (Record, bool) {
	r := Record{
		FirstName:  strings.TrimSpace(first),
		MiddleName: strings.TrimSpace(middle),
		LastName:   strings.TrimSpace(last),
		Birthday:   strings.TrimSpace(birthday),
	}
	r.FullName = JoinName(r.FirstName, r.MiddleName, r.LastName)
	if r.FullName == "" || r.Birthday == "" {
		return Record{}, false
	}
	return r, true
}

// JoinName joins the non-empty parts with single spaces, keeping their order.
func JoinName(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
