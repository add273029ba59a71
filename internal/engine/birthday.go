package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tartampluch/birthday-liberator/internal/config"
)

var (
	// ErrDateFormat means the value matches neither YYYY-MM-DD nor --MM-DD.
	ErrDateFormat = errors.New(config.ErrDateParse)

	// ErrDateInvalid means the value has an accepted shape but names a day
	// that does not exist, such as 2023-02-29 or --02-29 in a common year.
	ErrDateInvalid = errors.New(config.ErrDateInvalid)
)

const yearlessPrefix = "--"

// NormalizeBirthday converts a raw birthday into a UTC midnight date.
//
// Two shapes are accepted: a full date (YYYY-MM-DD), and a year-less date
// (--MM-DD) which is placed in the given processing year. Yearly recurrence
// takes care of every other year, so no fallback year is substituted when
// the day does not exist in the processing year.
func NormalizeBirthday(raw string, year int) (time.Time, error) {
	switch {
	case strings.HasPrefix(raw, yearlessPrefix) && len(raw) == len(config.DateFormatNoYearD):
		md, err := time.Parse(config.DateFormatNoYearD, raw)
		if err != nil {
			return time.Time{}, dateError(err)
		}
		d := time.Date(year, md.Month(), md.Day(), 0, 0, 0, 0, time.UTC)
		// time.Date normalizes Feb 29 of a common year to Mar 1.
		if d.Month() != md.Month() || d.Day() != md.Day() {
			return time.Time{}, ErrDateInvalid
		}
		return d, nil

	case len(raw) == len(config.DateFormatFullDash):
		d, err := time.Parse(config.DateFormatFullDash, raw)
		if err != nil {
			return time.Time{}, dateError(err)
		}
		return d, nil

	default:
		return time.Time{}, ErrDateFormat
	}
}

// dateError separates "right shape, impossible day" from "wrong shape".
func dateError(err error) error {
	var perr *time.ParseError
	if errors.As(err, &perr) && strings.Contains(perr.Message, "out of range") {
		return fmt.Errorf("%w: %s", ErrDateInvalid, perr.Message)
	}
	return fmt.Errorf("%w: %v", ErrDateFormat, err)
}
