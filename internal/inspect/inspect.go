// Package inspect reads a generated calendar back and reports its events
// together with their next occurrence.
package inspect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/tartampluch/birthday-liberator/internal/config"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned by Write for an unknown output format.
var ErrUnsupportedFormat = errors.New(config.ErrUnsupportedShape)

// Entry describes one event of a calendar.
type Entry struct {
	UID     string
	Summary string
	Start   time.Time
	RRule   string
	Next    time.Time // zero when the event never occurs again
	Alarms  int
}

// Read parses a calendar and returns its events ordered by next occurrence,
// counted from the day of now. Events without a readable start are logged
// and skipped.
func Read(r io.Reader, now time.Time) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalParse, err)
	}
	// The line renderer leaves the last line unterminated.
	if !bytes.HasSuffix(data, []byte(config.LineBreak)) {
		data = append(data, config.StrictLineBreak...)
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalParse, err)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var entries []Entry
	for _, ev := range cal.Events() {
		entry, err := readEvent(ev, today)
		if err != nil {
			slog.Warn(err.Error(),
				config.LogKeyComponent, config.CompInspect,
				config.LogKeyName, entry.Summary,
			)
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Next, entries[j].Next
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.Before(b)
	})
	return entries, nil
}

func readEvent(ev *ical.VEvent, today time.Time) (Entry, error) {
	var e Entry
	if p := ev.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		e.UID = p.Value
	}
	if p := ev.GetProperty(ical.ComponentPropertySummary); p != nil {
		e.Summary = p.Value
	}
	e.Alarms = len(ev.Alarms())

	p := ev.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return e, errors.New(config.ErrEventStartParse)
	}
	start, err := parseICSTime(p.Value)
	if err != nil {
		return e, fmt.Errorf("%s: %w", config.ErrEventStartParse, err)
	}
	e.Start = start

	p = ev.GetProperty(ical.ComponentPropertyRrule)
	if p == nil {
		if !start.Before(today) {
			e.Next = start
		}
		return e, nil
	}

	e.RRule = p.Value
	rule, err := rrule.StrToRRule(p.Value)
	if err != nil {
		return e, fmt.Errorf("%s: %w", config.ErrRecurrenceParse, err)
	}
	rule.DTStart(start)
	e.Next = rule.After(today, true)
	return e, nil
}

// parseICSTime accepts DATE and UTC DATE-TIME values.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if strings.Contains(v, "T") {
		return time.Parse(config.DateTimeFormatICalZ, v)
	}
	return time.Parse(config.DateFormatICal, v)
}

// Write renders entries as an aligned table or as YAML.
func Write(w io.Writer, entries []Entry, format string) error {
	switch format {
	case config.OutputTable, "":
		return writeTable(w, entries)
	case config.OutputYAML:
		return writeYAML(w, entries)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func writeTable(w io.Writer, entries []Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NEXT\tSTART\tALARMS\tSUMMARY")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", displayDate(e.Next), displayDate(e.Start), e.Alarms, e.Summary)
	}
	return tw.Flush()
}

// yamlEntry is the YAML shape of an Entry, with dates as plain strings.
type yamlEntry struct {
	UID     string `yaml:"uid"`
	Summary string `yaml:"summary"`
	Start   string `yaml:"start"`
	RRule   string `yaml:"rrule,omitempty"`
	Next    string `yaml:"next,omitempty"`
	Alarms  int    `yaml:"alarms"`
}

func writeYAML(w io.Writer, entries []Entry) error {
	out := make([]yamlEntry, 0, len(entries))
	for _, e := range entries {
		ye := yamlEntry{
			UID:     e.UID,
			Summary: e.Summary,
			Start:   displayDate(e.Start),
			RRule:   e.RRule,
			Alarms:  e.Alarms,
		}
		if !e.Next.IsZero() {
			ye.Next = displayDate(e.Next)
		}
		out = append(out, ye)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

func displayDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(config.DateFormatDisplay)
}
