package engine_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/birthday-liberator/internal/contacts"
	"github.com/tartampluch/birthday-liberator/internal/engine"
)

// sequenceIDs hands out predictable UIDs.
type sequenceIDs struct {
	n int
}

func (s *sequenceIDs) NewID(contacts.Record, time.Time) string {
	s.n++
	return fmt.Sprintf("uid-%d", s.n)
}

func record(t *testing.T, first, middle, last, birthday string) contacts.Record {
	t.Helper()
	rec, ok := contacts.NewRecord(first, middle, last, birthday)
	require.True(t, ok)
	return rec
}

func newTestGenerator(now time.Time) (*engine.Generator, *engine.MemoryCollector) {
	mem := &engine.MemoryCollector{}
	return &engine.Generator{
		Clock:     MockClock{CurrentTime: now},
		IDs:       &sequenceIDs{},
		Collector: mem,
	}, mem
}

var fixedNow = time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

func TestGenerate_Empty(t *testing.T) {
	gen, mem := newTestGenerator(fixedNow)

	res := gen.Generate(nil)

	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Google Birthday Liberator//Birthday Events//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"END:VCALENDAR",
	}, "\n"), res.Content)
	assert.Empty(t, mem.Skipped)
}

func TestGenerate_YearlessScenario(t *testing.T) {
	gen, _ := newTestGenerator(fixedNow)

	res := gen.Generate([]contacts.Record{record(t, "Ada", "", "Lovelace", "--12-10")})

	require.Equal(t, 1, res.Processed)
	want := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Google Birthday Liberator//Birthday Events//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:uid-1",
		"DTSTART;VALUE=DATE:20251210",
		"DTEND;VALUE=DATE:20251210",
		"SUMMARY:🎂 Ada Lovelace's Birthday",
		"DESCRIPTION:Birthday of Ada Lovelace - Remember to call and congratulate!",
		"RRULE:FREQ=YEARLY",
		"TRANSP:TRANSPARENT",
		"CLASS:PUBLIC",
		"DTSTAMP:20250601T103000Z",
		"BEGIN:VALARM",
		"TRIGGER:PT0S",
		"ACTION:EMAIL",
		"SUMMARY:Today is Ada Lovelace's Birthday! 🎂",
		"DESCRIPTION:Don't forget to call Ada Lovelace today to wish them a happy birthday! 🎂",
		"END:VALARM",
		"BEGIN:VALARM",
		"TRIGGER:PT0S",
		"ACTION:DISPLAY",
		"SUMMARY:🎂 Ada Lovelace's Birthday!",
		"DESCRIPTION:Don't forget to call Ada Lovelace today to wish them a happy birthday! 🎂",
		"END:VALARM",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\n")
	assert.Equal(t, want, res.Content)
}

func TestGenerate_SkipsInvalidDates(t *testing.T) {
	gen, mem := newTestGenerator(fixedNow)

	records := []contacts.Record{
		record(t, "Good", "", "One", "1990-05-17"),
		record(t, "Bad", "", "Shape", "not-a-date"),
		record(t, "Bad", "", "Day", "2024-13-40"),
		record(t, "Leap", "", "Day", "--02-29"), // 2025 is a common year
		record(t, "Good", "", "Two", "--01-01"),
	}

	res := gen.Generate(records)

	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 2, strings.Count(res.Content, "BEGIN:VEVENT"))
	assert.Contains(t, res.Content, "DTSTART;VALUE=DATE:19900517")
	assert.Contains(t, res.Content, "DTSTART;VALUE=DATE:20250101")

	require.Len(t, mem.Skipped, 3)
	assert.Equal(t, "Bad Shape", mem.Skipped[0].Name)
	assert.ErrorIs(t, mem.Skipped[0].Err, engine.ErrDateFormat)
	assert.Equal(t, "2024-13-40", mem.Skipped[1].Value)
	assert.ErrorIs(t, mem.Skipped[1].Err, engine.ErrDateInvalid)
	assert.ErrorIs(t, mem.Skipped[2].Err, engine.ErrDateInvalid)
}

func TestGenerate_PreservesOrder(t *testing.T) {
	gen, _ := newTestGenerator(fixedNow)

	res := gen.Generate([]contacts.Record{
		record(t, "Zoe", "", "", "--03-01"),
		record(t, "Adam", "", "", "--01-01"),
		record(t, "Zoe", "", "", "--03-01"),
	})

	require.Equal(t, 3, res.Processed)
	first := strings.Index(res.Content, "Zoe's Birthday")
	second := strings.Index(res.Content, "Adam's Birthday")
	assert.Less(t, first, second, "events follow record order")
	assert.Equal(t, 2, strings.Count(res.Content, "SUMMARY:🎂 Zoe's Birthday\n"), "duplicates are kept")
}

func TestGenerate_IdempotentApartFromVolatileFields(t *testing.T) {
	records := []contacts.Record{
		record(t, "Ada", "", "Lovelace", "--12-10"),
		record(t, "Alan", "Mathison", "Turing", "1912-06-23"),
	}

	first := (&engine.Generator{Clock: MockClock{CurrentTime: fixedNow}}).Generate(records)
	second := (&engine.Generator{Clock: MockClock{CurrentTime: fixedNow.Add(time.Hour)}}).Generate(records)

	strip := func(s string) []string {
		var kept []string
		for _, line := range strings.Split(s, "\n") {
			if strings.HasPrefix(line, "UID:") || strings.HasPrefix(line, "DTSTAMP:") {
				continue
			}
			kept = append(kept, line)
		}
		return kept
	}

	assert.Equal(t, first.Processed, second.Processed)
	assert.Equal(t, strip(first.Content), strip(second.Content))
	assert.NotEqual(t, first.Content, second.Content, "random UIDs differ between runs")
}

func TestGenerate_EscapesText(t *testing.T) {
	gen, _ := newTestGenerator(fixedNow)
	gen.Texts = func(name string) engine.EventText {
		return engine.EventText{
			Summary:     "Party; " + name + ", bring cake",
			Description: `line one` + "\n" + `back\slash`,
		}
	}

	res := gen.Generate([]contacts.Record{record(t, "Ada", "", "", "--12-10")})

	assert.Contains(t, res.Content, `SUMMARY:Party\; Ada\, bring cake`)
	assert.Contains(t, res.Content, `DESCRIPTION:line one\nback\\slash`)
}

func TestGenerate_UsesSingleClockReading(t *testing.T) {
	gen, _ := newTestGenerator(time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC))

	res := gen.Generate([]contacts.Record{
		record(t, "Leap", "", "", "--02-29"),
		record(t, "Eve", "", "", "--12-31"),
	})

	assert.Equal(t, 2, res.Processed)
	assert.Contains(t, res.Content, "DTSTART;VALUE=DATE:20240229")
	assert.Contains(t, res.Content, "DTSTART;VALUE=DATE:20241231")
	assert.Equal(t, 2, strings.Count(res.Content, "DTSTAMP:20241231T235959Z"))
}

func TestStableIDs(t *testing.T) {
	ids := engine.StableIDs{}
	ada := record(t, "Ada", "", "Lovelace", "--12-10")
	date := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)

	first := ids.NewID(ada, date)
	assert.Equal(t, first, ids.NewID(ada, date))
	assert.True(t, strings.HasSuffix(first, "@birthday-liberator"))
	assert.Len(t, strings.TrimSuffix(first, "@birthday-liberator"), 32)

	other := record(t, "Alan", "", "Turing", "--12-10")
	assert.NotEqual(t, first, ids.NewID(other, date))
	assert.NotEqual(t, first, ids.NewID(ada, date.AddDate(1, 0, 0)))
}

func TestRandomIDs(t *testing.T) {
	ids := engine.RandomIDs{}
	rec := record(t, "Ada", "", "", "--12-10")
	assert.NotEqual(t, ids.NewID(rec, time.Time{}), ids.NewID(rec, time.Time{}))
}
