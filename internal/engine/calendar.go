package engine

import (
	"log/slog"
	"strings"
	"time"

	"github.com/tartampluch/birthday-liberator/internal/config"
	"github.com/tartampluch/birthday-liberator/internal/contacts"
)

// Result is a generated calendar document and the number of records that
// produced an event.
type Result struct {
	Content   string
	Processed int
}

// event is the renderer-independent form of one birthday event.
type event struct {
	UID   string
	Date  time.Time // all-day start, UTC midnight
	Stamp time.Time // creation timestamp, UTC
	Text  EventText
}

// calendarHeader never varies per invocation.
var calendarHeader = []string{
	config.ICalBegin,
	config.PropVersion + ":" + config.ICalVersion,
	config.PropProdid + ":" + config.ICalProdid,
	config.PropCalScale + ":" + config.ICalScale,
	config.PropMethod + ":" + config.ICalMethod,
}

// Generate renders records as a calendar document, one yearly event per
// record whose birthday can be normalized. Other records are reported to the
// Collector and left out. Lines are separated by a single newline.
func (g *Generator) Generate(records []contacts.Record) Result {
	events := g.buildEvents(records)

	lines := make([]string, 0, len(calendarHeader)+len(events)*eventLineCount+1)
	lines = append(lines, calendarHeader...)
	for _, e := range events {
		lines = append(lines, e.lines()...)
	}
	lines = append(lines, config.ICalEnd)

	return Result{
		Content:   strings.Join(lines, config.LineBreak),
		Processed: len(events),
	}
}

// buildEvents normalizes every record against a single reading of the clock.
func (g *Generator) buildEvents(records []contacts.Record) []event {
	now := g.clock().Now()
	stamp := now.UTC()
	ids := g.ids()
	collector := g.collector()

	events := make([]event, 0, len(records))
	for _, rec := range records {
		date, err := NormalizeBirthday(rec.Birthday, now.Year())
		if err != nil {
			collector.Skip(Diagnostic{Name: rec.FullName, Value: rec.Birthday, Err: err})
			continue
		}

		events = append(events, event{
			UID:   ids.NewID(rec, date),
			Date:  date,
			Stamp: stamp,
			Text:  g.text(rec.FullName),
		})
	}

	slog.Debug(config.MsgGenSuccess,
		config.LogKeyComponent, config.CompEngine,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyExtracted, len(records)),
			slog.Int(config.LogKeyProcessed, len(events)),
			slog.Int(config.LogKeySkipped, len(records)-len(events)),
		),
	)
	return events
}

const eventLineCount = 23

// lines renders the event block. DTEND repeats DTSTART here; strict output
// uses the following day instead.
func (e event) lines() []string {
	day := e.Date.Format(config.DateFormatICal)
	return []string{
		config.PropBegin + ":" + config.CompEvent,
		config.PropUID + ":" + e.UID,
		config.PropDTStart + config.ParamValueDate + ":" + day,
		config.PropDTEnd + config.ParamValueDate + ":" + day,
		config.PropSummary + ":" + escapeText(e.Text.Summary),
		config.PropDescription + ":" + escapeText(e.Text.Description),
		config.PropRRule + ":" + config.ICalFreq,
		config.PropTransp + ":" + config.ICalTransp,
		config.PropClass + ":" + config.ICalClass,
		config.PropDTStamp + ":" + e.Stamp.Format(config.DateTimeFormatICalZ),
		config.PropBegin + ":" + config.CompAlarm,
		config.PropTrigger + ":" + config.ICalTrigger,
		config.PropAction + ":" + config.ICalEmail,
		config.PropSummary + ":" + escapeText(e.Text.EmailSummary),
		config.PropDescription + ":" + escapeText(e.Text.EmailDescription),
		config.PropEnd + ":" + config.CompAlarm,
		config.PropBegin + ":" + config.CompAlarm,
		config.PropTrigger + ":" + config.ICalTrigger,
		config.PropAction + ":" + config.ICalDisplay,
		config.PropSummary + ":" + escapeText(e.Text.DisplaySummary),
		config.PropDescription + ":" + escapeText(e.Text.DisplayDescription),
		config.PropEnd + ":" + config.CompAlarm,
		config.PropEnd + ":" + config.CompEvent,
	}
}

// textEscaper applies the RFC 5545 TEXT escapes.
var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}
