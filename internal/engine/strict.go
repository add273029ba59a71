package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/birthday-liberator/internal/config"
	"github.com/tartampluch/birthday-liberator/internal/contacts"
)

// stubVCalendar is written when no event survives: the encoder refuses an
// empty calendar, and clients flag a zero-byte feed as invalid.
var stubVCalendar = strings.Join(append(append([]string{}, calendarHeader...), config.ICalEnd), config.StrictLineBreak) + config.StrictLineBreak

// Encode writes records as a strict RFC 5545 calendar with CRLF line endings
// and an exclusive DTEND one day after DTSTART. Skipping and counting follow
// Generate. It returns the number of events written.
func (g *Generator) Encode(records []contacts.Record, w io.Writer) (int, error) {
	events := g.buildEvents(records)

	if len(events) == 0 {
		if _, err := io.WriteString(w, stubVCalendar); err != nil {
			return 0, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
		}
		return 0, nil
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	for _, e := range events {
		cal.Children = append(cal.Children, e.component())
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return 0, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return len(events), nil
}

// component builds the VEVENT with its two alarms.
func (e event) component() *ical.Component {
	ev := ical.NewEvent()
	ev.Props.SetText(config.PropUID, e.UID)

	dtStart := ical.NewProp(config.PropDTStart)
	dtStart.SetDate(e.Date)
	ev.Props.Set(dtStart)

	dtEnd := ical.NewProp(config.PropDTEnd)
	dtEnd.SetDate(e.Date.AddDate(0, 0, 1))
	ev.Props.Set(dtEnd)

	dtStamp := ical.NewProp(config.PropDTStamp)
	dtStamp.SetDateTime(e.Stamp)
	ev.Props.Set(dtStamp)

	ev.Props.SetText(config.PropSummary, e.Text.Summary)
	ev.Props.SetText(config.PropDescription, e.Text.Description)
	ev.Props.SetText(config.PropTransp, config.ICalTransp)
	ev.Props.SetText(config.PropClass, config.ICalClass)
	ev.Props.Set(rawProp(config.PropRRule, config.ICalFreq))

	ev.Children = append(ev.Children,
		alarm(config.ICalEmail, e.Text.EmailSummary, e.Text.EmailDescription),
		alarm(config.ICalDisplay, e.Text.DisplaySummary, e.Text.DisplayDescription),
	)
	return ev.Component
}

// alarm returns a VALARM firing at the start of the event.
func alarm(action, summary, description string) *ical.Component {
	a := ical.NewComponent(config.CompAlarm)
	a.Props.SetText(config.PropAction, action)
	a.Props.SetText(config.PropSummary, summary)
	a.Props.SetText(config.PropDescription, description)
	a.Props.Set(rawProp(config.PropTrigger, config.ICalTrigger))
	return a
}

// rawProp sets the value verbatim, avoiding the VALUE=TEXT parameter that
// SetText adds to non-text properties.
func rawProp(name, value string) *ical.Prop {
	p := ical.NewProp(name)
	p.Value = value
	return p
}
