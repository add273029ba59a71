package engine

import "fmt"

// EventText holds the human readable strings of one birthday event and its
// two reminders.
type EventText struct {
	Summary            string
	Description        string
	EmailSummary       string
	EmailDescription   string
	DisplaySummary     string
	DisplayDescription string
}

// English phrasing, used when no localized texts are injected.
const (
	fallbackSummary        = "🎂 %s's Birthday"
	fallbackDescription    = "Birthday of %s - Remember to call and congratulate!"
	fallbackEmailSummary   = "Today is %s's Birthday! 🎂"
	fallbackDisplaySummary = "🎂 %s's Birthday!"
	fallbackReminder       = "Don't forget to call %s today to wish them a happy birthday! 🎂"
)

// DefaultEventText returns the English texts for the given full name.
func DefaultEventText(name string) EventText {
	return EventText{
		Summary:            fmt.Sprintf(fallbackSummary, name),
		Description:        fmt.Sprintf(fallbackDescription, name),
		EmailSummary:       fmt.Sprintf(fallbackEmailSummary, name),
		EmailDescription:   fmt.Sprintf(fallbackReminder, name),
		DisplaySummary:     fmt.Sprintf(fallbackDisplaySummary, name),
		DisplayDescription: fmt.Sprintf(fallbackReminder, name),
	}
}
