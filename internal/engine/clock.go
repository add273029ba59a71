package engine

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tartampluch/birthday-liberator/internal/config"
	"github.com/tartampluch/birthday-liberator/internal/contacts"
)

// Clock abstracts time.Now() to allow deterministic testing.
// It is used by the Generator to anchor year-less birthdays and stamp events.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// IDSource produces the UID of the event generated for a record.
type IDSource interface {
	NewID(rec contacts.Record, date time.Time) string
}

// RandomIDs issues a fresh random UUID for every event.
type RandomIDs struct{}

// NewID ignores its arguments.
func (RandomIDs) NewID(contacts.Record, time.Time) string {
	return uuid.NewString()
}

// StableIDs derives the UID from the contact name and birthday, so exporting
// the same address book twice yields the same UIDs and calendar clients update
// events instead of duplicating them.
type StableIDs struct{}

// NewID hashes the full name, the normalized date and a salt.
func (StableIDs) NewID(rec contacts.Record, date time.Time) string {
	input := fmt.Sprintf(config.FormatHashInput, rec.FullName, date.Format(config.DateFormatFullDash), config.UIDSalt)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf(config.FormatStableUID, fmt.Sprintf("%x", hash[:config.UIDHashLength]), config.ICalDomain)
}
