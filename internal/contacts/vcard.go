package contacts

import (
	"errors"
	"io"
	"log/slog"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/birthday-liberator/internal/config"
)

// ExtractVCard reads a vCard stream and returns one record per card that has
// both a birthday and a name.
//
// Name parts come from the structured N field. When N is missing or blank,
// the formatted name (FN) is used as the first name. Malformed cards are
// logged and skipped so one bad entry does not lose the rest of the address
// book.
func ExtractVCard(r io.Reader) ([]Record, error) {
	decoder := vcard.NewDecoder(r)

	var (
		records []Record
		cards   int
	)
	for {
		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompContacts,
				config.LogKeyError, err)
			// The decoder cannot resync after a syntax error.
			break
		}
		cards++

		bday := card.Get(config.VCardBDAY)
		if bday == nil {
			continue
		}

		first, middle, last := nameParts(card)
		rec, ok := NewRecord(first, middle, last, bday.Value)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	if cards == 0 {
		return nil, ErrEmptyInput
	}
	return records, nil
}

// nameParts prefers N (given, additional, family) and falls back to FN.
func nameParts(card vcard.Card) (first, middle, last string) {
	if n := card.Name(); n != nil {
		if JoinName(n.GivenName, n.AdditionalName, n.FamilyName) != "" {
			return n.GivenName, n.AdditionalName, n.FamilyName
		}
	}
	if fn := card.Get(config.VCardFN); fn != nil {
		return fn.Value, "", ""
	}
	return "", "", ""
}
