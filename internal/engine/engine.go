package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tartampluch/birthday-liberator/internal/config"
	"github.com/tartampluch/birthday-liberator/internal/contacts"
	"github.com/tartampluch/birthday-liberator/internal/tabular"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrNoContacts means the export was readable but held no contact with
	// both a name and a birthday.
	ErrNoContacts = errors.New(config.ErrNoContacts)

	// ErrNoneValid means contacts were extracted but none of their birthdays
	// could be normalized.
	ErrNoneValid = errors.New(config.ErrNoneValid)

	// ErrInputTooLarge means the export is longer than config.MaxInputSize.
	// Exports are never converted partially.
	ErrInputTooLarge = errors.New(config.ErrInputTooLarge)
)

// SyncConfig contains all parameters required to acquire a contact export.
type SyncConfig struct {
	Mode      string // config.SourceModeLocal or config.SourceModeWeb
	LocalPath string // Path to the export file
	WebURL    string // http(s) URL of the export
	WebUser   string // HTTP Basic Auth Username
	WebPass   string // HTTP Basic Auth Password
}

// Generator is the core service responsible for converting contact exports.
// The zero value is usable: it reads the real clock, issues random UIDs,
// logs skipped records and writes English event texts.
type Generator struct {
	Clock     Clock     // Interface for time mocking.
	IDs       IDSource  // Event UID source.
	Collector Collector // Receives skipped records.
	Fetcher   Fetcher   // Interface for network abstraction.

	// Texts allows localized strings to be injected into the logic layer.
	Texts func(name string) EventText

	// Strict selects the RFC 5545 encoder over the line renderer in Convert.
	Strict bool
}

// Report summarizes one conversion pass.
type Report struct {
	Calendar  []byte
	Format    contacts.Format
	Extracted int
	Processed int
	Skipped   []Diagnostic
}

// Problem returns ErrNoContacts or ErrNoneValid when the calendar holds no
// event, nil otherwise. Callers show these as distinct messages.
func (r Report) Problem() error {
	switch {
	case r.Extracted == 0:
		return ErrNoContacts
	case r.Processed == 0:
		return ErrNoneValid
	default:
		return nil
	}
}

// Explain turns an error from Convert, RunSync or Report.Problem into a
// message for end users.
func Explain(err error) string {
	switch {
	case errors.Is(err, ErrNoContacts):
		return config.MsgNoContacts
	case errors.Is(err, ErrNoneValid):
		return config.MsgNoneValid
	case errors.Is(err, contacts.ErrEmptyInput):
		return config.MsgEmptyInput
	case errors.Is(err, contacts.ErrMissingColumn):
		return config.MsgMissingColumn
	case IsTooLarge(err):
		return config.MsgInputTooLarge
	default:
		return err.Error()
	}
}

// IsTooLarge reports whether err comes from an export over the size limit,
// whether the limit was hit here or by an http.MaxBytesReader upstream.
func IsTooLarge(err error) bool {
	var maxBytes *http.MaxBytesError
	return errors.Is(err, ErrInputTooLarge) || errors.As(err, &maxBytes)
}

func (g *Generator) clock() Clock {
	if g.Clock == nil {
		return RealClock{}
	}
	return g.Clock
}

func (g *Generator) ids() IDSource {
	if g.IDs == nil {
		return RandomIDs{}
	}
	return g.IDs
}

func (g *Generator) collector() Collector {
	if g.Collector == nil {
		return SlogCollector{}
	}
	return g.Collector
}

func (g *Generator) text(name string) EventText {
	if g.Texts == nil {
		return DefaultEventText(name)
	}
	return g.Texts(name)
}

// RunSync acquires the configured export and converts it.
func (g *Generator) RunSync(ctx context.Context, cfg SyncConfig) (Report, error) {
	start := time.Now()
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyMode, cfg.Mode,
	)
	log.InfoContext(ctx, config.MsgSyncStarted)

	// 1. Acquire Data Stream
	reader, err := g.acquireStream(ctx, cfg)
	if err != nil {
		// If context error occurred during acquisition, return it directly.
		if ctx.Err() != nil {
			return Report{}, ctx.Err()
		}
		return Report{}, fmt.Errorf("%s: %w", config.ErrReadInput, err)
	}
	// Best effort close. Errors in Close() for read-only files are rarely actionable here.
	defer func() { _ = reader.Close() }()

	// 2. Process Data
	report, err := g.Convert(ctx, reader)
	if err == nil {
		log.Info(config.MsgSyncFinished,
			config.LogKeyExtracted, report.Extracted,
			config.LogKeyProcessed, report.Processed,
			config.LogKeyDuration, time.Since(start).Milliseconds())
	}
	return report, err
}

// acquireStream opens the appropriate data source based on configuration.
func (g *Generator) acquireStream(ctx context.Context, cfg SyncConfig) (io.ReadCloser, error) {
	switch cfg.Mode {
	case config.SourceModeLocal:
		if cfg.LocalPath == "" {
			return nil, errors.New(config.ErrLocalPathEmpty)
		}
		return os.Open(cfg.LocalPath)
	case config.SourceModeWeb:
		if cfg.WebURL == "" {
			return nil, errors.New(config.ErrWebURLEmpty)
		}
		if g.Fetcher == nil {
			return nil, errors.New(config.ErrFetcherMissing)
		}
		return g.Fetcher.Fetch(ctx, cfg.WebURL, cfg.WebUser, cfg.WebPass)
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrModeUnsupport, cfg.Mode)
	}
}

// Convert reads a whole contact export (CSV or vCard), extracts its records
// and renders the calendar. Structural problems of the export are returned
// as errors; unreadable birthdays only show up in Report.Skipped.
func (g *Generator) Convert(ctx context.Context, r io.Reader) (Report, error) {
	text, err := ReadText(r)
	if err != nil {
		return Report{}, err
	}

	// Check for cancellation before processing.
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	report := Report{Format: contacts.Detect(text)}

	var records []contacts.Record
	switch report.Format {
	case contacts.FormatVCard:
		records, err = contacts.ExtractVCard(strings.NewReader(text))
	default:
		records, err = contacts.Extract(tabular.Parse(text))
	}
	if err != nil {
		return Report{}, err
	}
	report.Extracted = len(records)

	// Diagnostics go to the configured collector and into the report.
	mem := &MemoryCollector{}
	pass := *g
	pass.Collector = Tee(g.collector(), mem)

	if g.Strict {
		var buf bytes.Buffer
		n, err := pass.Encode(records, &buf)
		if err != nil {
			return Report{}, err
		}
		report.Calendar, report.Processed = buf.Bytes(), n
	} else {
		res := pass.Generate(records)
		report.Calendar, report.Processed = []byte(res.Content), res.Processed
	}
	report.Skipped = mem.Skipped

	return report, nil
}

// ReadText reads a whole export and decodes it to a string. A UTF-8 or
// UTF-16 byte order mark selects the decoding and is dropped; without one the
// input is taken as UTF-8. Input longer than config.MaxInputSize fails with
// ErrInputTooLarge instead of being cut short.
func ReadText(r io.Reader) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(r, config.MaxInputSize+1))
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrReadInput, err)
	}
	if len(raw) > config.MaxInputSize {
		return "", fmt.Errorf("%w: %d bytes max", ErrInputTooLarge, config.MaxInputSize)
	}

	data, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrDecodeInput, err)
	}
	return string(data), nil
}
