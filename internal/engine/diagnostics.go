package engine

import (
	"log/slog"

	"github.com/tartampluch/birthday-liberator/internal/config"
)

// Diagnostic describes a record that produced no event.
type Diagnostic struct {
	Name  string // Full name of the contact
	Value string // Raw birthday value as exported
	Err   error  // Why the value was rejected
}

// Collector receives diagnostics for skipped records. Reporting never aborts
// the generation pass.
type Collector interface {
	Skip(d Diagnostic)
}

// SlogCollector logs each diagnostic as a structured warning.
type SlogCollector struct {
	Logger *slog.Logger // nil means slog.Default()
}

// Skip implements Collector.
func (c SlogCollector) Skip(d Diagnostic) {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Warn(config.MsgSkippedDate,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyName, d.Name,
		config.LogKeyValue, d.Value,
		config.LogKeyReason, d.Err,
	)
}

// MemoryCollector keeps diagnostics in order of arrival.
type MemoryCollector struct {
	Skipped []Diagnostic
}

// Skip implements Collector.
func (c *MemoryCollector) Skip(d Diagnostic) {
	c.Skipped = append(c.Skipped, d)
}

// multiCollector fans a diagnostic out to several collectors.
type multiCollector []Collector

func (m multiCollector) Skip(d Diagnostic) {
	for _, c := range m {
		c.Skip(d)
	}
}

// Tee returns a Collector that forwards to every non-nil collector given.
func Tee(collectors ...Collector) Collector {
	var m multiCollector
	for _, c := range collectors {
		if c != nil {
			m = append(m, c)
		}
	}
	return m
}
