// Package worker keeps the served calendar in sync with the configured source.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/tartampluch/birthday-liberator/internal/config"
	"github.com/tartampluch/birthday-liberator/internal/engine"
)

// Syncer converts the configured source. *engine.Generator implements it.
type Syncer interface {
	RunSync(ctx context.Context, cfg engine.SyncConfig) (engine.Report, error)
}

// Publisher receives each freshly generated calendar.
// *server.CalendarServer implements it.
type Publisher interface {
	Update(data []byte)
}

// Refresher re-converts the source on a cron schedule.
type Refresher struct {
	syncer    Syncer
	publisher Publisher
	source    engine.SyncConfig
	schedule  cron.Schedule
	spec      string
}

// New validates the schedule. It accepts standard five-field specs and the
// @hourly / @every <duration> descriptors.
func New(syncer Syncer, publisher Publisher, source engine.SyncConfig, spec string) (*Refresher, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCronSpec, err)
	}
	return &Refresher{
		syncer:    syncer,
		publisher: publisher,
		source:    source,
		schedule:  schedule,
		spec:      spec,
	}, nil
}

// Run syncs once, then on every tick of the schedule, until ctx is cancelled.
// A tick that fires while the previous sync is still running is skipped.
func (r *Refresher) Run(ctx context.Context) {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	r.sync(ctx, false)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})))
	c.Schedule(r.schedule, cron.FuncJob(func() { r.sync(ctx, false) }))
	c.Start()

	log.Info(config.MsgWorkerStart, config.LogKeySchedule, r.spec)

	<-ctx.Done()
	log.Info(config.MsgWorkerStop)

	// Wait for a running sync to notice the cancellation.
	<-c.Stop().Done()
}

// SyncNow runs one sync outside the schedule.
func (r *Refresher) SyncNow(ctx context.Context) {
	r.sync(ctx, true)
}

// sync executes the pipeline and publishes the result. On failure the
// previously published calendar stays in place.
func (r *Refresher) sync(ctx context.Context, manual bool) {
	log := slog.With(config.LogKeyComponent, config.CompWorker)
	log.Info(config.MsgSyncReq, config.LogKeyManual, manual)

	report, err := r.syncer.RunSync(ctx, r.source)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error(config.MsgSyncFailed, config.LogKeyError, err)
		return
	}

	if problem := report.Problem(); problem != nil {
		log.Warn(engine.Explain(problem),
			config.LogKeyExtracted, report.Extracted,
			config.LogKeyProcessed, report.Processed,
		)
	}
	r.publisher.Update(report.Calendar)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, config.LogKeyError, err)...)
}
