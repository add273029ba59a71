package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/birthday-liberator/internal/config"
	"github.com/tartampluch/birthday-liberator/internal/engine"
	"github.com/tartampluch/birthday-liberator/internal/worker"
)

// MockSyncer simulates the conversion pipeline.
type MockSyncer struct {
	mock.Mock
}

func (m *MockSyncer) RunSync(ctx context.Context, cfg engine.SyncConfig) (engine.Report, error) {
	args := m.Called(ctx, cfg)
	return args.Get(0).(engine.Report), args.Error(1)
}

// recordingPublisher keeps every published calendar.
type recordingPublisher struct {
	mu        sync.Mutex
	published [][]byte
}

func (p *recordingPublisher) Update(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, data)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

var source = engine.SyncConfig{Mode: config.SourceModeLocal, LocalPath: "contacts.csv"}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := worker.New(new(MockSyncer), &recordingPublisher{}, source, "every tuesday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrCronSpec)
}

func TestNew_AcceptedSchedules(t *testing.T) {
	for _, spec := range []string{config.DefaultRefresh, "@hourly", "*/15 * * * *", "0 6 * * *"} {
		_, err := worker.New(new(MockSyncer), &recordingPublisher{}, source, spec)
		assert.NoError(t, err, spec)
	}
}

func TestSyncNow_PublishesCalendar(t *testing.T) {
	syncer := new(MockSyncer)
	report := engine.Report{Calendar: []byte("BEGIN:VCALENDAR"), Extracted: 1, Processed: 1}
	syncer.On("RunSync", mock.Anything, source).Return(report, nil).Once()

	pub := &recordingPublisher{}
	r, err := worker.New(syncer, pub, source, config.DefaultRefresh)
	require.NoError(t, err)

	r.SyncNow(context.Background())

	require.Equal(t, 1, pub.count())
	assert.Equal(t, report.Calendar, pub.published[0])
	syncer.AssertExpectations(t)
}

func TestSyncNow_EmptyCalendarIsPublished(t *testing.T) {
	syncer := new(MockSyncer)
	syncer.On("RunSync", mock.Anything, source).
		Return(engine.Report{Calendar: []byte("BEGIN:VCALENDAR"), Extracted: 3}, nil)

	pub := &recordingPublisher{}
	r, err := worker.New(syncer, pub, source, config.DefaultRefresh)
	require.NoError(t, err)

	r.SyncNow(context.Background())
	assert.Equal(t, 1, pub.count())
}

func TestSyncNow_FailureKeepsPreviousCalendar(t *testing.T) {
	syncer := new(MockSyncer)
	syncer.On("RunSync", mock.Anything, source).Return(engine.Report{}, errors.New("source unreachable"))

	pub := &recordingPublisher{}
	r, err := worker.New(syncer, pub, source, config.DefaultRefresh)
	require.NoError(t, err)

	r.SyncNow(context.Background())
	assert.Equal(t, 0, pub.count())
}

func TestRun_SchedulesAndStops(t *testing.T) {
	syncer := new(MockSyncer)
	syncer.On("RunSync", mock.Anything, source).
		Return(engine.Report{Calendar: []byte("BEGIN:VCALENDAR"), Extracted: 1, Processed: 1}, nil)

	pub := &recordingPublisher{}
	r, err := worker.New(syncer, pub, source, "@every 1s")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	// One sync at startup, then at least one scheduled sync.
	require.Eventually(t, func() bool { return pub.count() >= 2 }, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
