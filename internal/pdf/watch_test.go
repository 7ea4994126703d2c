package pdf

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/a3tai/pdf-form-extract/internal/pdf/extraction"
	"github.com/a3tai/pdf-form-extract/internal/pdf/pdftest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when the watcher sleeps.
type fakeClock struct {
	now     time.Time
	slept   []time.Duration
	onSleep func(n int)
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	if c.onSleep != nil {
		c.onSleep(len(c.slept))
	}
	return ctx.Err()
}

func newTestWatcher(t *testing.T, dir string, opts WatchOptions, log logrus.FieldLogger) (*Watcher, *fakeClock) {
	t.Helper()
	session := extraction.NewSession(extraction.DefaultFieldSpecs(), nil)
	w := NewWatcher(dir, NewSearch(0, false), NewBatch(session, BatchOptions{Workers: 2}, nil), opts, log)

	clock := &fakeClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	w.now = clock.Now
	w.sleep = clock.Sleep
	return w, clock
}

func TestWatcher_CycleCount(t *testing.T) {
	tests := []struct {
		name       string
		duration   time.Duration
		interval   time.Duration
		wantCycles int
		wantSleeps int
	}{
		{"interval does not divide duration", 10 * time.Minute, 3 * time.Minute, 4, 3},
		{"interval divides duration", 9 * time.Minute, 3 * time.Minute, 3, 3},
		{"interval longer than duration", time.Minute, time.Hour, 1, 0},
		{"zero duration", 0, time.Minute, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeSurvey(t, dir, "one.pdf", "1")

			w, clock := newTestWatcher(t, dir, WatchOptions{Duration: tt.duration, Interval: tt.interval}, nil)
			res, err := w.Run(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.wantCycles, res.Cycles)
			assert.Len(t, clock.slept, tt.wantSleeps)
			assert.Equal(t, tt.wantCycles, res.Attempted)
			assert.Equal(t, tt.wantCycles, res.Succeeded)
			for _, d := range clock.slept {
				assert.Equal(t, tt.interval, d)
			}
		})
	}
}

func TestWatcher_DedupesAcrossCycles(t *testing.T) {
	dir := t.TempDir()
	writeSurvey(t, dir, "a.pdf", "100")
	writeSurvey(t, dir, "b.pdf", "100")
	writeSurvey(t, dir, "c.pdf", "")
	writeRaw(t, dir, "broken.pdf", []byte("%PDF-1.7\nbroken"))

	w, clock := newTestWatcher(t, dir, WatchOptions{Duration: 5 * time.Minute, Interval: 2 * time.Minute}, nil)
	clock.onSleep = func(n int) {
		if n == 1 {
			writeSurvey(t, dir, "d.pdf", "200")
		}
	}

	res, err := w.Run(context.Background())
	require.NoError(t, err)

	// cycles at 0, 2 and 4 minutes; d.pdf appears from the second cycle on
	assert.Equal(t, 3, res.Cycles)
	assert.Equal(t, 4+5+5, res.Attempted)
	assert.Equal(t, 3+4+4, res.Succeeded)
	assert.Len(t, res.Failures, 3)

	keys := make([]string, len(res.Unique))
	for i, r := range res.Unique {
		keys[i] = r.DedupeKey()
	}
	assert.Equal(t, []string{"doc_num:100", "filename:c.pdf", "doc_num:200"}, keys)
	assert.Equal(t, "a.pdf", res.Unique[0].Filename, "first record wins")
}

func TestWatcher_MissingDirectoryCountsNothing(t *testing.T) {
	logger, hook := test.NewNullLogger()
	w, _ := newTestWatcher(t, filepath.Join(t.TempDir(), "absent"),
		WatchOptions{Duration: 3 * time.Minute, Interval: 2 * time.Minute}, logger)

	res, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Cycles)
	assert.Equal(t, 0, res.Attempted)
	assert.Empty(t, res.Unique)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "Cannot list directory" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestWatcher_StopsOnCancellation(t *testing.T) {
	dir := t.TempDir()
	writeSurvey(t, dir, "one.pdf", "1")

	ctx, cancel := context.WithCancel(context.Background())
	w, clock := newTestWatcher(t, dir, WatchOptions{Duration: time.Hour, Interval: time.Minute}, nil)
	clock.onSleep = func(n int) {
		if n == 2 {
			cancel()
		}
	}

	res, err := w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, IsCancellation(err))
	assert.Equal(t, 2, res.Cycles)
	assert.Len(t, res.Unique, 1)
}

func TestWatcher_CycleLogs(t *testing.T) {
	dir := t.TempDir()
	writeSurvey(t, dir, "one.pdf", "1")
	writeRaw(t, dir, "two.pdf", pdftest.New().Bytes()[:20])

	logger, hook := test.NewNullLogger()
	w, _ := newTestWatcher(t, dir, WatchOptions{Duration: time.Minute, Interval: time.Hour}, logger)
	_, err := w.Run(context.Background())
	require.NoError(t, err)

	var cycleEntry *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "Cycle processed with failures" {
			cycleEntry = e
		}
	}
	require.NotNil(t, cycleEntry)
	assert.Equal(t, 1, cycleEntry.Data["cycle"])
	assert.Equal(t, 2, cycleEntry.Data["attempted"])
	assert.Equal(t, 1, cycleEntry.Data["succeeded"])
	assert.Equal(t, 1, cycleEntry.Data["failed"])

	last := hook.LastEntry()
	assert.Equal(t, "Watch complete", last.Message)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, sleepContext(ctx, 0), context.Canceled)
}
