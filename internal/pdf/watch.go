package pdf

import (
	"context"
	"errors"
	"time"

	"github.com/a3tai/pdf-form-extract/internal/logging"
	"github.com/a3tai/pdf-form-extract/internal/pdf/extraction"
	"github.com/sirupsen/logrus"
)

// WatchOptions controls how long and how often a directory is processed
type WatchOptions struct {
	Duration time.Duration
	Interval time.Duration
}

// WatchResult summarizes every cycle of a Watcher run. Unique holds one
// record per dedupe key in order of first appearance.
type WatchResult struct {
	Cycles    int
	Attempted int
	Succeeded int
	Unique    []*extraction.ExtractionResult
	Failures  []DocumentFailure
}

// Watcher repeatedly enumerates a directory and extracts every PDF in it
type Watcher struct {
	dir      string
	search   *Search
	batch    *Batch
	duration time.Duration
	interval time.Duration
	log      logrus.FieldLogger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewWatcher creates a watcher over dir
func NewWatcher(dir string, search *Search, batch *Batch, opts WatchOptions, log logrus.FieldLogger) *Watcher {
	return &Watcher{
		dir:      dir,
		search:   search,
		batch:    batch,
		duration: opts.Duration,
		interval: opts.Interval,
		log:      logging.OrDiscard(log),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Run processes the directory once per interval until the duration has
// elapsed. A cycle starts only while time remains, and the watcher stops
// instead of waiting when the next cycle would begin past the deadline.
// It returns early with ctx's error when ctx ends.
func (w *Watcher) Run(ctx context.Context) (*WatchResult, error) {
	result := &WatchResult{Unique: []*extraction.ExtractionResult{}}
	seen := make(map[string]bool)
	start := w.now()

	for w.now().Sub(start) < w.duration {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Cycles++
		cycle := w.runCycle(ctx, result.Cycles)
		result.Attempted += cycle.Attempted
		result.Succeeded += cycle.Succeeded
		result.Failures = append(result.Failures, cycle.Failures...)

		for _, r := range cycle.Results {
			key := r.DedupeKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			result.Unique = append(result.Unique, r)
		}

		if w.now().Sub(start)+w.interval > w.duration {
			break
		}
		if err := w.sleep(ctx, w.interval); err != nil {
			return result, err
		}
	}

	w.log.WithFields(logrus.Fields{
		"cycles":    result.Cycles,
		"attempted": result.Attempted,
		"succeeded": result.Succeeded,
		"unique":    len(result.Unique),
	}).Info("Watch complete")

	return result, nil
}

func (w *Watcher) runCycle(ctx context.Context, cycle int) *BatchResult {
	log := w.log.WithField("cycle", cycle)
	log.Info("Starting cycle")

	sources, err := w.search.FindPDFs(w.dir)
	if err != nil {
		log.WithField("error", err).Warn("Cannot list directory")
		return &BatchResult{}
	}
	log.WithField("found", len(sources)).Info("Found PDFs")
	if len(sources) == 0 {
		return &BatchResult{}
	}

	res := w.batch.Run(ctx, sources)
	entry := log.WithFields(logrus.Fields{
		"attempted": res.Attempted,
		"succeeded": res.Succeeded,
	})
	if failed := res.Attempted - res.Succeeded; failed > 0 {
		entry.WithField("failed", failed).Warn("Cycle processed with failures")
	} else {
		entry.Info("Cycle processed")
	}
	return res
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsCancellation reports whether err came from a cancelled or expired context
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
