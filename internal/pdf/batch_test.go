package pdf

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	pdferrors "github.com/a3tai/pdf-form-extract/internal/pdf/errors"
	"github.com/a3tai/pdf-form-extract/internal/pdf/extraction"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExtractor returns canned outcomes keyed by source path.
type fakeExtractor struct {
	mu       sync.Mutex
	calls    []string
	errs     map[string]error
	block    map[string]chan struct{}
	panics   map[string]bool
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (f *fakeExtractor) ExtractFile(path string) (*extraction.ExtractionResult, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, path)
	f.mu.Unlock()

	if ch, ok := f.block[path]; ok {
		<-ch
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panics[path] {
		panic("boom")
	}
	if err := f.errs[path]; err != nil {
		return nil, err
	}
	return &extraction.ExtractionResult{Filename: filepath.Base(path)}, nil
}

func filenames(results []*extraction.ExtractionResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Filename
	}
	return out
}

func TestBatch_RunKeepsSourceOrderAndIsolatesFailures(t *testing.T) {
	fake := &fakeExtractor{
		errs: map[string]error{
			"/in/b.pdf": pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedStructure, "failed to read PDF context"),
		},
		panics: map[string]bool{"/in/d.pdf": true},
		delay:  5 * time.Millisecond,
	}
	logger, hook := test.NewNullLogger()
	batch := NewBatch(fake, BatchOptions{Workers: 3}, logger)

	res := batch.Run(context.Background(), []string{"/in/a.pdf", "/in/b.pdf", "/in/c.pdf", "/in/d.pdf", "/in/e.pdf"})

	assert.Equal(t, 5, res.Attempted)
	assert.Equal(t, 3, res.Succeeded)
	assert.Equal(t, []string{"a.pdf", "c.pdf", "e.pdf"}, filenames(res.Results))

	require.Len(t, res.Failures, 2)
	assert.Equal(t, "/in/b.pdf", res.Failures[0].Source)
	assert.Equal(t, "MALFORMED_STRUCTURE", res.Failures[0].Type)
	assert.Equal(t, "/in/d.pdf", res.Failures[1].Source)
	assert.Contains(t, res.Failures[1].Message, "panic during extraction")

	errs, _ := res.Errors.Count()
	assert.Equal(t, 2, errs)
	assert.LessOrEqual(t, fake.peak.Load(), int32(3))

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "Batch complete", last.Message)
	assert.Equal(t, 5, last.Data["attempted"])
	assert.Equal(t, 3, last.Data["succeeded"])

	var failedLogs int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			failedLogs++
		}
	}
	assert.Equal(t, 2, failedLogs)
}

func TestBatch_SingleWorkerRunsSequentially(t *testing.T) {
	fake := &fakeExtractor{delay: time.Millisecond}
	res := NewBatch(fake, BatchOptions{}, nil).Run(context.Background(), []string{"1.pdf", "2.pdf", "3.pdf"})

	assert.Equal(t, 3, res.Succeeded)
	assert.Equal(t, int32(1), fake.peak.Load())
	assert.Equal(t, []string{"1.pdf", "2.pdf", "3.pdf"}, fake.calls)
}

func TestBatch_EmptySourceList(t *testing.T) {
	res := NewBatch(&fakeExtractor{}, BatchOptions{Workers: 4}, nil).Run(context.Background(), nil)

	assert.Equal(t, 0, res.Attempted)
	assert.Equal(t, 0, res.Succeeded)
	assert.Empty(t, res.Results)
	assert.Empty(t, res.Failures)
}

func TestBatch_PerDocumentTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	fake := &fakeExtractor{block: map[string]chan struct{}{"slow.pdf": release}}
	batch := NewBatch(fake, BatchOptions{Workers: 2, Timeout: 20 * time.Millisecond}, nil)

	res := batch.Run(context.Background(), []string{"slow.pdf", "fast.pdf"})

	assert.Equal(t, 2, res.Attempted)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, []string{"fast.pdf"}, filenames(res.Results))
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "slow.pdf", res.Failures[0].Source)
	assert.True(t, pdferrors.IsType(res.Failures[0].Err, pdferrors.ErrorTypeTimeout))
	assert.True(t, errors.Is(res.Failures[0].Err, context.DeadlineExceeded))
}

func TestBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeExtractor{}
	res := NewBatch(fake, BatchOptions{Workers: 2}, nil).Run(ctx, []string{"a.pdf", "b.pdf"})

	assert.Equal(t, 2, res.Attempted)
	assert.Equal(t, 0, res.Succeeded)
	assert.Len(t, res.Failures, 2)
	assert.Empty(t, fake.calls)
}

func TestBatch_RealDocuments(t *testing.T) {
	dir := t.TempDir()
	good := writeSurvey(t, dir, "good.pdf", "17")
	bad := writeRaw(t, dir, "bad.pdf", []byte("%PDF-1.7\nnothing here"))
	missing := filepath.Join(dir, "missing.pdf")

	session := extraction.NewSession(extraction.DefaultFieldSpecs(), nil)
	res := NewBatch(session, BatchOptions{Workers: 2, Timeout: 5 * time.Second}, nil).
		Run(context.Background(), []string{good, bad, missing})

	assert.Equal(t, 3, res.Attempted)
	assert.Equal(t, 1, res.Succeeded)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "17", res.Results[0].Value(extraction.KeyDocNum))
	assert.True(t, res.Results[0].ImagePresent)

	require.Len(t, res.Failures, 2)
	assert.Equal(t, "MALFORMED_STRUCTURE", res.Failures[0].Type)
	assert.Equal(t, "SOURCE_NOT_FOUND", res.Failures[1].Type)
	assert.True(t, res.Errors.HasCriticalErrors())
}
