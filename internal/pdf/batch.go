package pdf

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/a3tai/pdf-form-extract/internal/logging"
	pdferrors "github.com/a3tai/pdf-form-extract/internal/pdf/errors"
	"github.com/a3tai/pdf-form-extract/internal/pdf/extraction"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// BatchOptions tunes a Batch
type BatchOptions struct {
	// Workers caps the number of documents extracted at once. Values below
	// one mean a single worker.
	Workers int
	// Timeout bounds each document. Zero disables the bound.
	Timeout time.Duration
}

// BatchResult is the outcome of one pass over a list of sources. Results
// and Failures keep the order of the sources.
type BatchResult struct {
	Results   []*extraction.ExtractionResult
	Failures  []DocumentFailure
	Attempted int
	Succeeded int
	Errors    *pdferrors.ErrorCollection
}

// Batch runs an extractor over many sources. Each document is opened,
// read and closed by a single worker.
type Batch struct {
	extractor extraction.Extractor
	workers   int
	timeout   time.Duration
	log       logrus.FieldLogger
}

// NewBatch creates a batch driver around extractor
func NewBatch(extractor extraction.Extractor, opts BatchOptions, log logrus.FieldLogger) *Batch {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Batch{
		extractor: extractor,
		workers:   workers,
		timeout:   opts.Timeout,
		log:       logging.OrDiscard(log),
	}
}

type batchOutcome struct {
	result *extraction.ExtractionResult
	err    error
}

// Run extracts every source. A failing document contributes no record and
// does not stop its siblings. Sources not yet started when ctx ends are
// recorded as timeouts.
func (b *Batch) Run(ctx context.Context, sources []string) *BatchResult {
	outcomes := make([]batchOutcome, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, source := range sources {
		g.Go(func() error {
			result, err := b.extractOne(gctx, source)
			outcomes[i] = batchOutcome{result: result, err: err}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	res := &BatchResult{
		Results:   make([]*extraction.ExtractionResult, 0, len(sources)),
		Attempted: len(sources),
		Errors:    pdferrors.NewErrorCollection(""),
	}
	for i, o := range outcomes {
		if o.err != nil {
			res.Failures = append(res.Failures, newDocumentFailure(sources[i], o.err))
			res.Errors.AddError(o.err)
			b.log.WithFields(logrus.Fields{
				"file":  filepath.Base(sources[i]),
				"error": o.err,
			}).Error("Document extraction failed")
			continue
		}
		res.Results = append(res.Results, o.result)
	}
	res.Succeeded = len(res.Results)

	b.log.WithFields(logrus.Fields{
		"attempted": res.Attempted,
		"succeeded": res.Succeeded,
	}).Info("Batch complete")

	return res
}

func (b *Batch) extractOne(ctx context.Context, source string) (*extraction.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, timeoutError(source, err)
	}

	if b.timeout <= 0 {
		return b.extractGuarded(source)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	done := make(chan batchOutcome, 1)
	go func() {
		result, err := b.extractGuarded(source)
		done <- batchOutcome{result: result, err: err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-ctx.Done():
		// the goroutine finishes on its own and its result is dropped
		return nil, timeoutError(source, ctx.Err())
	}
}

func (b *Batch) extractGuarded(source string) (result *extraction.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedStructure,
				fmt.Sprintf("panic during extraction: %v", r)).WithFile(source)
		}
	}()
	return b.extractor.ExtractFile(source)
}

func timeoutError(source string, cause error) error {
	return pdferrors.Wrapf(pdferrors.ErrorTypeTimeout, cause, "extraction did not finish").WithFile(source)
}

func newDocumentFailure(source string, err error) DocumentFailure {
	return DocumentFailure{
		Source:  source,
		Type:    pdferrors.TypeOf(err).String(),
		Message: err.Error(),
		Err:     err,
	}
}
