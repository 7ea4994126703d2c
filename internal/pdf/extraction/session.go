// Package extraction turns one form document into one ExtractionResult.
package extraction

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/a3tai/pdf-form-extract/internal/logging"
	"github.com/a3tai/pdf-form-extract/internal/pdf/acroform"
	"github.com/sirupsen/logrus"
)

// Extractor produces a record per document source.
type Extractor interface {
	// ExtractFile opens, reads and closes the document at path
	ExtractFile(path string) (*ExtractionResult, error)
}

// Session reads a fixed set of fields from documents. It holds no
// per-document state, so one Session can serve many goroutines as long as
// each document stays with the goroutine that opened it.
type Session struct {
	specs FieldSpecs
	log   logrus.FieldLogger
}

// NewSession creates a session for specs. A nil logger discards output.
func NewSession(specs FieldSpecs, log logrus.FieldLogger) *Session {
	return &Session{
		specs: specs,
		log:   logging.OrDiscard(log),
	}
}

// Specs returns the field specs the session reads.
func (s *Session) Specs() FieldSpecs {
	return s.specs
}

// ExtractFile extracts one record from the PDF at path. Only a missing
// source or an unparseable document is an error.
func (s *Session) ExtractFile(path string) (*ExtractionResult, error) {
	doc, err := acroform.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer doc.Close()

	return s.ExtractDocument(doc)
}

// ExtractReader extracts one record from an in-memory PDF.
func (s *Session) ExtractReader(name string, rs io.ReadSeeker) (*ExtractionResult, error) {
	doc, err := acroform.OpenReader(name, rs)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(name), err)
	}
	defer doc.Close()

	return s.ExtractDocument(doc)
}

// ExtractDocument extracts one record from an open document. The caller
// keeps ownership of doc.
func (s *Session) ExtractDocument(doc *acroform.Document) (*ExtractionResult, error) {
	index, err := acroform.BuildFieldIndex(doc, s.log)
	if err != nil {
		return nil, err
	}

	result := &ExtractionResult{
		Filename: filepath.Base(doc.Name()),
		Values:   make([]FieldValue, 0, len(s.specs.Values)),
		Options:  make([]FieldOptions, 0, len(s.specs.Choices)),
	}

	for _, spec := range s.specs.Values {
		result.Values = append(result.Values, FieldValue{
			Key:   spec.Key,
			Field: spec.Field,
			Value: index.Value(spec.Field),
		})
	}

	for _, spec := range s.specs.Choices {
		result.Options = append(result.Options, FieldOptions{
			Key:     spec.Key,
			Field:   spec.Field,
			Options: index.ChoiceOptions(spec.Field),
		})
	}

	if s.specs.Image != "" {
		result.ImagePresent = index.HasImage(s.specs.Image)
	}

	s.log.WithFields(logrus.Fields{
		"file":          result.Filename,
		"fields":        index.Len(),
		"image_present": result.ImagePresent,
	}).Info("Extracted form fields")

	return result, nil
}
