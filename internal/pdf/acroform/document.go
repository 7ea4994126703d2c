// Package acroform reads interactive form fields out of a PDF object graph:
// it resolves indirect objects, indexes the top-level AcroForm fields by
// name, decodes their values and choice options, and decides whether an
// image button carries a raster image.
package acroform

import (
	"bytes"
	"fmt"
	"io"
	"os"

	pdferrors "github.com/a3tai/pdf-form-extract/internal/pdf/errors"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Document is a parsed PDF. It must be confined to one goroutine and closed
// when no longer needed.
type Document struct {
	name     string
	ctx      *model.Context
	resolver *Resolver
}

// Open reads and parses the PDF at path. The file handle is released before
// Open returns.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeSourceNotFound, err).WithFile(path)
	}
	return OpenReader(path, bytes.NewReader(data))
}

// OpenReader parses a PDF from rs. name identifies the source in errors.
func OpenReader(name string, rs io.ReadSeeker) (doc *Document, err error) {
	// pdfcpu panics on some truncated inputs
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedStructure,
				fmt.Sprintf("parser panic: %v", r)).WithFile(name)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, pdferrors.Wrapf(pdferrors.ErrorTypeMalformedStructure, err,
			"failed to read PDF context").WithFile(name)
	}

	return &Document{
		name:     name,
		ctx:      ctx,
		resolver: NewResolver(ctx),
	}, nil
}

// Name returns the path or identifier the document was opened with.
func (d *Document) Name() string {
	return d.name
}

// Resolver returns the document's memoizing resolver.
func (d *Document) Resolver() *Resolver {
	return d.resolver
}

// Close releases the parsed object graph. It is safe to call more than once.
func (d *Document) Close() error {
	d.ctx = nil
	d.resolver = nil
	return nil
}

func (d *Document) closed() bool {
	return d.ctx == nil
}

// Catalog resolves the trailer's /Root entry to the document catalog.
func (d *Document) Catalog() (types.Dict, error) {
	if d.closed() {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedStructure, "document is closed").WithFile(d.name)
	}
	if d.ctx.Root == nil {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedStructure, "trailer has no /Root").WithFile(d.name)
	}

	catalog, err := d.resolver.Dict(*d.ctx.Root)
	if err != nil {
		return nil, pdferrors.Wrapf(pdferrors.ErrorTypeMalformedStructure, err, "cannot resolve catalog").WithFile(d.name)
	}
	if catalog == nil {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedStructure, "catalog is missing").WithFile(d.name)
	}
	return catalog, nil
}
