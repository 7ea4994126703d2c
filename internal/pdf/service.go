package pdf

import (
	"context"
	"fmt"

	"github.com/a3tai/pdf-form-extract/internal/logging"
	"github.com/a3tai/pdf-form-extract/internal/pdf/extraction"
	"github.com/a3tai/pdf-form-extract/internal/pdf/security"
	"github.com/sirupsen/logrus"
)

// ServiceOptions configures a Service
type ServiceOptions struct {
	MaxFileSize int64
	Directory   string
	Recursive   bool
	Specs       extraction.FieldSpecs
	Batch       BatchOptions
}

// Service orchestrates validation, enumeration and extraction for the MCP
// tools and the CLI
type Service struct {
	maxFileSize   int64
	specs         extraction.FieldSpecs
	validator     *Validator
	search        *Search
	session       *extraction.Session
	batch         *Batch
	pathValidator *security.PathValidator
	log           logrus.FieldLogger
}

// NewService creates a service bound to opts.Directory
func NewService(opts ServiceOptions, log logrus.FieldLogger) (*Service, error) {
	if err := opts.Specs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid field specs: %w", err)
	}

	pathValidator, err := security.NewPathValidator(opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	log = logging.OrDiscard(log)
	session := extraction.NewSession(opts.Specs, log)

	return &Service{
		maxFileSize:   opts.MaxFileSize,
		specs:         opts.Specs,
		validator:     NewValidator(opts.MaxFileSize),
		search:        NewSearch(opts.MaxFileSize, opts.Recursive),
		session:       session,
		batch:         NewBatch(session, opts.Batch, log),
		pathValidator: pathValidator,
		log:           log,
	}, nil
}

// ExtractFile validates req.Path and extracts its record
func (s *Service) ExtractFile(req FormExtractFileRequest) (*FormExtractFileResult, error) {
	if err := s.pathValidator.ValidatePath(req.Path); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	if err := s.validator.Check(req.Path); err != nil {
		return nil, err
	}

	result, err := s.session.ExtractFile(req.Path)
	if err != nil {
		return nil, err
	}

	return &FormExtractFileResult{
		Path:   req.Path,
		Result: result,
	}, nil
}

// ExtractDirectory runs one batch pass over the PDFs in req.Directory, or
// the configured directory when empty
func (s *Service) ExtractDirectory(ctx context.Context, req FormExtractDirectoryRequest) (*FormExtractDirectoryResult, error) {
	if req.Directory == "" {
		req.Directory = s.pathValidator.GetConfiguredDirectory()
	}

	if err := s.pathValidator.ValidateDirectory(req.Directory); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	sources, err := s.sources(req)
	if err != nil {
		return nil, err
	}

	batch := s.batch.Run(ctx, sources)
	return &FormExtractDirectoryResult{
		Directory: req.Directory,
		Results:   batch.Results,
		Failures:  batch.Failures,
		Attempted: batch.Attempted,
		Succeeded: batch.Succeeded,
	}, nil
}

func (s *Service) sources(req FormExtractDirectoryRequest) ([]string, error) {
	if req.Query == "" {
		return s.search.FindPDFs(req.Directory)
	}

	found, err := s.search.SearchDirectory(FormSearchDirectoryRequest(req))
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(found.Files))
	for i, f := range found.Files {
		paths[i] = f.Path
	}
	return paths, nil
}

// ValidateFile reports whether req.Path can be extracted
func (s *Service) ValidateFile(req FormValidateFileRequest) (*FormValidateFileResult, error) {
	if err := s.pathValidator.ValidatePath(req.Path); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.validator.ValidateFile(req)
}

// SearchDirectory lists PDFs in a directory inside the configured bounds
func (s *Service) SearchDirectory(req FormSearchDirectoryRequest) (*FormSearchDirectoryResult, error) {
	if req.Directory == "" {
		req.Directory = s.pathValidator.GetConfiguredDirectory()
	}

	if err := s.pathValidator.ValidateDirectory(req.Directory); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	return s.search.SearchDirectory(req)
}

// NewWatcher creates a watcher over dir that shares the service's batch
// driver
func (s *Service) NewWatcher(dir string, opts WatchOptions) *Watcher {
	return NewWatcher(dir, s.search, s.batch, opts, s.log)
}

// Batch returns the service's batch driver
func (s *Service) Batch() *Batch {
	return s.batch
}

// Search returns the service's directory enumerator
func (s *Service) Search() *Search {
	return s.search
}

// Session returns the service's extraction session
func (s *Service) Session() *extraction.Session {
	return s.session
}

// Specs returns the configured field specs
func (s *Service) Specs() extraction.FieldSpecs {
	return s.specs
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// ConfiguredDirectory returns the directory requests are confined to
func (s *Service) ConfiguredDirectory() string {
	return s.pathValidator.GetConfiguredDirectory()
}
