package pdf

import (
	"fmt"
	"os"
	"strings"

	pdferrors "github.com/a3tai/pdf-form-extract/internal/pdf/errors"
	"github.com/ledongthuc/pdf"
)

// Validator checks that a source can be handed to an extraction session
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a validator that rejects files above maxFileSize bytes
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile reports whether the file at req.Path is an extractable PDF.
// Validation failures are reported in the result, not as an error.
func (v *Validator) ValidateFile(req FormValidateFileRequest) (*FormValidateFileResult, error) {
	result := &FormValidateFileResult{
		Path:  req.Path,
		Valid: false,
	}

	if err := v.Check(req.Path); err != nil {
		result.ErrorType = pdferrors.TypeOf(err).String()
		result.Message = err.Error()
		return result, nil //nolint:nilerr // validation failures are part of the result
	}

	result.Valid = true
	return result, nil
}

// Check validates filePath and returns a *errors.PDFError describing the
// first problem found: SourceNotFound when the file cannot be reached,
// MalformedStructure when it is not a readable PDF.
func (v *Validator) Check(filePath string) error {
	if filePath == "" {
		return sourceError(filePath, "path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return sourceError(filePath, "file does not exist")
	}
	if err != nil {
		return pdferrors.Wrapf(pdferrors.ErrorTypeSourceNotFound, err, "cannot access file").WithFile(filePath)
	}

	if err := v.ValidateFileInfo(filePath, fileInfo); err != nil {
		return err
	}

	return v.probe(filePath)
}

// IsValidPDF reports whether Check passes
func (v *Validator) IsValidPDF(filePath string) bool {
	return v.Check(filePath) == nil
}

// ValidateFileInfo checks file metadata without opening the file
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return sourceError(filePath, "path is a directory, not a file")
	}

	if !isPDFFile(filePath) {
		return malformedError(filePath, "file is not a PDF")
	}

	if fileInfo.Size() == 0 {
		return malformedError(filePath, "file is empty")
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return sourceError(filePath, fmt.Sprintf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize))
	}

	return nil
}

// probe opens the file with a second, independent parser. The parser panics
// on some truncated inputs, so a panic counts as an unreadable document.
func (v *Validator) probe(filePath string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = malformedError(filePath, fmt.Sprintf("invalid PDF file: %v", r))
		}
	}()

	f, _, openErr := pdf.Open(filePath)
	if openErr != nil {
		return pdferrors.Wrapf(pdferrors.ErrorTypeMalformedStructure, openErr, "invalid PDF file").WithFile(filePath)
	}
	defer f.Close()

	return nil
}

func isPDFFile(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

func sourceError(filePath, msg string) error {
	return pdferrors.NewPDFError(pdferrors.ErrorTypeSourceNotFound, msg).WithFile(filePath)
}

func malformedError(filePath, msg string) error {
	return pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedStructure, msg).WithFile(filePath)
}
