package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// PDFError describes a failure while opening a document or reading its form.
type PDFError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	ObjectNum   int       `json:"object_num,omitempty"`
	GenNum      int       `json:"generation_num,omitempty"`
	Field       string    `json:"field,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
	FilePath    string    `json:"file_path,omitempty"`
	cause       error
}

// ErrorType categorizes extraction failures
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeSourceNotFound: the document is missing or unreadable.
	ErrorTypeSourceNotFound
	// ErrorTypeMalformedStructure: the object graph cannot be parsed or the form is of the wrong shape.
	ErrorTypeMalformedStructure
	// ErrorTypeFieldReadFailure: a single field value or option list could not be decoded.
	ErrorTypeFieldReadFailure
	// ErrorTypeImageDetectionFailure: the image heuristic failed for one field.
	ErrorTypeImageDetectionFailure
	ErrorTypeMissingObject
	ErrorTypeCircularReference
	ErrorTypeTimeout
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

// Error implements the error interface
func (e *PDFError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %q)", e.Field)
	}
	if e.Context != "" {
		msg += ": " + e.Context
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *PDFError) Unwrap() error {
	return e.cause
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeSourceNotFound:
		return "SOURCE_NOT_FOUND"
	case ErrorTypeMalformedStructure:
		return "MALFORMED_STRUCTURE"
	case ErrorTypeFieldReadFailure:
		return "FIELD_READ_FAILURE"
	case ErrorTypeImageDetectionFailure:
		return "IMAGE_DETECTION_FAILURE"
	case ErrorTypeMissingObject:
		return "MISSING_OBJECT"
	case ErrorTypeCircularReference:
		return "CIRCULAR_REFERENCE"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeSourceNotFound, ErrorTypeMalformedStructure:
		return SeverityCritical
	case ErrorTypeTimeout:
		return SeverityError
	case ErrorTypeFieldReadFailure, ErrorTypeImageDetectionFailure:
		return SeverityWarning
	case ErrorTypeMissingObject, ErrorTypeCircularReference:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// IsRecoverable reports whether extraction of the document can continue after
// an error of this type. Only document-level failures abort a session.
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeSourceNotFound, ErrorTypeMalformedStructure, ErrorTypeTimeout:
		return false
	case ErrorTypeFieldReadFailure, ErrorTypeImageDetectionFailure:
		return true
	case ErrorTypeMissingObject, ErrorTypeCircularReference:
		return true
	default:
		return false
	}
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
		Timestamp:   time.Now(),
	}
}

// WrapError wraps err as a PDFError of the given type. The original error
// stays reachable through errors.Is / errors.As.
func WrapError(errorType ErrorType, err error) *PDFError {
	e := NewPDFError(errorType, err.Error())
	e.cause = err
	return e
}

// Wrapf wraps err with a formatted message.
func Wrapf(errorType ErrorType, err error, format string, args ...interface{}) *PDFError {
	e := NewPDFError(errorType, fmt.Sprintf(format, args...))
	if err != nil {
		e.Context = err.Error()
		e.cause = err
	}
	return e
}

// WithContext adds context to an existing PDFError
func (e *PDFError) WithContext(context string) *PDFError {
	e.Context = context
	return e
}

// WithObject records the indirect object the error refers to.
func (e *PDFError) WithObject(objNum, genNum int) *PDFError {
	e.ObjectNum = objNum
	e.GenNum = genNum
	return e
}

// WithField records the form field the error refers to.
func (e *PDFError) WithField(name string) *PDFError {
	e.Field = name
	return e
}

// WithFile adds file path information to an existing PDFError
func (e *PDFError) WithFile(filePath string) *PDFError {
	e.FilePath = filePath
	return e
}

// GetSeverity returns the severity of this specific error
func (e *PDFError) GetSeverity() ErrorSeverity {
	return e.Type.GetSeverity()
}

// IsCritical returns true if this error aborts the document
func (e *PDFError) IsCritical() bool {
	return e.GetSeverity() == SeverityCritical
}

// IsType reports whether any error in err's chain is a PDFError of type t.
func IsType(err error, t ErrorType) bool {
	var pdfErr *PDFError
	if !stderrors.As(err, &pdfErr) {
		return false
	}
	return pdfErr.Type == t
}

// TypeOf returns the ErrorType of the first PDFError in err's chain, or
// ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var pdfErr *PDFError
	if stderrors.As(err, &pdfErr) {
		return pdfErr.Type
	}
	return ErrorTypeUnknown
}

// ErrorCollection manages the failures of a batch
type ErrorCollection struct {
	Errors   []*PDFError `json:"errors"`
	Warnings []*PDFError `json:"warnings"`
	FilePath string      `json:"file_path,omitempty"`
}

// NewErrorCollection creates a new error collection
func NewErrorCollection(filePath string) *ErrorCollection {
	return &ErrorCollection{
		Errors:   make([]*PDFError, 0),
		Warnings: make([]*PDFError, 0),
		FilePath: filePath,
	}
}

// Add adds an error to the appropriate collection based on severity
func (ec *ErrorCollection) Add(err *PDFError) {
	if err.FilePath == "" && ec.FilePath != "" {
		err.FilePath = ec.FilePath
	}

	severity := err.GetSeverity()
	if severity == SeverityWarning || severity == SeverityInfo {
		ec.Warnings = append(ec.Warnings, err)
	} else {
		ec.Errors = append(ec.Errors, err)
	}
}

// AddError classifies an arbitrary error, keeping PDFErrors as they are.
func (ec *ErrorCollection) AddError(err error) {
	if err == nil {
		return
	}
	var pdfErr *PDFError
	if !stderrors.As(err, &pdfErr) {
		pdfErr = WrapError(ErrorTypeUnknown, err)
	}
	ec.Add(pdfErr)
}

// HasCriticalErrors returns true if any critical errors exist
func (ec *ErrorCollection) HasCriticalErrors() bool {
	for _, err := range ec.Errors {
		if err.IsCritical() {
			return true
		}
	}
	return false
}

// Count returns the total number of errors and warnings
func (ec *ErrorCollection) Count() (errors, warnings int) {
	return len(ec.Errors), len(ec.Warnings)
}

// Summary returns a text summary of all errors and warnings
func (ec *ErrorCollection) Summary() string {
	errorCount, warningCount := ec.Count()
	if errorCount == 0 && warningCount == 0 {
		return "No errors or warnings"
	}

	summary := fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)

	if ec.HasCriticalErrors() {
		summary += " (including critical errors)"
	}

	return summary
}
