package pdf

import (
	"github.com/a3tai/pdf-form-extract/internal/pdf/extraction"
)

// FileInfo describes a PDF found on disk
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Request Types

// FormExtractFileRequest asks for the form record of one PDF
type FormExtractFileRequest struct {
	Path string `json:"path"`
}

// FormExtractDirectoryRequest asks for one batch pass over a directory
type FormExtractDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
}

// FormValidateFileRequest asks whether a file can be extracted
type FormValidateFileRequest struct {
	Path string `json:"path"`
}

// FormSearchDirectoryRequest lists PDFs in a directory, optionally filtered
type FormSearchDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
}

// Response Types

// FormExtractFileResult wraps the record of one document
type FormExtractFileResult struct {
	Path   string                       `json:"path"`
	Result *extraction.ExtractionResult `json:"result"`
}

// FormExtractDirectoryResult is the outcome of one batch pass
type FormExtractDirectoryResult struct {
	Directory string                         `json:"directory"`
	Results   []*extraction.ExtractionResult `json:"results"`
	Failures  []DocumentFailure              `json:"failures,omitempty"`
	Attempted int                            `json:"attempted"`
	Succeeded int                            `json:"succeeded"`
}

// FormValidateFileResult reports whether a file passed validation
type FormValidateFileResult struct {
	Path      string `json:"path"`
	Valid     bool   `json:"valid"`
	ErrorType string `json:"error_type,omitempty"`
	Message   string `json:"message,omitempty"`
}

// FormSearchDirectoryResult lists the PDFs found in a directory
type FormSearchDirectoryResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// DocumentFailure records a document that produced no record
type DocumentFailure struct {
	Source  string `json:"source"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// ToolInfo describes an MCP tool for the server info response
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  string `json:"parameters"`
}

// FormServerInfoResult describes the server, its tools and its directory
type FormServerInfoResult struct {
	ServerName        string                `json:"server_name"`
	Version           string                `json:"version"`
	DefaultDirectory  string                `json:"default_directory"`
	MaxFileSize       int64                 `json:"max_file_size"`
	Fields            extraction.FieldSpecs `json:"fields"`
	AvailableTools    []ToolInfo            `json:"available_tools"`
	DirectoryContents []FileInfo            `json:"directory_contents"`
	UsageGuidance     string                `json:"usage_guidance"`
}
