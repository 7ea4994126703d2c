package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/a3tai/pdf-form-extract/internal/config"
	"github.com/a3tai/pdf-form-extract/internal/pdf"
	"github.com/a3tai/pdf-form-extract/internal/pdf/pdftest"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func surveyPDF(t *testing.T, dir, name, docNum string) string {
	t.Helper()
	f := pdftest.NewForm()
	icon := f.Add(pdftest.ImageXObject())
	f.AddField(pdftest.TextField("Doc Num", docNum))
	f.AddField(pdftest.ChoiceField("County", "Adams", "(Adams)", "(Brown)"))
	f.AddField(pdftest.ButtonField("Survey Image", "/MK << /I "+pdftest.Ref(icon)+" >>"))
	return f.WriteFile(t, dir, name)
}

func newTestServer(t *testing.T, dir string) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeStdio
	cfg.PDFDirectory = dir
	cfg.Version = "1.0.0"
	cfg.MaxFileSize = 1024 * 1024

	svc, err := pdf.NewService(pdf.ServiceOptions{
		MaxFileSize: cfg.MaxFileSize,
		Directory:   dir,
		Specs:       cfg.FieldSpecs(),
		Batch:       pdf.BatchOptions{Workers: 2},
	}, nil)
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	s, err := NewServer(cfg, svc, log)
	require.NoError(t, err)
	return s
}

func callTool(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", result.Content[0])
	return text.Text
}

func TestNewServer(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, dir)
	assert.NotNil(t, s.mcpServer)
	assert.NotNil(t, s.serverInfo)

	_, err := NewServer(nil, s.service, nil)
	assert.EqualError(t, err, "config cannot be nil")

	_, err = NewServer(s.config, nil, nil)
	assert.EqualError(t, err, "service cannot be nil")
}

func TestServer_HandleFormExtractFile(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, dir)
	path := surveyPDF(t, dir, "survey.pdf", "2024-7")

	result, err := s.handleFormExtractFile(context.Background(), callTool(map[string]interface{}{"path": path}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "survey.pdf", rows[0]["filename"])
	assert.Equal(t, "2024-7", rows[0]["doc_num"])
	assert.Equal(t, "", rows[0]["township"])
	assert.Equal(t, "Adams", rows[0]["county"])
	assert.Equal(t, "Adams,Brown", rows[0]["county_options"])
	assert.Equal(t, true, rows[0]["image_present_bool"])
	assert.Equal(t, "Y", rows[0]["image_present_flag"])
}

func TestServer_HandleFormExtractFile_Errors(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, dir)

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing path", map[string]interface{}{}, "path"},
		{"missing file", map[string]interface{}{"path": filepath.Join(dir, "gone.pdf")}, "SOURCE_NOT_FOUND"},
		{"outside directory", map[string]interface{}{"path": "/etc/hosts"}, "security validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleFormExtractFile(context.Background(), callTool(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}

func TestServer_HandleFormExtractDirectory(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, dir)
	surveyPDF(t, dir, "a.pdf", "1")
	surveyPDF(t, dir, "b.pdf", "2")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("%PDF-1.4\n"), 0o644))

	result, err := s.handleFormExtractDirectory(context.Background(), callTool(map[string]interface{}{}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Total PDFs processed: 3, successfully extracted: 2")
	assert.Contains(t, text, "Failures:")
	assert.Contains(t, text, "broken.pdf")
	assert.Contains(t, text, `"doc_num": "2"`)
}

func TestServer_HandleFormExtractDirectory_Query(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, dir)
	surveyPDF(t, dir, "adams.pdf", "1")
	surveyPDF(t, dir, "brown.pdf", "2")

	result, err := s.handleFormExtractDirectory(context.Background(), callTool(map[string]interface{}{
		"directory": dir,
		"query":     "brown",
	}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Total PDFs processed: 1, successfully extracted: 1")
	assert.NotContains(t, text, "Failures:")
	assert.NotContains(t, text, "adams.pdf")
}

func TestServer_HandleFormValidateFile(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, dir)
	good := surveyPDF(t, dir, "good.pdf", "1")

	result, err := s.handleFormValidateFile(context.Background(), callTool(map[string]interface{}{"path": good}))
	require.NoError(t, err)
	assert.Equal(t, "Valid PDF: "+good, resultText(t, result))

	missing := filepath.Join(dir, "missing.pdf")
	result, err = s.handleFormValidateFile(context.Background(), callTool(map[string]interface{}{"path": missing}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	text := resultText(t, result)
	assert.Contains(t, text, "Invalid PDF: "+missing)
	assert.Contains(t, text, "Error type: SOURCE_NOT_FOUND")
}

func TestServer_HandleFormSearchDirectory(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, dir)
	surveyPDF(t, dir, "adams-1.pdf", "1")
	surveyPDF(t, dir, "brown-2.pdf", "2")

	result, err := s.handleFormSearchDirectory(context.Background(), callTool(map[string]interface{}{"query": "adams"}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Found 1 PDF file(s) in directory: "+dir)
	assert.Contains(t, text, "Search query: adams")
	assert.Contains(t, text, "1. adams-1.pdf")
	assert.NotContains(t, text, "brown-2.pdf")
}

func TestServer_HandleFormServerInfo(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, dir)
	surveyPDF(t, dir, "a.pdf", "1")

	result, err := s.handleFormServerInfo(context.Background(), callTool(nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "pdf-form-extract v1.0.0 - Server Information")
	assert.Contains(t, text, "Default Directory: "+dir)
	assert.Contains(t, text, "Max File Size: 1 MB")
	assert.Contains(t, text, "doc_num: Doc Num")
	assert.Contains(t, text, "county (options): County")
	assert.Contains(t, text, "image: Survey Image")
	assert.Contains(t, text, "1. a.pdf")
	for _, tool := range []string{"form_extract_file", "form_extract_directory", "form_validate_file", "form_search_directory", "form_server_info"} {
		assert.Contains(t, text, "- "+tool)
	}
}
