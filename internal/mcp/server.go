package mcp

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/a3tai/pdf-form-extract/internal/config"
	"github.com/a3tai/pdf-form-extract/internal/descriptions"
	"github.com/a3tai/pdf-form-extract/internal/logging"
	"github.com/a3tai/pdf-form-extract/internal/pdf"
	"github.com/a3tai/pdf-form-extract/internal/pdf/extraction"
	"github.com/a3tai/pdf-form-extract/internal/report"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// Server exposes the form extraction service as MCP tools over stdio
type Server struct {
	config     *config.Config
	service    *pdf.Service
	serverInfo *pdf.ServerInfo
	mcpServer  *server.MCPServer
	log        logrus.FieldLogger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *pdf.Service, log logrus.FieldLogger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:     cfg,
		service:    service,
		serverInfo: pdf.NewServerInfo(service),
		mcpServer:  mcpServer,
		log:        logging.OrDiscard(log),
	}

	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolFormExtractFile,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolFormExtractFile)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF form"),
		),
	), s.handleFormExtractFile)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolFormExtractDirectory,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolFormExtractDirectory)),
		mcp.WithString("directory",
			mcp.Description("Directory to process (uses configured directory if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Only process files whose names match this query"),
		),
	), s.handleFormExtractDirectory)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolFormValidateFile,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolFormValidateFile)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file to validate"),
		),
	), s.handleFormValidateFile)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolFormSearchDirectory,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolFormSearchDirectory)),
		mcp.WithString("directory",
			mcp.Description("Directory to search (uses configured directory if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional file name query"),
		),
	), s.handleFormSearchDirectory)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolFormServerInfo,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolFormServerInfo)),
	), s.handleFormServerInfo)
}

func (s *Server) handleFormExtractFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.ExtractFile(pdf.FormExtractFileRequest{Path: path})
	if err != nil {
		s.log.WithFields(logrus.Fields{"file": path, "error": err}).Warn("Tool extraction failed")
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := s.formatRecords([]*extraction.ExtractionResult{result.Result})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleFormExtractDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := pdf.FormExtractDirectoryRequest{
		Directory: request.GetString("directory", ""),
		Query:     request.GetString("query", ""),
	}

	result, err := s.service.ExtractDirectory(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := s.formatExtractDirectoryResult(result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleFormValidateFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.ValidateFile(pdf.FormValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatValidateFileResult(result)), nil
}

func (s *Server) handleFormSearchDirectory(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := pdf.FormSearchDirectoryRequest{
		Directory: request.GetString("directory", ""),
		Query:     request.GetString("query", ""),
	}

	result, err := s.service.SearchDirectory(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSearchDirectoryResult(result)), nil
}

func (s *Server) handleFormServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.serverInfo.GetServerInfo(ctx, s.config.ServerName, s.config.Version, s.config.PDFDirectory)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatServerInfoResult(result)), nil
}

// formatRecords renders records as the JSON report
func (s *Server) formatRecords(results []*extraction.ExtractionResult) (string, error) {
	var buf bytes.Buffer
	if err := report.WriteJSON(&buf, s.service.Specs(), results); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Server) formatExtractDirectoryResult(result *pdf.FormExtractDirectoryResult) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Directory: %s\n", result.Directory)
	fmt.Fprintf(&b, "Total PDFs processed: %d, successfully extracted: %d\n", result.Attempted, result.Succeeded)

	if len(result.Failures) > 0 {
		b.WriteString("\nFailures:\n")
		for i, f := range result.Failures {
			fmt.Fprintf(&b, "%d. %s [%s]: %s\n", i+1, f.Source, f.Type, f.Message)
		}
	}

	records, err := s.formatRecords(result.Results)
	if err != nil {
		return "", err
	}
	b.WriteString("\nRecords:\n")
	b.WriteString(records)
	return b.String(), nil
}

func formatValidateFileResult(result *pdf.FormValidateFileResult) string {
	if result.Valid {
		return fmt.Sprintf("Valid PDF: %s", result.Path)
	}
	return fmt.Sprintf("Invalid PDF: %s\nError type: %s\nMessage: %s", result.Path, result.ErrorType, result.Message)
}

func formatSearchDirectoryResult(result *pdf.FormSearchDirectoryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d PDF file(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		fmt.Fprintf(&b, "Search query: %s\n", result.SearchQuery)
	}
	b.WriteString("\nFiles:\n")

	for i, file := range result.Files {
		fmt.Fprintf(&b, "%d. %s\n", i+1, file.Name)
		fmt.Fprintf(&b, "   Path: %s\n", file.Path)
		fmt.Fprintf(&b, "   Size: %d bytes\n", file.Size)
		fmt.Fprintf(&b, "   Modified: %s\n", file.ModifiedTime)
	}

	return b.String()
}

func formatServerInfoResult(result *pdf.FormServerInfoResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s - Server Information\n", result.ServerName, result.Version)
	fmt.Fprintf(&b, "Default Directory: %s\n", result.DefaultDirectory)
	fmt.Fprintf(&b, "Max File Size: %d MB\n\n", result.MaxFileSize/(1024*1024))

	b.WriteString("Form Fields:\n")
	for _, v := range result.Fields.Values {
		fmt.Fprintf(&b, "  %s: %s\n", v.Key, v.Field)
	}
	for _, c := range result.Fields.Choices {
		fmt.Fprintf(&b, "  %s (options): %s\n", c.Key, c.Field)
	}
	fmt.Fprintf(&b, "  image: %s\n\n", result.Fields.Image)

	if len(result.DirectoryContents) > 0 {
		fmt.Fprintf(&b, "Directory Contents (%d PDF files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 {
				fmt.Fprintf(&b, "   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			fmt.Fprintf(&b, "   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Directory Contents: No PDF files found in default directory\n\n")
	}

	b.WriteString("Available Tools:\n")
	for _, tool := range result.AvailableTools {
		fmt.Fprintf(&b, "\n- %s\n", tool.Name)
		fmt.Fprintf(&b, "  Description: %s\n", tool.Description)
		fmt.Fprintf(&b, "  Parameters: %s\n", tool.Parameters)
	}

	b.WriteString("\n" + result.UsageGuidance)
	return b.String()
}

// Run serves the registered tools over stdin and stdout until the client
// disconnects
func (s *Server) Run(_ context.Context) error {
	s.log.WithField("directory", s.config.PDFDirectory).Debug("Starting MCP server in stdio mode")

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
