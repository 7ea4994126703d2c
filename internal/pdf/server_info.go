package pdf

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/a3tai/pdf-form-extract/internal/descriptions"
)

// DirectoryCache keeps directory listings for a fixed time
type DirectoryCache struct {
	entries map[string]cacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
	now     func() time.Time
}

type cacheEntry struct {
	files      []FileInfo
	lastUpdate time.Time
}

// NewDirectoryCache creates a new directory cache with specified TTL
func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached listing of path, if still fresh
func (c *DirectoryCache) Get(path string) ([]FileInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[path]
	if !exists || c.now().Sub(entry.lastUpdate) > c.ttl {
		return nil, false
	}
	return entry.files, true
}

// Set stores a listing
func (c *DirectoryCache) Set(path string, files []FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = cacheEntry{files: files, lastUpdate: c.now()}
}

// Clear removes expired entries from cache
func (c *DirectoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for path, entry := range c.entries {
		if now.Sub(entry.lastUpdate) > c.ttl {
			delete(c.entries, path)
		}
	}
}

// ServerInfo answers form_server_info requests
type ServerInfo struct {
	service   *Service
	cache     *DirectoryCache
	fileLimit int
	scanLimit time.Duration
}

// NewServerInfo creates a server info handler with a five minute listing
// cache
func NewServerInfo(service *Service) *ServerInfo {
	return &ServerInfo{
		service:   service,
		cache:     NewDirectoryCache(5 * time.Minute),
		fileLimit: 100,
		scanLimit: 3 * time.Second,
	}
}

// GetServerInfo describes the server and lists the PDFs waiting in the
// default directory
func (p *ServerInfo) GetServerInfo(ctx context.Context, serverName, version, defaultDirectory string) (*FormServerInfoResult, error) {
	validatedDir := defaultDirectory
	if err := p.service.pathValidator.ValidateDirectory(defaultDirectory); err != nil || defaultDirectory == "" {
		validatedDir = p.service.ConfiguredDirectory()
	}

	files, ok := p.cache.Get(validatedDir)
	if !ok {
		scanCtx, cancel := context.WithTimeout(ctx, p.scanLimit)
		defer cancel()

		var err error
		files, err = p.service.search.FindPDFsLimited(scanCtx, validatedDir, p.fileLimit)
		if err != nil {
			files = []FileInfo{}
		} else {
			p.cache.Set(validatedDir, files)
		}
	}

	return &FormServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  validatedDir,
		MaxFileSize:       p.service.maxFileSize,
		Fields:            p.service.specs,
		AvailableTools:    availableTools(),
		DirectoryContents: files,
		UsageGuidance:     p.usageGuidance(),
	}, nil
}

func availableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        descriptions.ToolFormExtractFile,
			Description: descriptions.GetToolDescription(descriptions.ToolFormExtractFile),
			Parameters:  "path (required): Full path to the PDF file",
		},
		{
			Name:        descriptions.ToolFormExtractDirectory,
			Description: descriptions.GetToolDescription(descriptions.ToolFormExtractDirectory),
			Parameters: "directory (optional): Directory to process (uses default if empty), " +
				"query (optional): Filename filter",
		},
		{
			Name:        descriptions.ToolFormValidateFile,
			Description: descriptions.GetToolDescription(descriptions.ToolFormValidateFile),
			Parameters:  "path (required): Full path to the PDF file",
		},
		{
			Name:        descriptions.ToolFormSearchDirectory,
			Description: descriptions.GetToolDescription(descriptions.ToolFormSearchDirectory),
			Parameters: "directory (optional): Directory to search (uses default if empty), " +
				"query (optional): Filename filter",
		},
		{
			Name:        descriptions.ToolFormServerInfo,
			Description: descriptions.GetToolDescription(descriptions.ToolFormServerInfo),
			Parameters:  "none",
		},
	}
}

func (p *ServerInfo) usageGuidance() string {
	return fmt.Sprintf(`PDF Form Extraction Server Usage Guide:

1. FIND DOCUMENTS:
   - Use 'form_search_directory' to list PDFs, optionally filtered by name

2. CHECK A DOCUMENT:
   - Use 'form_validate_file' before extracting a file you are unsure about

3. EXTRACT:
   - Use 'form_extract_file' for one document
   - Use 'form_extract_directory' to process every PDF in a directory at once
   - Each record carries the configured field values, the option lists of
     choice fields, and whether the image button holds a picture

IMPORTANT NOTES:
- Paths must stay inside the configured directory
- The server can handle files up to %dMB
- A missing field yields an empty value, not an error
- Documents that cannot be parsed are reported as failures and skipped`, p.service.maxFileSize/(1024*1024))
}
