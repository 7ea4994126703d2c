package pdf

import (
	"context"
	"testing"
	"time"

	"github.com/a3tai/pdf-form-extract/internal/pdf/extraction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerInfo_GetServerInfo(t *testing.T) {
	dir := t.TempDir()
	writeSurvey(t, dir, "one.pdf", "1")
	svc := newTestService(t, dir)

	info := NewServerInfo(svc)
	result, err := info.GetServerInfo(context.Background(), "test-server", "1.0.0-test", dir)
	require.NoError(t, err)

	assert.Equal(t, "test-server", result.ServerName)
	assert.Equal(t, "1.0.0-test", result.Version)
	assert.Equal(t, dir, result.DefaultDirectory)
	assert.Equal(t, extraction.DefaultFieldSpecs(), result.Fields)
	require.Len(t, result.DirectoryContents, 1)
	assert.Equal(t, "one.pdf", result.DirectoryContents[0].Name)
	assert.Contains(t, result.UsageGuidance, "up to 1MB")

	names := make([]string, len(result.AvailableTools))
	for i, tool := range result.AvailableTools {
		names[i] = tool.Name
		assert.NotEqual(t, "Tool description not available", tool.Description, tool.Name)
	}
	assert.Equal(t, []string{
		"form_extract_file", "form_extract_directory", "form_validate_file",
		"form_search_directory", "form_server_info",
	}, names)
}

func TestServerInfo_UsesCachedListing(t *testing.T) {
	dir := t.TempDir()
	writeSurvey(t, dir, "one.pdf", "1")
	info := NewServerInfo(newTestService(t, dir))

	first, err := info.GetServerInfo(context.Background(), "s", "v", dir)
	require.NoError(t, err)
	require.Len(t, first.DirectoryContents, 1)

	writeSurvey(t, dir, "two.pdf", "2")
	second, err := info.GetServerInfo(context.Background(), "s", "v", dir)
	require.NoError(t, err)
	assert.Len(t, second.DirectoryContents, 1, "listing served from cache")
}

func TestServerInfo_FallsBackToConfiguredDirectory(t *testing.T) {
	dir := t.TempDir()
	info := NewServerInfo(newTestService(t, dir))

	result, err := info.GetServerInfo(context.Background(), "s", "v", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, dir, result.DefaultDirectory)
	assert.Empty(t, result.DirectoryContents)
}

func TestDirectoryCache(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewDirectoryCache(time.Minute)
	cache.now = func() time.Time { return now }

	_, ok := cache.Get("/d")
	assert.False(t, ok)

	cache.Set("/d", []FileInfo{{Name: "a.pdf"}})
	files, ok := cache.Get("/d")
	require.True(t, ok)
	assert.Len(t, files, 1)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get("/d")
	assert.False(t, ok)

	cache.Clear()
	assert.Empty(t, cache.entries)
}
