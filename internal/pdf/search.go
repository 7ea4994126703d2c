package pdf

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Search enumerates PDF sources in a directory
type Search struct {
	recursive bool
	validator *Validator
}

// NewSearch creates a search handler. Subdirectories are only visited when
// recursive is set.
func NewSearch(maxFileSize int64, recursive bool) *Search {
	return &Search{
		recursive: recursive,
		validator: NewValidator(maxFileSize),
	}
}

// isPathWithinDirectory checks if a path is within the specified directory
func (s *Search) isPathWithinDirectory(path, directory string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}

	absDir, err := filepath.Abs(directory)
	if err != nil {
		return false, fmt.Errorf("failed to resolve directory: %w", err)
	}

	realPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return false, fmt.Errorf("failed to evaluate symlinks: %w", err)
		}
		realPath = absPath
	}

	realDir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate directory symlinks: %w", err)
	}

	realPath = filepath.Clean(realPath)
	realDir = filepath.Clean(realDir)
	if realPath == realDir {
		return true, nil
	}

	return strings.HasPrefix(realPath, realDir+string(filepath.Separator)), nil
}

// FindPDFs returns the paths of every *.pdf regular file in directory,
// sorted by name. Files are not validated here so that a bad file still
// counts as an attempted source.
func (s *Search) FindPDFs(directory string) ([]string, error) {
	files, err := s.walk(context.Background(), directory, 0, false)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths, nil
}

// SearchDirectory lists valid PDFs in req.Directory whose names match
// req.Query
func (s *Search) SearchDirectory(req FormSearchDirectoryRequest) (*FormSearchDirectoryResult, error) {
	files, err := s.walk(context.Background(), req.Directory, 0, true)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(req.Query))
	matched := make([]FileInfo, 0, len(files))
	for _, f := range files {
		if s.matchesQuery(f.Name, query) {
			matched = append(matched, f)
		}
	}

	absDirectory, _ := filepath.Abs(req.Directory)
	return &FormSearchDirectoryResult{
		Files:       matched,
		TotalCount:  len(matched),
		Directory:   absDirectory,
		SearchQuery: req.Query,
	}, nil
}

// FindPDFsLimited lists at most limit valid PDFs and stops early when ctx
// is done. A limit of zero means no limit.
func (s *Search) FindPDFsLimited(ctx context.Context, directory string, limit int) ([]FileInfo, error) {
	return s.walk(ctx, directory, limit, true)
}

func (s *Search) walk(ctx context.Context, directory string, limit int, validate bool) ([]FileInfo, error) {
	if directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}

	info, err := os.Stat(directory)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", directory)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", directory)
	}

	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	pdfFiles := []FileInfo{}
	err = filepath.WalkDir(absDirectory, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return nil // unreadable entries are skipped
		}

		if d.IsDir() {
			if path == absDirectory {
				return nil
			}
			if !s.recursive || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if limit > 0 && len(pdfFiles) >= limit {
			return filepath.SkipAll
		}

		if !isPDFFile(d.Name()) {
			return nil
		}

		withinDir, err := s.isPathWithinDirectory(path, absDirectory)
		if err != nil || !withinDir {
			return nil
		}

		fi, err := os.Stat(path)
		if err != nil || fi.IsDir() {
			return nil //nolint:nilerr // broken links are skipped
		}

		if validate {
			if err := s.validator.ValidateFileInfo(path, fi); err != nil {
				return nil //nolint:nilerr // invalid files are left out of listings
			}
		}

		pdfFiles = append(pdfFiles, FileInfo{
			Path:         path,
			Name:         fi.Name(),
			Size:         fi.Size(),
			ModifiedTime: fi.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	sort.Slice(pdfFiles, func(i, j int) bool { return pdfFiles[i].Path < pdfFiles[j].Path })
	return pdfFiles, nil
}

// matchesQuery performs fuzzy matching on the filename. query must already
// be lower case.
func (s *Search) matchesQuery(filename, query string) bool {
	if query == "" {
		return true
	}

	fileName := strings.ToLower(filename)
	if strings.Contains(fileName, query) {
		return true
	}

	nameWithoutExt := strings.TrimSuffix(fileName, ".pdf")
	words := splitIntoWords(nameWithoutExt)

	// every query word must appear inside some filename word
	for _, queryWord := range splitIntoWords(query) {
		found := false
		for _, word := range words {
			if strings.Contains(word, queryWord) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

func splitIntoWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch r {
		case ' ', '_', '-', '.', '(', ')', '[', ']':
			return true
		}
		return false
	})
}
