package pdf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// yearPatterns are tried in order; the first match decides the year of a file
var yearPatterns = []*regexp.Regexp{
	regexp.MustCompile(`_(\d{4})_budget\.pdf$`),
	regexp.MustCompile(`_(\d{4})\.pdf$`),
	regexp.MustCompile(`(\d{4})_budget\.pdf$`),
	regexp.MustCompile(`(\d{4})`),
}

// Search handles PDF search and discovery operations
type Search struct {
	maxFileSize int64
	validator   *Validator
}

// NewSearch creates a new PDF search handler with the specified constraints
func NewSearch(maxFileSize int64) *Search {
	return &Search{
		maxFileSize: maxFileSize,
		validator:   NewValidator(maxFileSize),
	}
}

// YearFromFilename extracts the document year from a file name, returning 0 when none is found
func YearFromFilename(filename string) int {
	name := filepath.Base(filename)
	for _, p := range yearPatterns {
		m := p.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		year, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return year
	}
	return 0
}

// InYearRange reports whether year lies in [start, end]; zero bounds are open.
// Files without a year only match a fully open range.
func InYearRange(year, start, end int) bool {
	if start == 0 && end == 0 {
		return true
	}
	if year == 0 {
		return false
	}
	if start != 0 && year < start {
		return false
	}
	if end != 0 && year > end {
		return false
	}
	return true
}

// SearchDirectory lists the PDFs under req.Directory that pass validation
// and match the request's query and year range, ordered by path.
// Hidden subdirectories are not descended into.
func (s *Search) SearchDirectory(req PDFSearchDirectoryRequest) (*PDFSearchDirectoryResult, error) {
	if req.Directory == "" {
		return nil, errors.New("directory cannot be empty")
	}
	if _, err := os.Stat(req.Directory); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("directory does not exist: %s", req.Directory)
	}

	root, err := filepath.Abs(req.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(req.Query))
	files := []FileInfo{}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			// unreadable entries are skipped, not fatal
			return nil //nolint:nilerr
		case d.IsDir():
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if f, ok := s.match(path, d, query, req.StartYear, req.EndYear); ok {
			files = append(files, f)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("error walking directory: %w", walkErr)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return &PDFSearchDirectoryResult{
		Files:       files,
		TotalCount:  len(files),
		Directory:   root,
		SearchQuery: req.Query,
		StartYear:   req.StartYear,
		EndYear:     req.EndYear,
	}, nil
}

func (s *Search) match(path string, d fs.DirEntry, query string, startYear, endYear int) (FileInfo, bool) {
	if !isPDFFile(d.Name()) || !matchesQuery(d.Name(), query) {
		return FileInfo{}, false
	}
	year := YearFromFilename(d.Name())
	if !InYearRange(year, startYear, endYear) {
		return FileInfo{}, false
	}

	info, err := d.Info()
	if err != nil || s.validator.ValidateFileInfo(path, info) != nil {
		return FileInfo{}, false
	}

	return FileInfo{
		Path:         path,
		Name:         info.Name(),
		Size:         info.Size(),
		ModifiedTime: info.ModTime().Format(time.DateTime),
		Year:         year,
	}, true
}

// matchesQuery reports whether the lower case query is a substring of
// filename or every query word is contained in some word of its stem
func matchesQuery(filename, query string) bool {
	name := strings.ToLower(filename)
	if strings.Contains(name, query) {
		return true
	}

	words := splitIntoWords(strings.TrimSuffix(name, ".pdf"))
	return !slices.ContainsFunc(splitIntoWords(query), func(q string) bool {
		return !slices.ContainsFunc(words, func(w string) bool { return strings.Contains(w, q) })
	})
}

// splitIntoWords splits a string into lower case words using common separators
func splitIntoWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch r {
		case ' ', '_', '-', '.', '(', ')', '[', ']':
			return true
		}
		return false
	})
}
