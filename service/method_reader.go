package service

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ludo-technologies/cilflow/domain"
	"github.com/ludo-technologies/cilflow/internal/il"
)

// MethodReaderImpl implements the MethodReader interface
type MethodReaderImpl struct{}

// NewMethodReader creates a new method reader service
func NewMethodReader() *MethodReaderImpl {
	return &MethodReaderImpl{}
}

// CollectMethodFiles finds all method files in the given paths. Explicitly
// named files are only filtered by the exclude patterns.
func (r *MethodReaderImpl) CollectMethodFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	add := func(path string) {
		clean := filepath.Clean(path)
		if !seen[clean] {
			seen[clean] = true
			files = append(files, clean)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, domain.NewFileNotFoundError(path, err)
		}

		if info.IsDir() {
			dirFiles, err := r.collectFromDirectory(path, recursive, includePatterns, excludePatterns)
			if err != nil {
				return nil, err
			}
			for _, f := range dirFiles {
				add(f)
			}
		} else if r.IsMethodFile(path) && !matchesAny(excludePatterns, path) {
			add(path)
		}
	}

	return files, nil
}

// ReadMethods decodes every method body in path
func (r *MethodReaderImpl) ReadMethods(path string) ([]*il.MethodBody, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewFileNotFoundError(path, err)
	}

	var bodies []*il.MethodBody
	switch strings.ToLower(filepath.Ext(path)) {
	case ".il":
		bodies, err = il.ParseAssembly(bytes.NewReader(content))
	case ".yaml", ".yml":
		bodies, err = il.DecodeYAML(content)
	case ".json":
		bodies, err = il.DecodeJSON(content)
	default:
		return nil, domain.NewInvalidInputError(fmt.Sprintf("not a method file: %s", path), nil)
	}
	if err != nil {
		return nil, domain.NewParseError(path, err)
	}

	return bodies, nil
}

// IsMethodFile checks the extension of path
func (r *MethodReaderImpl) IsMethodFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".il", ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// FileExists checks if a file exists
func (r *MethodReaderImpl) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// collectFromDirectory collects method files from a directory
func (r *MethodReaderImpl) collectFromDirectory(dirPath string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	walkFunc := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped, the rest of the tree is still walked
			return nil
		}

		if path == dirPath {
			return nil
		}

		// Skip hidden directories and files
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if !recursive || r.shouldSkipDirectory(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(dirPath, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if r.IsMethodFile(path) && r.shouldIncludeFile(rel, includePatterns, excludePatterns) {
			files = append(files, path)
		}
		return nil
	}

	if err := filepath.WalkDir(dirPath, walkFunc); err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dirPath, err)
	}

	return files, nil
}

// shouldIncludeFile matches a slash separated path relative to the walked
// directory against the include and exclude patterns
func (r *MethodReaderImpl) shouldIncludeFile(rel string, includePatterns, excludePatterns []string) bool {
	if matchesAny(excludePatterns, rel) {
		return false
	}

	// If no include patterns specified, include by default
	if len(includePatterns) == 0 {
		return true
	}

	return matchesAny(includePatterns, rel)
}

// matchesAny checks a path and its base name against doublestar patterns
func matchesAny(patterns []string, path string) bool {
	path = filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// shouldSkipDirectory checks if a directory should be skipped entirely
func (r *MethodReaderImpl) shouldSkipDirectory(dirName string) bool {
	switch strings.ToLower(dirName) {
	case "bin", "obj", "node_modules", "packages", "testresults":
		return true
	}
	return false
}

// ValidatePaths validates that all provided paths exist and are accessible
func (r *MethodReaderImpl) ValidatePaths(paths []string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return domain.NewFileNotFoundError(path, err)
			}
			return domain.NewInvalidInputError(fmt.Sprintf("cannot access path: %s", path), err)
		}
	}
	return nil
}
