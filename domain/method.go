package domain

import (
	"github.com/ludo-technologies/cilflow/internal/il"
)

// MethodReader discovers method files on disk and decodes them into method bodies
type MethodReader interface {
	// CollectMethodFiles expands paths into the method files they name.
	// Directories are walked (recursively when requested) and filtered
	// through the include and exclude patterns.
	CollectMethodFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error)

	// ReadMethods decodes every method in a file. The decoder is chosen by extension.
	ReadMethods(path string) ([]*il.MethodBody, error)

	// IsMethodFile reports whether the path has a supported extension
	IsMethodFile(path string) bool

	// FileExists checks if a file exists
	FileExists(path string) (bool, error)
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// BoolValue dereferences b, falling back to defaultVal when b is nil
func BoolValue(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}
