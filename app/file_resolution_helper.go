package app

import "github.com/ludo-technologies/cilflow/domain"

// ResolveFilePaths resolves method file paths for a batch.
// If every path is already an existing method file, the paths are returned
// unchanged. Otherwise method files are collected from the given paths using
// the include and exclude patterns.
//
// Callers that pre-collect files (the MCP handlers, repeated use case runs)
// skip a second directory walk this way.
func ResolveFilePaths(
	reader domain.MethodReader,
	paths []string,
	recursive bool,
	includePatterns []string,
	excludePatterns []string,
) ([]string, error) {
	allFiles := len(paths) > 0
	for _, path := range paths {
		if !reader.IsMethodFile(path) {
			allFiles = false
			break
		}

		// FileExists returns true only for regular files
		exists, err := reader.FileExists(path)
		if err != nil || !exists {
			allFiles = false
			break
		}
	}

	if allFiles {
		return paths, nil
	}

	return reader.CollectMethodFiles(paths, recursive, includePatterns, excludePatterns)
}
