package domain

import "time"

// Method file discovery defaults.
var (
	// DefaultIncludePatterns matches every supported method file extension
	DefaultIncludePatterns = []string{"**/*.il", "**/*.yaml", "**/*.yml", "**/*.json"}

	// DefaultExcludePatterns skips configuration files that share an extension
	// with method documents
	DefaultExcludePatterns = []string{"**/.cilflow.*", "**/cilflow.yaml", "**/cilflow.yml"}
)

// Performance defaults shared by the graph and reachability services.
const (
	// DefaultMaxGoroutines bounds the number of files processed concurrently.
	// Zero means one goroutine per file.
	DefaultMaxGoroutines = 8

	// DefaultTimeoutSeconds is the wall-clock budget for a whole batch
	DefaultTimeoutSeconds = 300
)

// DefaultTimeout is DefaultTimeoutSeconds as a duration
const DefaultTimeout = DefaultTimeoutSeconds * time.Second

// Output defaults.
const (
	DefaultOutputFormat       = OutputFormatText
	DefaultShowExceptionEdges = true
	DefaultColor              = true
)

// Reachability defaults.
const (
	// DefaultFollowExceptionEdges keeps the walk on non-exceptional paths
	DefaultFollowExceptionEdges = false

	// DefaultReportUnmarkedOnly hides methods where every block reaches an exit
	DefaultReportUnmarkedOnly = false
)
