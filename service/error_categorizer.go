package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ludo-technologies/cilflow/domain"
	"github.com/ludo-technologies/cilflow/internal/flowgraph"
	"github.com/ludo-technologies/cilflow/internal/il"
)

// ErrorCategorizerImpl implements the ErrorCategorizer interface
type ErrorCategorizerImpl struct {
	patterns []categoryPatterns
}

type categoryPatterns struct {
	category domain.ErrorCategory
	patterns []string
}

// NewErrorCategorizer creates a new error categorizer
func NewErrorCategorizer() domain.ErrorCategorizer {
	return &ErrorCategorizerImpl{
		patterns: initializeErrorPatterns(),
	}
}

// initializeErrorPatterns lists message fragments per category, checked in order
func initializeErrorPatterns() []categoryPatterns {
	return []categoryPatterns{
		{domain.ErrorCategoryTimeout, []string{
			"timeout",
			"timed out",
			"deadline",
			"context canceled",
		}},
		{domain.ErrorCategoryConfig, []string{
			"config",
			"toml",
		}},
		{domain.ErrorCategoryMethod, []string{
			"malformed method",
			"invalid method body",
			"region boundary",
			"overlaps",
		}},
		{domain.ErrorCategoryInput, []string{
			"invalid input",
			"no method files",
			"file not found",
			"no such file",
			"cannot access",
			"permission denied",
		}},
		{domain.ErrorCategoryOutput, []string{
			"output",
			"unsupported format",
			"cannot create",
		}},
		{domain.ErrorCategoryProcessing, []string{
			"parse",
			"line ",
			"analysis",
			"failed to build",
		}},
	}
}

// Categorize determines the category of an error. Typed errors are
// recognized first, message patterns are the fallback.
func (ec *ErrorCategorizerImpl) Categorize(err error) *domain.CategorizedError {
	if err == nil {
		return nil
	}

	category := ec.categoryOf(err)
	message := ec.getCategoryMessage(category)
	if category == domain.ErrorCategoryUnknown {
		message = err.Error()
	}

	return &domain.CategorizedError{
		Category: category,
		Message:  message,
		Original: err,
	}
}

func (ec *ErrorCategorizerImpl) categoryOf(err error) domain.ErrorCategory {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domain.ErrorCategoryTimeout
	case errors.Is(err, flowgraph.ErrMalformedMethod), errors.Is(err, il.ErrInvalidMethod):
		return domain.ErrorCategoryMethod
	}

	switch domain.ErrorCode(err) {
	case domain.ErrCodeMalformedMethod:
		return domain.ErrorCategoryMethod
	case domain.ErrCodeConfigError:
		return domain.ErrorCategoryConfig
	case domain.ErrCodeInvalidInput, domain.ErrCodeFileNotFound:
		return domain.ErrorCategoryInput
	case domain.ErrCodeOutputError, domain.ErrCodeUnsupportedFormat:
		return domain.ErrorCategoryOutput
	case domain.ErrCodeParseError:
		return domain.ErrorCategoryProcessing
	}

	errMsg := strings.ToLower(err.Error())
	for _, cp := range ec.patterns {
		if containsAnyPattern(errMsg, cp.patterns) {
			return cp.category
		}
	}
	return domain.ErrorCategoryUnknown
}

// GetRecoverySuggestions returns recovery suggestions for an error category
func (ec *ErrorCategorizerImpl) GetRecoverySuggestions(category domain.ErrorCategory) []string {
	suggestions := map[domain.ErrorCategory][]string{
		domain.ErrorCategoryInput: {
			"Check that the paths exist and contain .il, .yaml, .yml or .json method files",
			"Review the include and exclude patterns in .cilflow.toml",
			"Ensure you have read permissions for the target files",
		},
		domain.ErrorCategoryConfig: {
			"Verify configuration file format and values",
			"Try: cilflow init to generate a valid config file",
		},
		domain.ErrorCategoryMethod: {
			"Check that every try, handler and filter range starts and ends on an instruction",
			"Clauses of mutually protecting trys must be listed innermost first",
			"Run with --verbose to see which clause or offset was rejected",
		},
		domain.ErrorCategoryTimeout: {
			"Analyze fewer files at once or raise performance.timeout_seconds",
		},
		domain.ErrorCategoryOutput: {
			"Check write permissions and the output format",
			"Ensure the output directory is writable",
		},
		domain.ErrorCategoryProcessing: {
			"A method file could not be decoded; the message names the line or field",
		},
		domain.ErrorCategoryUnknown: {
			"Run with --verbose for detailed error information",
		},
	}

	if sug, ok := suggestions[category]; ok {
		return sug
	}
	return []string{"Check the error message for more details"}
}

// getCategoryMessage returns a user-friendly message for an error category
func (ec *ErrorCategorizerImpl) getCategoryMessage(category domain.ErrorCategory) string {
	messages := map[domain.ErrorCategory]string{
		domain.ErrorCategoryInput:      "Failed to process input files or directories",
		domain.ErrorCategoryConfig:     "Configuration file or settings error",
		domain.ErrorCategoryMethod:     "A method body could not be turned into a flow graph",
		domain.ErrorCategoryTimeout:    "Analysis timed out",
		domain.ErrorCategoryOutput:     "Failed to generate or write output",
		domain.ErrorCategoryProcessing: "Error while decoding method files",
	}

	if msg, ok := messages[category]; ok {
		return msg
	}
	return "An unexpected error occurred"
}

// containsAnyPattern checks if a string contains any of the given patterns
func containsAnyPattern(str string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(str, pattern) {
			return true
		}
	}
	return false
}
