package config

import (
	"sync"
	"time"

	"github.com/spf13/pflag"
)

// FlagTracker records which command line flags the user set explicitly,
// so configuration file values are only overridden by those.
type FlagTracker struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewFlagTracker creates a new thread-safe flag tracker
func NewFlagTracker() *FlagTracker {
	return &FlagTracker{
		flags: make(map[string]bool),
	}
}

// NewFlagTrackerFromFlagSet records every flag of fs that was changed on the command line
func NewFlagTrackerFromFlagSet(fs *pflag.FlagSet) *FlagTracker {
	ft := NewFlagTracker()
	if fs == nil {
		return ft
	}
	fs.Visit(func(f *pflag.Flag) {
		ft.flags[f.Name] = true
	})
	return ft
}

// Set marks a flag as explicitly set
func (ft *FlagTracker) Set(flagName string) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.flags[flagName] = true
}

// WasSet checks if a flag was explicitly set. A nil tracker reports false.
func (ft *FlagTracker) WasSet(flagName string) bool {
	if ft == nil {
		return false
	}
	ft.mu.RLock()
	defer ft.mu.RUnlock()
	return ft.flags[flagName]
}

// Count returns the number of explicitly set flags
func (ft *FlagTracker) Count() int {
	ft.mu.RLock()
	defer ft.mu.RUnlock()
	return len(ft.flags)
}

// MergeString returns override when flagName was set, base otherwise
func (ft *FlagTracker) MergeString(base, override, flagName string) string {
	if ft.WasSet(flagName) {
		return override
	}
	return base
}

// MergeInt returns override when flagName was set, base otherwise
func (ft *FlagTracker) MergeInt(base, override int, flagName string) int {
	if ft.WasSet(flagName) {
		return override
	}
	return base
}

// MergeBool merges optional booleans. An explicitly set flag wins; otherwise
// the base value is kept unless it is nil.
func (ft *FlagTracker) MergeBool(base, override *bool, flagName string) *bool {
	if ft.WasSet(flagName) || base == nil {
		return override
	}
	return base
}

// MergeDuration returns override when flagName was set, base otherwise
func (ft *FlagTracker) MergeDuration(base, override time.Duration, flagName string) time.Duration {
	if ft.WasSet(flagName) {
		return override
	}
	return base
}

// MergeStringSlice returns a non-empty override when flagName was set, base otherwise
func (ft *FlagTracker) MergeStringSlice(base, override []string, flagName string) []string {
	if ft.WasSet(flagName) && len(override) > 0 {
		return override
	}
	return base
}
