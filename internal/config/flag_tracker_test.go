package config

import (
	"sync"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestFlagTracker_Basic(t *testing.T) {
	ft := NewFlagTracker()

	if ft.WasSet("format") {
		t.Error("Expected flag 'format' to not be set initially")
	}

	ft.Set("format")
	if !ft.WasSet("format") {
		t.Error("Expected flag 'format' to be set after Set()")
	}
	if ft.Count() != 1 {
		t.Errorf("Expected count to be 1, got %d", ft.Count())
	}

	var nilTracker *FlagTracker
	if nilTracker.WasSet("format") {
		t.Error("Expected nil tracker to report no flags")
	}
}

func TestFlagTracker_FromFlagSet(t *testing.T) {
	fs := pflag.NewFlagSet("graph", pflag.ContinueOnError)
	fs.String("format", "text", "")
	fs.Bool("exceptions", true, "")
	fs.Int("jobs", 8, "")

	if err := fs.Parse([]string{"--format", "json", "--exceptions=false"}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	ft := NewFlagTrackerFromFlagSet(fs)
	if !ft.WasSet("format") || !ft.WasSet("exceptions") {
		t.Error("Expected changed flags to be tracked")
	}
	if ft.WasSet("jobs") {
		t.Error("Expected untouched flag 'jobs' to not be tracked")
	}
	if NewFlagTrackerFromFlagSet(nil).Count() != 0 {
		t.Error("Expected empty tracker for nil flag set")
	}
}

func TestFlagTracker_Merge(t *testing.T) {
	ft := NewFlagTracker()
	ft.Set("format")
	ft.Set("color")
	ft.Set("timeout")

	if got := ft.MergeString("yaml", "json", "format"); got != "json" {
		t.Errorf("Expected explicit flag to win, got %s", got)
	}
	if got := ft.MergeString("yaml", "json", "other"); got != "yaml" {
		t.Errorf("Expected base value for unset flag, got %s", got)
	}
	if got := ft.MergeInt(4, 8, "jobs"); got != 4 {
		t.Errorf("Expected base value 4, got %d", got)
	}

	no, yes := false, true
	if got := ft.MergeBool(&yes, &no, "color"); got == nil || *got {
		t.Error("Expected explicit color=false to win")
	}
	if got := ft.MergeBool(&yes, &no, "exceptions"); got == nil || !*got {
		t.Error("Expected base value for unset bool flag")
	}
	if got := ft.MergeBool(nil, &no, "exceptions"); got != &no {
		t.Error("Expected override when base is nil")
	}

	if got := ft.MergeDuration(time.Minute, time.Second, "timeout"); got != time.Second {
		t.Errorf("Expected explicit timeout, got %v", got)
	}
	if got := ft.MergeStringSlice([]string{"a"}, nil, "format"); len(got) != 1 {
		t.Errorf("Expected base slice when override is empty, got %v", got)
	}
}

func TestFlagTracker_Concurrent(t *testing.T) {
	ft := NewFlagTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ft.Set("format")
		}()
		go func() {
			defer wg.Done()
			_ = ft.WasSet("format")
		}()
	}
	wg.Wait()

	if ft.Count() != 1 {
		t.Errorf("Expected count 1, got %d", ft.Count())
	}
}
