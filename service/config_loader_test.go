package service

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/cilflow/domain"
	"github.com/ludo-technologies/cilflow/internal/config"
)

const projectConfig = `
[input]
exclude_patterns = ["**/generated/**"]

[output]
format = "json"
directory = "reports"
color = false

[graph]
show_exception_edges = false
method_filter = "Program.*"

[reachability]
follow_exception_edges = true

[performance]
max_goroutines = 2
timeout_seconds = 30
`

func trackerWith(flags ...string) *config.FlagTracker {
	ft := config.NewFlagTracker()
	for _, f := range flags {
		ft.Set(f)
	}
	return ft
}

func TestFlowGraphConfigurationLoader_LoadConfig(t *testing.T) {
	path := writeFixture(t, t.TempDir(), ".cilflow.toml", projectConfig)

	req, err := NewFlowGraphConfigurationLoader(nil).LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, domain.OutputFormatJSON, req.OutputFormat)
	assert.Equal(t, filepath.Join("reports", "graph.json"), req.OutputPath)
	assert.False(t, *req.ShowExceptionEdges)
	assert.False(t, *req.Color)
	assert.Equal(t, "Program.*", req.MethodFilter)
	assert.Equal(t, []string{"**/generated/**"}, req.ExcludePatterns)
	assert.Equal(t, domain.DefaultIncludePatterns, req.IncludePatterns)
	assert.Equal(t, 2, req.MaxGoroutines)
	assert.Equal(t, 30*time.Second, req.Timeout)
}

func TestFlowGraphConfigurationLoader_MissingFile(t *testing.T) {
	_, err := NewFlowGraphConfigurationLoader(nil).LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestFlowGraphConfigurationLoader_MergeConfig(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "cilflow.toml", projectConfig)

	var out bytes.Buffer
	cli := domain.DefaultFlowGraphRequest()
	cli.Paths = []string{"src"}
	cli.OutputWriter = &out
	cli.OutputFormat = domain.OutputFormatDOT
	cli.ShowExceptionEdges = domain.BoolPtr(true)
	cli.MethodFilter = ""
	cli.MaxGoroutines = 16

	t.Run("unset flags keep config values", func(t *testing.T) {
		loader := NewFlowGraphConfigurationLoader(trackerWith())
		base, err := loader.LoadConfig(path)
		require.NoError(t, err)

		merged := loader.MergeConfig(base, cli)
		assert.Equal(t, []string{"src"}, merged.Paths)
		assert.Same(t, &out, merged.OutputWriter)
		assert.Equal(t, domain.OutputFormatJSON, merged.OutputFormat)
		assert.False(t, *merged.ShowExceptionEdges)
		assert.Equal(t, "Program.*", merged.MethodFilter)
		assert.Equal(t, 2, merged.MaxGoroutines)
	})

	t.Run("explicit flags win", func(t *testing.T) {
		loader := NewFlowGraphConfigurationLoader(trackerWith("format", "exception-edges", "method", "jobs"))
		base, err := loader.LoadConfig(path)
		require.NoError(t, err)

		merged := loader.MergeConfig(base, cli)
		assert.Equal(t, domain.OutputFormatDOT, merged.OutputFormat)
		assert.Equal(t, filepath.Join("reports", "graph.dot"), merged.OutputPath)
		assert.True(t, *merged.ShowExceptionEdges)
		assert.Empty(t, merged.MethodFilter)
		assert.Equal(t, 16, merged.MaxGoroutines)
	})

	t.Run("explicit output replaces directory", func(t *testing.T) {
		loader := NewFlowGraphConfigurationLoader(trackerWith("output"))
		base, err := loader.LoadConfig(path)
		require.NoError(t, err)

		override := *cli
		override.OutputPath = ""
		merged := loader.MergeConfig(base, &override)
		assert.Empty(t, merged.OutputPath)
	})

	t.Run("nil sides", func(t *testing.T) {
		loader := NewFlowGraphConfigurationLoader(nil)
		assert.Same(t, cli, loader.MergeConfig(nil, cli))
		assert.Same(t, cli, loader.MergeConfig(cli, nil))
	})
}

func TestReachabilityConfigurationLoader(t *testing.T) {
	path := writeFixture(t, t.TempDir(), ".cilflow.yaml", `
output:
  format: csv
reachability:
  report_unmarked_only: true
`)

	loader := NewReachabilityConfigurationLoader(trackerWith("follow-exceptions"))
	base, err := loader.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, domain.OutputFormatCSV, base.OutputFormat)
	assert.True(t, *base.ReportUnmarkedOnly)
	assert.False(t, *base.FollowExceptionEdges)
	assert.Empty(t, base.OutputPath)

	cli := domain.DefaultReachabilityRequest()
	cli.Paths = []string{"a.il"}
	cli.FollowExceptionEdges = domain.BoolPtr(true)
	cli.ReportUnmarkedOnly = domain.BoolPtr(false)

	merged := loader.MergeConfig(base, cli)
	assert.True(t, *merged.FollowExceptionEdges)
	assert.True(t, *merged.ReportUnmarkedOnly)
	assert.Equal(t, domain.OutputFormatCSV, merged.OutputFormat)
	assert.Equal(t, []string{"a.il"}, merged.Paths)
}
