package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/cilflow/domain"
	"github.com/ludo-technologies/cilflow/internal/il"
)

func newFlowGraphRequest(paths ...string) domain.FlowGraphRequest {
	req := *domain.DefaultFlowGraphRequest()
	req.Paths = paths
	return req
}

func TestFlowGraphService_Build(t *testing.T) {
	dir := t.TempDir()
	a := writeFixture(t, dir, "a.il", branchy+throwing)
	b := writeFixture(t, dir, "b.il", guarded)

	svc := NewFlowGraphService(NewMethodReader(), quietLogger())
	resp, err := svc.Build(context.Background(), newFlowGraphRequest(b, a))
	require.NoError(t, err)

	require.Len(t, resp.Methods, 3)
	assert.Equal(t, "Branchy", resp.Methods[0].Name)
	assert.Equal(t, "Throwing", resp.Methods[1].Name)
	assert.Equal(t, "Guarded", resp.Methods[2].Name)
	assert.Equal(t, a, resp.Methods[0].FilePath)

	assert.Equal(t, 2, resp.Summary.TotalFiles)
	assert.Equal(t, 3, resp.Summary.TotalMethods)
	assert.Zero(t, resp.Summary.FailedMethods)
	assert.Empty(t, resp.Errors)
	assert.NotEmpty(t, resp.GeneratedAt)

	branch := resp.Methods[0]
	assert.Equal(t, 3, branch.Stats.Blocks)
	assert.Equal(t, 2, branch.Stats.Edges)
	assert.Equal(t, 1, branch.Stats.EdgesByKind["taken"])
	assert.Equal(t, 1, branch.Stats.EdgesByKind["untaken"])
	assert.Zero(t, branch.Stats.Loops)
	assert.Empty(t, branch.Regions)
	assert.Equal(t, 0, branch.Blocks[0].StartOffset)
	assert.Equal(t, 1, branch.Blocks[0].EndOffset)

	require.Len(t, branch.Blocks, 3)
	assert.Empty(t, branch.Blocks[0].ImmediateDominator)
	assert.Equal(t, "B0", branch.Blocks[1].ImmediateDominator)
	assert.Equal(t, "B0", branch.Blocks[2].ImmediateDominator)
}

func TestFlowGraphService_BuildWithRegions(t *testing.T) {
	body := parseOne(t, guarded)

	svc := NewFlowGraphService(NewMethodReader(), quietLogger())
	mg, err := svc.BuildMethod(context.Background(), body, newFlowGraphRequest("unused"))
	require.NoError(t, err)

	require.Len(t, mg.Regions, 4)
	kinds := map[string]int{}
	for _, r := range mg.Regions {
		kinds[r.Kind]++
		assert.NotEmpty(t, r.FirstBlock)
		if r.Kind == "catch" {
			assert.Equal(t, "System.Exception", r.CatchType)
		}
	}
	assert.Equal(t, map[string]int{"try": 2, "catch": 1, "finally": 1}, kinds)

	assert.Positive(t, mg.Stats.ExceptionEdges)
	assert.Positive(t, mg.Stats.LeaveEdges)
	assert.Positive(t, mg.Stats.HandlerBlocks)
	assert.Positive(t, mg.Stats.ExceptionScenarios["raise"])

	var sawLeave bool
	for _, e := range mg.Edges {
		if e.Kind == "exception" {
			assert.NotEmpty(t, e.ExceptionKinds)
		}
		if e.LeaveBlock != "" {
			sawLeave = true
		}
	}
	assert.True(t, sawLeave)
}

func TestFlowGraphService_HideExceptionEdges(t *testing.T) {
	body := parseOne(t, guarded)
	req := newFlowGraphRequest("unused")
	req.ShowExceptionEdges = domain.BoolPtr(false)
	req.ShowInstructions = domain.BoolPtr(true)

	svc := NewFlowGraphService(NewMethodReader(), quietLogger())
	mg, err := svc.BuildMethod(context.Background(), body, req)
	require.NoError(t, err)

	for _, e := range mg.Edges {
		assert.NotEqual(t, "exception", e.Kind)
	}
	// The catch is only entered by raising; the finally is entered by the leave.
	for _, b := range mg.Blocks {
		switch b.StartOffset {
		case 2:
			assert.Empty(t, b.ImmediateDominator, b.ID)
		case 4:
			assert.NotEmpty(t, b.ImmediateDominator, b.ID)
		}
	}
	// Stats still describe the whole graph.
	assert.Positive(t, mg.Stats.ExceptionEdges)
	for _, b := range mg.Blocks {
		assert.NotEmpty(t, b.Instructions)
	}
}

func TestFlowGraphService_MalformedMethod(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "mixed.il", branchy+broken)

	svc := NewFlowGraphService(NewMethodReader(), quietLogger())
	resp, err := svc.Build(context.Background(), newFlowGraphRequest(path))
	require.NoError(t, err)

	require.Len(t, resp.Methods, 1)
	assert.Equal(t, 2, resp.Summary.TotalMethods)
	assert.Equal(t, 1, resp.Summary.FailedMethods)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "Broken")

	_, err = svc.BuildMethod(context.Background(), parseOne(t, broken), newFlowGraphRequest("unused"))
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeMalformedMethod, domain.ErrorCode(err))
}

func TestFlowGraphService_MethodFilter(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "a.il", branchy+throwing)

	req := newFlowGraphRequest(path)
	req.MethodFilter = "Thr*"

	svc := NewFlowGraphService(NewMethodReader(), quietLogger())
	resp, err := svc.Build(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Methods, 1)
	assert.Equal(t, "Throwing", resp.Methods[0].Name)
	assert.Equal(t, 1, resp.Summary.TotalMethods)
}

func TestFlowGraphService_UnreadableFile(t *testing.T) {
	dir := t.TempDir()
	good := writeFixture(t, dir, "good.il", branchy)
	bad := writeFixture(t, dir, "bad.il", "IL_0000: ret\n")

	svc := NewFlowGraphService(NewMethodReader(), quietLogger())
	resp, err := svc.Build(context.Background(), newFlowGraphRequest(good, bad))
	require.NoError(t, err)
	assert.Len(t, resp.Methods, 1)
	assert.Len(t, resp.Errors, 1)
	// An unreadable file is an error but not a failed method.
	assert.Zero(t, resp.Summary.FailedMethods)
	assert.Equal(t, 2, resp.Summary.TotalFiles)
}

func TestFlowGraphService_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewFlowGraphService(NewMethodReader(), quietLogger())
	_, err := svc.BuildMethod(ctx, parseOne(t, branchy), newFlowGraphRequest("unused"))
	assert.ErrorIs(t, err, context.Canceled)
}

func parseOne(t *testing.T, src string) *il.MethodBody {
	t.Helper()
	methods, err := il.ParseAssembly(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, methods, 1)
	return methods[0]
}
