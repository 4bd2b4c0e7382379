package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ludo-technologies/cilflow/domain"
	"github.com/ludo-technologies/cilflow/internal/analyzer"
	"github.com/ludo-technologies/cilflow/internal/flowgraph"
	"github.com/ludo-technologies/cilflow/internal/il"
	"github.com/ludo-technologies/cilflow/internal/version"
)

// FlowGraphServiceImpl implements the FlowGraphService interface
type FlowGraphServiceImpl struct {
	reader   domain.MethodReader
	log      zerolog.Logger
	progress domain.ProgressManager
}

// NewFlowGraphService creates a new flow graph service
func NewFlowGraphService(reader domain.MethodReader, logger zerolog.Logger) *FlowGraphServiceImpl {
	return &FlowGraphServiceImpl{
		reader: reader,
		log:    logger,
	}
}

// SetProgressManager attaches a progress display to batch builds
func (s *FlowGraphServiceImpl) SetProgressManager(pm domain.ProgressManager) {
	s.progress = pm
}

// Build builds the flow graph of every matching method in req.Paths
func (s *FlowGraphServiceImpl) Build(ctx context.Context, req domain.FlowGraphRequest) (*domain.FlowGraphResponse, error) {
	type located struct {
		path  string
		index int
		graph domain.MethodFlowGraph
	}

	var (
		mu      sync.Mutex
		results []located
	)

	batch := &methodBatch{
		reader:        s.reader,
		progress:      s.progress,
		log:           s.log,
		maxGoroutines: req.MaxGoroutines,
		timeout:       req.Timeout,
		filter:        req.MatchesMethod,
	}

	outcome, err := batch.run(ctx, req.Paths, func(ctx context.Context, path string, index int, body *il.MethodBody) error {
		mg, err := s.render(body, req)
		if err != nil {
			return domain.NewMalformedMethodError(path+":"+body.Name, err)
		}
		mg.FilePath = path

		mu.Lock()
		results = append(results, located{path: path, index: index, graph: *mg})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("flow graph build failed: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].path != results[j].path {
			return results[i].path < results[j].path
		}
		return results[i].index < results[j].index
	})

	methods := make([]domain.MethodFlowGraph, 0, len(results))
	for _, r := range results {
		methods = append(methods, r.graph)
	}

	warnings := outcome.warnings
	if outcome.methods == 0 {
		warnings = append(warnings, "No methods found to build")
	}

	return &domain.FlowGraphResponse{
		Methods:     methods,
		Summary:     s.summarize(methods, outcome),
		Warnings:    warnings,
		Errors:      errorStrings(outcome.failures),
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Short(),
		Config:      s.buildConfigForResponse(req),
	}, nil
}

// BuildMethod builds the flow graph of a single method
func (s *FlowGraphServiceImpl) BuildMethod(ctx context.Context, body *il.MethodBody, req domain.FlowGraphRequest) (*domain.MethodFlowGraph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, domain.NewInvalidInputError("method body is required", nil)
	}
	mg, err := s.render(body, req)
	if err != nil {
		return nil, domain.NewMalformedMethodError(body.Name, err)
	}
	return mg, nil
}

func (s *FlowGraphServiceImpl) render(body *il.MethodBody, req domain.FlowGraphRequest) (*domain.MethodFlowGraph, error) {
	g, err := flowgraph.New(body, flowgraph.WithLogger(s.log))
	if err != nil {
		return nil, err
	}

	showExceptions := domain.BoolValue(req.ShowExceptionEdges, domain.DefaultShowExceptionEdges)
	showInstructions := domain.BoolValue(req.ShowInstructions, false)

	mg := &domain.MethodFlowGraph{
		Name:    body.Name,
		Blocks:  []domain.BlockInfo{},
		Edges:   []domain.EdgeInfo{},
		Regions: []domain.RegionInfo{},
	}

	dom := analyzer.NewDominatorTree(g)
	for b := range g.Blocks() {
		info := blockInfo(b, showInstructions)
		if idom, ok := dom.ImmediateDominator(b); ok {
			info.ImmediateDominator = idom.ID().String()
		}
		mg.Blocks = append(mg.Blocks, info)
	}

	for e := range g.Edges() {
		info := domain.EdgeInfo{
			ID:   e.ID().String(),
			Kind: e.Kind().String(),
			From: e.Predecessor().ID().String(),
			To:   e.Successor().ID().String(),
		}
		if x, ok := e.AsException(); ok {
			if !showExceptions {
				continue
			}
			info.ExceptionKinds = x.Kinds().Names()
		}
		if l, ok := e.AsLeave(); ok {
			info.LeaveBlock = l.LeaveBlock().ID().String()
		}
		mg.Edges = append(mg.Edges, info)
	}

	for r := range g.Regions() {
		mg.Regions = append(mg.Regions, regionInfo(r))
	}

	mg.Stats = graphStats(analyzer.Summarize(g))
	return mg, nil
}

func blockInfo(b flowgraph.Block, withInstructions bool) domain.BlockInfo {
	info := domain.BlockInfo{
		ID:          b.ID().String(),
		StartOffset: b.FirstInstruction().Offset,
		EndOffset:   b.LastInstruction().Offset,
	}
	if r, ok := b.Region(); ok {
		info.Region = r.ID().String()
	}
	if h, ok := b.AsHandler(); ok {
		info.Handler = true
		info.HandlerRegion = h.HandlerRegion().ID().String()
	}
	if withInstructions {
		for _, ins := range b.Instructions() {
			info.Instructions = append(info.Instructions, ins.String())
		}
	}
	return info
}

func regionInfo(r flowgraph.Region) domain.RegionInfo {
	info := domain.RegionInfo{
		ID:          r.ID().String(),
		Kind:        r.Kind().String(),
		Clause:      r.ClauseIndex(),
		StartOffset: r.StartOffset(),
		FirstBlock:  r.FirstBlock().ID().String(),
	}
	if end := r.EndOffset(); end == il.EndOfMethod {
		info.Unbounded = true
	} else {
		info.EndOffset = end
	}
	if p, ok := r.Parent(); ok {
		info.Parent = p.ID().String()
	}
	if c, ok := r.Clause(); ok && r.Kind() == flowgraph.Catch {
		info.CatchType = c.CatchType
	}
	return info
}

func graphStats(sum *analyzer.GraphSummary) domain.FlowGraphStats {
	stats := domain.FlowGraphStats{
		Blocks:             sum.Blocks,
		HandlerBlocks:      sum.HandlerBlocks,
		Regions:            sum.Regions,
		Loops:              sum.Loops,
		EdgesByKind:        make(map[string]int, len(sum.EdgesByKind)),
		ExceptionScenarios: make(map[string]int, len(sum.ExceptionScenarios)),
	}
	for kind, n := range sum.EdgesByKind {
		stats.EdgesByKind[kind.String()] = n
		stats.Edges += n
		switch {
		case kind == flowgraph.Exception:
			stats.ExceptionEdges += n
		case kind.IsLeave():
			stats.LeaveEdges += n
		}
	}
	for bit, n := range sum.ExceptionScenarios {
		stats.ExceptionScenarios[bit.String()] = n
	}
	return stats
}

func (s *FlowGraphServiceImpl) summarize(methods []domain.MethodFlowGraph, outcome *batchOutcome) domain.FlowGraphSummary {
	sum := domain.FlowGraphSummary{
		TotalFiles:    outcome.files,
		TotalMethods:  outcome.methods,
		FailedMethods: outcome.failedMethods,
	}
	for _, m := range methods {
		sum.TotalBlocks += m.Stats.Blocks
		sum.TotalEdges += m.Stats.Edges
		sum.TotalRegions += m.Stats.Regions
	}
	return sum
}

// buildConfigForResponse echoes the effective settings of a run
func (s *FlowGraphServiceImpl) buildConfigForResponse(req domain.FlowGraphRequest) map[string]interface{} {
	return map[string]interface{}{
		"show_exception_edges": domain.BoolValue(req.ShowExceptionEdges, domain.DefaultShowExceptionEdges),
		"show_instructions":    domain.BoolValue(req.ShowInstructions, false),
		"method_filter":        req.MethodFilter,
		"max_goroutines":       req.MaxGoroutines,
	}
}
