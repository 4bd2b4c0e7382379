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

// ReachabilityServiceImpl implements the ReachabilityService interface
type ReachabilityServiceImpl struct {
	reader   domain.MethodReader
	log      zerolog.Logger
	progress domain.ProgressManager
}

// NewReachabilityService creates a new reachability service
func NewReachabilityService(reader domain.MethodReader, logger zerolog.Logger) *ReachabilityServiceImpl {
	return &ReachabilityServiceImpl{
		reader: reader,
		log:    logger,
	}
}

// SetProgressManager attaches a progress display to batch runs
func (s *ReachabilityServiceImpl) SetProgressManager(pm domain.ProgressManager) {
	s.progress = pm
}

// Analyze runs the mark walk over every matching method in req.Paths
func (s *ReachabilityServiceImpl) Analyze(ctx context.Context, req domain.ReachabilityRequest) (*domain.ReachabilityResponse, error) {
	type located struct {
		path   string
		index  int
		result domain.MethodReachability
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
		mr, err := s.analyze(body, req)
		if err != nil {
			return domain.NewMalformedMethodError(path+":"+body.Name, err)
		}
		mr.FilePath = path

		mu.Lock()
		results = append(results, located{path: path, index: index, result: *mr})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reachability analysis failed: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].path != results[j].path {
			return results[i].path < results[j].path
		}
		return results[i].index < results[j].index
	})

	all := make([]domain.MethodReachability, 0, len(results))
	for _, r := range results {
		all = append(all, r.result)
	}
	summary := s.summarize(all, outcome)

	methods := all
	if domain.BoolValue(req.ReportUnmarkedOnly, domain.DefaultReportUnmarkedOnly) {
		methods = make([]domain.MethodReachability, 0, summary.MethodsWithUnmarked)
		for _, m := range all {
			if m.UnmarkedBlocks > 0 {
				methods = append(methods, m)
			}
		}
	}

	warnings := outcome.warnings
	if outcome.methods == 0 {
		warnings = append(warnings, "No methods found to analyze")
	}

	return &domain.ReachabilityResponse{
		Methods:     methods,
		Summary:     summary,
		Warnings:    warnings,
		Errors:      errorStrings(outcome.failures),
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Short(),
		Config:      s.buildConfigForResponse(req),
	}, nil
}

// AnalyzeMethod runs the mark walk over a single method
func (s *ReachabilityServiceImpl) AnalyzeMethod(ctx context.Context, body *il.MethodBody, req domain.ReachabilityRequest) (*domain.MethodReachability, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, domain.NewInvalidInputError("method body is required", nil)
	}
	mr, err := s.analyze(body, req)
	if err != nil {
		return nil, domain.NewMalformedMethodError(body.Name, err)
	}
	return mr, nil
}

func (s *ReachabilityServiceImpl) analyze(body *il.MethodBody, req domain.ReachabilityRequest) (*domain.MethodReachability, error) {
	g, err := flowgraph.New(body, flowgraph.WithLogger(s.log))
	if err != nil {
		return nil, err
	}

	ra := analyzer.NewReachabilityAnalyzer(g, analyzer.ReachabilityOptions{
		FollowExceptionEdges: domain.BoolValue(req.FollowExceptionEdges, domain.DefaultFollowExceptionEdges),
	})
	result := ra.AnalyzeReachability()

	s.log.Debug().
		Str("method", body.Name).
		Int("marked", result.MarkedCount).
		Int("unmarked", result.UnmarkedCount).
		Dur("elapsed", result.AnalysisTime).
		Msg("reachability computed")

	return &domain.MethodReachability{
		Name:           body.Name,
		TotalBlocks:    result.TotalBlocks,
		MarkedBlocks:   result.MarkedCount,
		UnmarkedBlocks: result.UnmarkedCount,
		MarkedRatio:    result.GetMarkedRatio(),
		MarkedOffsets:  analyzer.SortedOffsets(result.MarkedBlocks),
		Unmarked:       unmarkedRanges(g, result),
	}, nil
}

// unmarkedRanges groups lexically adjacent unmarked blocks
func unmarkedRanges(g *flowgraph.Graph, result *analyzer.ReachabilityResult) []domain.UnmarkedRange {
	if !result.HasUnmarkedCode() {
		return nil
	}

	var (
		ranges []domain.UnmarkedRange
		cur    *domain.UnmarkedRange
	)
	for b := range g.Blocks() {
		if _, unmarked := result.UnmarkedBlocks[b.ID()]; !unmarked {
			cur = nil
			continue
		}
		if cur == nil {
			ranges = append(ranges, domain.UnmarkedRange{StartOffset: b.FirstInstruction().Offset})
			cur = &ranges[len(ranges)-1]
		}
		cur.EndOffset = b.LastInstruction().Offset
		cur.Blocks = append(cur.Blocks, b.ID().String())
		for _, ins := range b.Instructions() {
			cur.Instructions = append(cur.Instructions, ins.String())
		}
	}
	return ranges
}

func (s *ReachabilityServiceImpl) summarize(methods []domain.MethodReachability, outcome *batchOutcome) domain.ReachabilitySummary {
	sum := domain.ReachabilitySummary{
		TotalFiles:         outcome.files,
		TotalMethods:       outcome.methods,
		FailedMethods:      outcome.failedMethods,
		OverallMarkedRatio: 1.0,
	}
	for _, m := range methods {
		sum.TotalBlocks += m.TotalBlocks
		sum.UnmarkedBlocks += m.UnmarkedBlocks
		if m.UnmarkedBlocks > 0 {
			sum.MethodsWithUnmarked++
		}
	}
	if sum.TotalBlocks > 0 {
		sum.OverallMarkedRatio = float64(sum.TotalBlocks-sum.UnmarkedBlocks) / float64(sum.TotalBlocks)
	}
	return sum
}

func (s *ReachabilityServiceImpl) buildConfigForResponse(req domain.ReachabilityRequest) map[string]interface{} {
	return map[string]interface{}{
		"follow_exception_edges": domain.BoolValue(req.FollowExceptionEdges, domain.DefaultFollowExceptionEdges),
		"report_unmarked_only":   domain.BoolValue(req.ReportUnmarkedOnly, domain.DefaultReportUnmarkedOnly),
		"method_filter":          req.MethodFilter,
		"max_goroutines":         req.MaxGoroutines,
	}
}
