package app

import (
	"context"
	"fmt"
	"io"

	"github.com/ludo-technologies/cilflow/domain"
	svc "github.com/ludo-technologies/cilflow/service"
)

// ReachabilityUseCase orchestrates the exit reachability workflow
type ReachabilityUseCase struct {
	service      domain.ReachabilityService
	reader       domain.MethodReader
	formatter    domain.ReachabilityFormatter
	configLoader domain.ReachabilityConfigurationLoader
	output       domain.ReportWriter
}

// NewReachabilityUseCase creates a new reachability use case
func NewReachabilityUseCase(
	service domain.ReachabilityService,
	reader domain.MethodReader,
	formatter domain.ReachabilityFormatter,
	configLoader domain.ReachabilityConfigurationLoader,
) *ReachabilityUseCase {
	return &ReachabilityUseCase{
		service:      service,
		reader:       reader,
		formatter:    formatter,
		configLoader: configLoader,
		output:       svc.NewFileOutputWriter(nil),
	}
}

// prepareAnalysis merges configuration, validates the result and expands
// the input paths to method files
func (uc *ReachabilityUseCase) prepareAnalysis(req domain.ReachabilityRequest) (domain.ReachabilityRequest, error) {
	finalReq, err := uc.loadAndMergeConfig(req)
	if err != nil {
		return req, domain.NewConfigError("failed to load configuration", err)
	}

	if err := finalReq.Validate(); err != nil {
		return req, err
	}

	files, err := ResolveFilePaths(
		uc.reader,
		finalReq.Paths,
		finalReq.Recursive,
		finalReq.IncludePatterns,
		finalReq.ExcludePatterns,
	)
	if err != nil {
		return req, domain.NewFileNotFoundError("failed to collect files", err)
	}

	if len(files) == 0 {
		return req, domain.NewInvalidInputError("no method files found in the specified paths", nil)
	}

	finalReq.Paths = files
	return finalReq, nil
}

// Execute runs the analysis and writes the formatted report
func (uc *ReachabilityUseCase) Execute(ctx context.Context, req domain.ReachabilityRequest) error {
	finalReq, err := uc.prepareAnalysis(req)
	if err != nil {
		return err
	}

	response, err := uc.service.Analyze(ctx, finalReq)
	if err != nil {
		return domain.NewAnalysisError("reachability analysis failed", err)
	}

	var out io.Writer
	if finalReq.OutputPath == "" {
		out = finalReq.OutputWriter
	}
	applyColor(uc.formatter, finalReq.Color, finalReq.OutputPath)
	if err := uc.output.Write(out, finalReq.OutputPath, finalReq.OutputFormat, func(w io.Writer) error {
		return uc.formatter.Write(response, finalReq.OutputFormat, w)
	}); err != nil {
		return domain.NewOutputError("failed to write output", err)
	}

	return nil
}

// AnalyzeAndReturn runs the analysis and returns the response without formatting
func (uc *ReachabilityUseCase) AnalyzeAndReturn(ctx context.Context, req domain.ReachabilityRequest) (*domain.ReachabilityResponse, error) {
	finalReq, err := uc.prepareAnalysis(req)
	if err != nil {
		return nil, err
	}

	response, err := uc.service.Analyze(ctx, finalReq)
	if err != nil {
		return nil, domain.NewAnalysisError("reachability analysis failed", err)
	}

	return response, nil
}

// loadAndMergeConfig loads configuration from file and merges with request
func (uc *ReachabilityUseCase) loadAndMergeConfig(req domain.ReachabilityRequest) (domain.ReachabilityRequest, error) {
	if uc.configLoader == nil {
		return req, nil
	}

	var configReq *domain.ReachabilityRequest
	if req.ConfigPath != "" {
		var err error
		configReq, err = uc.configLoader.LoadConfig(req.ConfigPath)
		if err != nil {
			return req, fmt.Errorf("failed to load config from %s: %w", req.ConfigPath, err)
		}
	} else {
		configReq = uc.configLoader.LoadDefaultConfig()
	}

	if configReq != nil {
		merged := uc.configLoader.MergeConfig(configReq, &req)
		return *merged, nil
	}

	return req, nil
}

// ReachabilityUseCaseBuilder provides a builder pattern for creating ReachabilityUseCase
type ReachabilityUseCaseBuilder struct {
	service      domain.ReachabilityService
	reader       domain.MethodReader
	formatter    domain.ReachabilityFormatter
	configLoader domain.ReachabilityConfigurationLoader
	output       domain.ReportWriter
}

// NewReachabilityUseCaseBuilder creates a new builder
func NewReachabilityUseCaseBuilder() *ReachabilityUseCaseBuilder {
	return &ReachabilityUseCaseBuilder{}
}

// WithService sets the reachability service
func (b *ReachabilityUseCaseBuilder) WithService(service domain.ReachabilityService) *ReachabilityUseCaseBuilder {
	b.service = service
	return b
}

// WithMethodReader sets the method reader
func (b *ReachabilityUseCaseBuilder) WithMethodReader(reader domain.MethodReader) *ReachabilityUseCaseBuilder {
	b.reader = reader
	return b
}

// WithFormatter sets the output formatter
func (b *ReachabilityUseCaseBuilder) WithFormatter(formatter domain.ReachabilityFormatter) *ReachabilityUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithConfigLoader sets the configuration loader
func (b *ReachabilityUseCaseBuilder) WithConfigLoader(configLoader domain.ReachabilityConfigurationLoader) *ReachabilityUseCaseBuilder {
	b.configLoader = configLoader
	return b
}

// WithOutputWriter sets the report writer
func (b *ReachabilityUseCaseBuilder) WithOutputWriter(output domain.ReportWriter) *ReachabilityUseCaseBuilder {
	b.output = output
	return b
}

// Build creates the ReachabilityUseCase. The configuration loader is optional;
// without one no configuration file is read.
func (b *ReachabilityUseCaseBuilder) Build() (*ReachabilityUseCase, error) {
	if b.service == nil {
		return nil, fmt.Errorf("reachability service is required")
	}
	if b.reader == nil {
		return nil, fmt.Errorf("method reader is required")
	}
	if b.formatter == nil {
		return nil, fmt.Errorf("output formatter is required")
	}

	uc := NewReachabilityUseCase(b.service, b.reader, b.formatter, b.configLoader)
	if b.output != nil {
		uc.output = b.output
	}
	return uc, nil
}

// BuildWithDefaults creates the ReachabilityUseCase with a no-op configuration
// loader when none was given
func (b *ReachabilityUseCaseBuilder) BuildWithDefaults() (*ReachabilityUseCase, error) {
	if b.configLoader == nil {
		b.configLoader = &noOpReachabilityConfigLoader{}
	}
	return b.Build()
}

// noOpReachabilityConfigLoader is a no-op implementation of ReachabilityConfigurationLoader
type noOpReachabilityConfigLoader struct{}

func (n *noOpReachabilityConfigLoader) LoadConfig(path string) (*domain.ReachabilityRequest, error) {
	return nil, nil
}

func (n *noOpReachabilityConfigLoader) LoadDefaultConfig() *domain.ReachabilityRequest {
	return nil
}

func (n *noOpReachabilityConfigLoader) MergeConfig(base *domain.ReachabilityRequest, override *domain.ReachabilityRequest) *domain.ReachabilityRequest {
	return override
}
