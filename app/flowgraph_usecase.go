package app

import (
	"context"
	"fmt"
	"io"

	"github.com/ludo-technologies/cilflow/domain"
	svc "github.com/ludo-technologies/cilflow/service"
)

// FlowGraphUseCase orchestrates the flow graph workflow: configuration,
// file discovery, building and reporting
type FlowGraphUseCase struct {
	service      domain.FlowGraphService
	reader       domain.MethodReader
	formatter    domain.FlowGraphFormatter
	configLoader domain.FlowGraphConfigurationLoader
	output       domain.ReportWriter
}

// NewFlowGraphUseCase creates a new flow graph use case
func NewFlowGraphUseCase(
	service domain.FlowGraphService,
	reader domain.MethodReader,
	formatter domain.FlowGraphFormatter,
	configLoader domain.FlowGraphConfigurationLoader,
) *FlowGraphUseCase {
	return &FlowGraphUseCase{
		service:      service,
		reader:       reader,
		formatter:    formatter,
		configLoader: configLoader,
		output:       svc.NewFileOutputWriter(nil),
	}
}

// prepareBuild merges configuration, validates the result and expands the
// input paths to method files
func (uc *FlowGraphUseCase) prepareBuild(req domain.FlowGraphRequest) (domain.FlowGraphRequest, error) {
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

// Execute builds the flow graphs and writes the formatted report
func (uc *FlowGraphUseCase) Execute(ctx context.Context, req domain.FlowGraphRequest) error {
	finalReq, err := uc.prepareBuild(req)
	if err != nil {
		return err
	}

	response, err := uc.service.Build(ctx, finalReq)
	if err != nil {
		return domain.NewAnalysisError("flow graph build failed", err)
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

// BuildAndReturn builds the flow graphs and returns the response without formatting
func (uc *FlowGraphUseCase) BuildAndReturn(ctx context.Context, req domain.FlowGraphRequest) (*domain.FlowGraphResponse, error) {
	finalReq, err := uc.prepareBuild(req)
	if err != nil {
		return nil, err
	}

	response, err := uc.service.Build(ctx, finalReq)
	if err != nil {
		return nil, domain.NewAnalysisError("flow graph build failed", err)
	}

	return response, nil
}

// loadAndMergeConfig loads configuration from file and merges with request
func (uc *FlowGraphUseCase) loadAndMergeConfig(req domain.FlowGraphRequest) (domain.FlowGraphRequest, error) {
	if uc.configLoader == nil {
		return req, nil
	}

	var configReq *domain.FlowGraphRequest
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

// FlowGraphUseCaseBuilder provides a builder pattern for creating FlowGraphUseCase
type FlowGraphUseCaseBuilder struct {
	service      domain.FlowGraphService
	reader       domain.MethodReader
	formatter    domain.FlowGraphFormatter
	configLoader domain.FlowGraphConfigurationLoader
	output       domain.ReportWriter
}

// NewFlowGraphUseCaseBuilder creates a new builder
func NewFlowGraphUseCaseBuilder() *FlowGraphUseCaseBuilder {
	return &FlowGraphUseCaseBuilder{}
}

// WithService sets the flow graph service
func (b *FlowGraphUseCaseBuilder) WithService(service domain.FlowGraphService) *FlowGraphUseCaseBuilder {
	b.service = service
	return b
}

// WithMethodReader sets the method reader
func (b *FlowGraphUseCaseBuilder) WithMethodReader(reader domain.MethodReader) *FlowGraphUseCaseBuilder {
	b.reader = reader
	return b
}

// WithFormatter sets the output formatter
func (b *FlowGraphUseCaseBuilder) WithFormatter(formatter domain.FlowGraphFormatter) *FlowGraphUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithConfigLoader sets the configuration loader
func (b *FlowGraphUseCaseBuilder) WithConfigLoader(configLoader domain.FlowGraphConfigurationLoader) *FlowGraphUseCaseBuilder {
	b.configLoader = configLoader
	return b
}

// WithOutputWriter sets the report writer
func (b *FlowGraphUseCaseBuilder) WithOutputWriter(output domain.ReportWriter) *FlowGraphUseCaseBuilder {
	b.output = output
	return b
}

// Build creates the FlowGraphUseCase. The configuration loader is optional;
// without one no configuration file is read.
func (b *FlowGraphUseCaseBuilder) Build() (*FlowGraphUseCase, error) {
	if b.service == nil {
		return nil, fmt.Errorf("flow graph service is required")
	}
	if b.reader == nil {
		return nil, fmt.Errorf("method reader is required")
	}
	if b.formatter == nil {
		return nil, fmt.Errorf("output formatter is required")
	}

	uc := NewFlowGraphUseCase(b.service, b.reader, b.formatter, b.configLoader)
	if b.output != nil {
		uc.output = b.output
	}
	return uc, nil
}

// BuildWithDefaults creates the FlowGraphUseCase with a no-op configuration
// loader when none was given
func (b *FlowGraphUseCaseBuilder) BuildWithDefaults() (*FlowGraphUseCase, error) {
	if b.configLoader == nil {
		b.configLoader = &noOpFlowGraphConfigLoader{}
	}
	return b.Build()
}

// noOpFlowGraphConfigLoader is a no-op implementation of FlowGraphConfigurationLoader
type noOpFlowGraphConfigLoader struct{}

func (n *noOpFlowGraphConfigLoader) LoadConfig(path string) (*domain.FlowGraphRequest, error) {
	return nil, nil
}

func (n *noOpFlowGraphConfigLoader) LoadDefaultConfig() *domain.FlowGraphRequest {
	return nil
}

func (n *noOpFlowGraphConfigLoader) MergeConfig(base *domain.FlowGraphRequest, override *domain.FlowGraphRequest) *domain.FlowGraphRequest {
	return override
}
