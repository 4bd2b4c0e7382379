package mcp

import (
	"github.com/rs/zerolog"

	"github.com/ludo-technologies/cilflow/app"
	"github.com/ludo-technologies/cilflow/domain"
	"github.com/ludo-technologies/cilflow/internal/config"
	"github.com/ludo-technologies/cilflow/service"
)

// Dependencies aggregates the shared services required by MCP handlers.
type Dependencies struct {
	reader     domain.MethodReader
	configPath string
	logger     zerolog.Logger
}

// NewDependencies constructs the dependency set. An empty configPath makes
// every call search for a configuration file from the working directory.
func NewDependencies(configPath string, logger zerolog.Logger) *Dependencies {
	return &Dependencies{
		reader:     service.NewMethodReader(),
		configPath: configPath,
		logger:     logger,
	}
}

// ConfigPath returns the configured config file path (may be empty to trigger discovery).
func (d *Dependencies) ConfigPath() string {
	return d.configPath
}

// FlowGraphService returns a service for graphs of inline methods
func (d *Dependencies) FlowGraphService() *service.FlowGraphServiceImpl {
	return service.NewFlowGraphService(d.reader, d.logger)
}

// ReachabilityService returns a service for reachability of inline methods
func (d *Dependencies) ReachabilityService() *service.ReachabilityServiceImpl {
	return service.NewReachabilityService(d.reader, d.logger)
}

// BuildFlowGraphUseCase assembles a fresh FlowGraphUseCase. flags names the
// tool arguments the caller supplied; they take precedence over the
// configuration file.
func (d *Dependencies) BuildFlowGraphUseCase(flags *config.FlagTracker) (*app.FlowGraphUseCase, error) {
	return app.NewFlowGraphUseCaseBuilder().
		WithService(d.FlowGraphService()).
		WithMethodReader(d.reader).
		WithFormatter(service.NewFlowGraphFormatter(false)).
		WithConfigLoader(service.NewFlowGraphConfigurationLoader(flags)).
		Build()
}

// BuildReachabilityUseCase assembles a fresh ReachabilityUseCase
func (d *Dependencies) BuildReachabilityUseCase(flags *config.FlagTracker) (*app.ReachabilityUseCase, error) {
	return app.NewReachabilityUseCaseBuilder().
		WithService(d.ReachabilityService()).
		WithMethodReader(d.reader).
		WithFormatter(service.NewReachabilityFormatter(false)).
		WithConfigLoader(service.NewReachabilityConfigurationLoader(flags)).
		Build()
}
