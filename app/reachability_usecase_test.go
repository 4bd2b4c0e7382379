package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/cilflow/domain"
	"github.com/ludo-technologies/cilflow/internal/il"
)

type mockReachabilityService struct {
	mock.Mock
}

func (m *mockReachabilityService) Analyze(ctx context.Context, req domain.ReachabilityRequest) (*domain.ReachabilityResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReachabilityResponse), args.Error(1)
}

func (m *mockReachabilityService) AnalyzeMethod(ctx context.Context, body *il.MethodBody, req domain.ReachabilityRequest) (*domain.MethodReachability, error) {
	args := m.Called(ctx, body, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MethodReachability), args.Error(1)
}

type mockReachabilityFormatter struct {
	mock.Mock
}

func (m *mockReachabilityFormatter) Format(response *domain.ReachabilityResponse, format domain.OutputFormat) (string, error) {
	args := m.Called(response, format)
	return args.String(0), args.Error(1)
}

func (m *mockReachabilityFormatter) Write(response *domain.ReachabilityResponse, format domain.OutputFormat, writer io.Writer) error {
	args := m.Called(response, format, writer)
	return args.Error(0)
}

// recordingReportWriter captures the destination chosen by the use case
type recordingReportWriter struct {
	path string
	buf  bytes.Buffer
}

func (w *recordingReportWriter) Write(writer io.Writer, outputPath string, format domain.OutputFormat, writeFunc func(io.Writer) error) error {
	w.path = outputPath
	return writeFunc(&w.buf)
}

func createValidReachabilityRequest() domain.ReachabilityRequest {
	req := *domain.DefaultReachabilityRequest()
	req.Paths = []string{"/test/a.il", "/test/b.yaml"}
	req.OutputPath = filepath.Join("out", "reach.json")
	req.OutputFormat = domain.OutputFormatJSON
	return req
}

func TestReachabilityUseCase_Execute(t *testing.T) {
	req := createValidReachabilityRequest()
	response := &domain.ReachabilityResponse{Summary: domain.ReachabilitySummary{TotalMethods: 3}}

	service := &mockReachabilityService{}
	reader := &MockMethodReader{}
	formatter := &mockReachabilityFormatter{}
	output := &recordingReportWriter{}

	expectFiles(reader, req.Paths...)
	service.On("Analyze", mock.Anything, req).Return(response, nil)
	formatter.On("Write", response, domain.OutputFormatJSON, mock.Anything).Return(nil)

	uc, err := NewReachabilityUseCaseBuilder().
		WithService(service).
		WithMethodReader(reader).
		WithFormatter(formatter).
		WithOutputWriter(output).
		BuildWithDefaults()
	require.NoError(t, err)

	require.NoError(t, uc.Execute(context.Background(), req))
	assert.Equal(t, req.OutputPath, output.path)
	service.AssertExpectations(t)
	formatter.AssertExpectations(t)
}

func TestReachabilityUseCase_AnalyzeAndReturn(t *testing.T) {
	req := createValidReachabilityRequest()
	service := &mockReachabilityService{}
	reader := &MockMethodReader{}

	expectFiles(reader, req.Paths...)
	service.On("Analyze", mock.Anything, req).Return(nil, errors.New("parallel execution timed out"))

	uc := NewReachabilityUseCase(service, reader, &mockReachabilityFormatter{}, nil)
	_, err := uc.AnalyzeAndReturn(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeAnalysisError, domain.ErrorCode(err))
}

func TestReachabilityUseCase_RejectsDOT(t *testing.T) {
	req := createValidReachabilityRequest()
	req.OutputFormat = domain.OutputFormatDOT

	uc := NewReachabilityUseCase(&mockReachabilityService{}, &MockMethodReader{}, &mockReachabilityFormatter{}, nil)
	err := uc.Execute(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeInvalidInput, domain.ErrorCode(err))
}

func TestReachabilityUseCase_OutputFailure(t *testing.T) {
	req := createValidReachabilityRequest()
	response := &domain.ReachabilityResponse{}

	service := &mockReachabilityService{}
	reader := &MockMethodReader{}
	formatter := &mockReachabilityFormatter{}

	expectFiles(reader, req.Paths...)
	service.On("Analyze", mock.Anything, req).Return(response, nil)
	formatter.On("Write", response, domain.OutputFormatJSON, mock.Anything).Return(errors.New("disk full"))

	uc, err := NewReachabilityUseCaseBuilder().
		WithService(service).
		WithMethodReader(reader).
		WithFormatter(formatter).
		WithOutputWriter(&recordingReportWriter{}).
		Build()
	require.NoError(t, err)

	err = uc.Execute(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeOutputError, domain.ErrorCode(err))
}
