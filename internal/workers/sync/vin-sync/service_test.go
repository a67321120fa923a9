package vinsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bmw-vin-connector/internal/common/errors"
	"bmw-vin-connector/internal/common/logger"
	"bmw-vin-connector/internal/pipeline"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, vins []string) (*pipeline.RunResult, error) {
	args := m.Called(ctx, vins)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.RunResult), args.Error(1)
}

func newServiceForTest(runner PipelineRunner, configuredVINs []string) *Service {
	return NewService(ServiceDependencies{
		Runner:         runner,
		ConfiguredVINs: configuredVINs,
		Logger:         logger.NewNoOpLogger(),
	}, createValidConfig())
}

func TestService_Execute_UsesConfiguredFleetByDefault(t *testing.T) {
	runner := new(MockRunner)
	configured := []string{"WBA3B5C50DF123456"}
	runner.On("Run", mock.Anything, configured).Return(&pipeline.RunResult{
		RunID:            "run-1",
		VehiclesUpserted: 1,
		RecallsInserted:  2,
	}, nil)

	svc := newServiceForTest(runner, configured)
	output, err := svc.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.Equal(t, "run-1", output.RunID)
	assert.Equal(t, 1, output.VehiclesUpserted)
	assert.Equal(t, 2, output.RecallsInserted)
	assert.Contains(t, output.Message, "1 vehicle(s)")
	runner.AssertExpectations(t)
}

func TestService_Execute_InputVinsOverrideConfiguration(t *testing.T) {
	runner := new(MockRunner)
	override := []string{"WBS3R9C58FK123456"}
	runner.On("Run", mock.Anything, override).Return(&pipeline.RunResult{RunID: "run-2"}, nil)

	svc := newServiceForTest(runner, []string{"WBA3B5C50DF123456"})
	output, err := svc.Execute(context.Background(), &Input{VINs: override})

	require.NoError(t, err)
	assert.True(t, output.Success)
	runner.AssertExpectations(t)
}

func TestService_Execute_PropagatesPipelineError(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, mock.Anything).Return(nil, errors.NewNoVinsConfiguredError())

	svc := newServiceForTest(runner, nil)
	output, err := svc.Execute(context.Background(), &Input{})

	require.Error(t, err)
	assert.Nil(t, output)
	assert.Equal(t, errors.ErrCodeNoVinsConfigured, errors.CodeOf(err))
}

func TestService_Execute_ReportsFailedVins(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, mock.Anything).Return(&pipeline.RunResult{
		RunID:            "run-3",
		VehiclesUpserted: 1,
		FailedVINs:       []string{"WBS3R9C58FK123456"},
	}, nil)

	svc := newServiceForTest(runner, []string{"WBA3B5C50DF123456", "WBS3R9C58FK123456"})
	output, err := svc.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, []string{"WBS3R9C58FK123456"}, output.FailedVINs)
}
