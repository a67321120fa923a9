package vinsync

import (
	"context"
	"fmt"

	"bmw-vin-connector/internal/common/logger"
)

// Service runs the sync pipeline for a job. It resolves which VINs to
// sync and translates the pipeline result into job variables.
type Service struct {
	runner         PipelineRunner
	configuredVINs []string
	logger         logger.Logger
	config         *Config
}

func NewService(deps ServiceDependencies, cfg *Config) *Service {
	return &Service{
		runner:         deps.Runner,
		configuredVINs: deps.ConfiguredVINs,
		logger:         deps.Logger,
		config:         cfg,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	vins := input.VINs
	if len(vins) == 0 {
		vins = s.configuredVINs
	}

	result, err := s.runner.Run(ctx, vins)
	if err != nil {
		return nil, err
	}

	return &Output{
		Success: true,
		Message: fmt.Sprintf("Synced %d vehicle(s), %d new recall(s)",
			result.VehiclesUpserted, result.RecallsInserted),
		RunID:            result.RunID,
		VehiclesUpserted: result.VehiclesUpserted,
		RecallsInserted:  result.RecallsInserted,
		RecallsSkipped:   result.RecallsSkipped,
		FailedVINs:       result.FailedVINs,
	}, nil
}
