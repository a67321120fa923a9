package vinsync

import (
	"context"

	"bmw-vin-connector/internal/common/logger"
	"bmw-vin-connector/internal/pipeline"
)

// Input is the job variable payload. An empty VIN list means "sync the
// configured fleet"; a process can pass an explicit list to sync a
// subset on demand.
type Input struct {
	VINs []string `json:"vins,omitempty"`
}

// Output is written back to the process as job variables.
type Output struct {
	Success          bool     `json:"success"`
	Message          string   `json:"message"`
	RunID            string   `json:"runId,omitempty"`
	VehiclesUpserted int      `json:"vehiclesUpserted"`
	RecallsInserted  int      `json:"recallsInserted"`
	RecallsSkipped   int      `json:"recallsSkipped"`
	FailedVINs       []string `json:"failedVins,omitempty"`
}

// PipelineRunner is the sync surface the worker drives, satisfied by
// pipeline.Pipeline and by test mocks.
type PipelineRunner interface {
	Run(ctx context.Context, vins []string) (*pipeline.RunResult, error)
}

// ServiceDependencies groups the collaborators injected into the
// service layer.
type ServiceDependencies struct {
	Runner         PipelineRunner
	ConfiguredVINs []string
	Logger         logger.Logger
}
