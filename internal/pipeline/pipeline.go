// Package pipeline runs one sync pass: fetch each configured VIN from
// the NHTSA API, map the payloads to warehouse records, filter recalls
// against the saved cursor, emit, then persist the advanced state.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bmw-vin-connector/internal/common/errors"
	"bmw-vin-connector/internal/common/logger"
	"bmw-vin-connector/internal/common/metrics"
	"bmw-vin-connector/internal/common/nhtsa"
	"bmw-vin-connector/internal/common/vin"
	"bmw-vin-connector/internal/mapper"
	"bmw-vin-connector/internal/models"
	"bmw-vin-connector/internal/notify"
	"bmw-vin-connector/internal/sink"
	"bmw-vin-connector/internal/state"
)

// Fetcher is the NHTSA surface the pipeline needs, satisfied by
// nhtsa.Client and by test stubs.
type Fetcher interface {
	DecodeVIN(ctx context.Context, vin string) (*nhtsa.VehicleInfo, error)
	RecallsByVIN(ctx context.Context, vin string) ([]nhtsa.RecallInfo, error)
}

// Indexer is the optional search-index surface.
type Indexer interface {
	IndexRecalls(ctx context.Context, records []models.RecallRecord) (int, error)
}

// Options tune a pipeline independently of its collaborators.
type Options struct {
	// RequireBMW rejects VINs whose WMI prefix is not a BMW code
	// before any network call.
	RequireBMW bool
}

// Pipeline wires the fetch, map and emit stages together. The indexer
// and notifier are optional; passing nil disables them.
type Pipeline struct {
	fetcher  Fetcher
	sink     sink.Sink
	store    state.Store
	indexer  Indexer
	notifier *notify.RecallNotifier
	options  Options
	logger   logger.Logger
}

func New(fetcher Fetcher, s sink.Sink, store state.Store, opts Options, log logger.Logger) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		sink:    s,
		store:   store,
		options: opts,
		logger:  log,
	}
}

// WithIndexer enables mirroring inserted recalls to the search index.
func (p *Pipeline) WithIndexer(indexer Indexer) *Pipeline {
	p.indexer = indexer
	return p
}

// WithNotifier enables new-recall alerts.
func (p *Pipeline) WithNotifier(n *notify.RecallNotifier) *Pipeline {
	p.notifier = n
	return p
}

// RunResult summarizes one sync pass.
type RunResult struct {
	RunID            string        `json:"run_id"`
	VehiclesUpserted int           `json:"vehicles_upserted"`
	RecallsInserted  int           `json:"recalls_inserted"`
	RecallsSkipped   int           `json:"recalls_skipped"`
	FailedVINs       []string      `json:"failed_vins,omitempty"`
	Duration         time.Duration `json:"duration"`
}

// Run executes one sync pass over the given VINs.
//
// Per-VIN failures (bad format, fetch error, malformed payload) are
// logged and skip that VIN; its cursor is left untouched so the next
// run retries the same window. Sink and state failures abort the run.
// State is saved only after a successful emit, which with the
// idempotent sink gives at-least-once delivery without duplicates.
func (p *Pipeline) Run(ctx context.Context, vins []string) (*RunResult, error) {
	if len(vins) == 0 {
		return nil, errors.NewNoVinsConfiguredError()
	}

	start := time.Now()
	result := &RunResult{RunID: uuid.NewString()}

	runLog := p.logger.WithFields(map[string]interface{}{"run_id": result.RunID})
	runLog.Info("Starting sync run", map[string]interface{}{"vins": len(vins)})

	syncState, err := p.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	var (
		vehicles   []models.VehicleRecord
		newRecalls []models.RecallRecord
	)

	for _, v := range vins {
		vehicle, recalls, skipped, err := p.processVIN(ctx, v, syncState)
		if err != nil {
			code := errors.CodeOf(err)
			metrics.VinFetchFailures.WithLabelValues(string(code)).Inc()
			runLog.Warn("Skipping VIN after failure", map[string]interface{}{
				"vin":        v,
				"error_code": string(code),
				"error":      err.Error(),
			})
			result.FailedVINs = append(result.FailedVINs, v)
			continue
		}
		vehicles = append(vehicles, *vehicle)
		newRecalls = append(newRecalls, recalls...)
		result.RecallsSkipped += skipped
	}

	if err := p.sink.UpsertVehicles(ctx, vehicles); err != nil {
		return nil, err
	}
	result.VehiclesUpserted = len(vehicles)
	metrics.RecordsEmitted.WithLabelValues(models.VehiclesTable).Add(float64(len(vehicles)))

	inserted, err := p.sink.InsertRecalls(ctx, newRecalls)
	if err != nil {
		return nil, err
	}
	result.RecallsInserted = inserted
	metrics.RecordsEmitted.WithLabelValues(models.RecallsTable).Add(float64(inserted))

	// Cursors advance only after both emits succeeded.
	for _, r := range newRecalls {
		if r.HasDate {
			syncState.AdvanceCursor(r.VIN, r.RecallDate)
		}
	}
	syncState.LastSyncedAt = time.Now().UTC()
	if err := p.store.Save(ctx, syncState); err != nil {
		return nil, err
	}

	if p.indexer != nil && len(newRecalls) > 0 {
		if _, err := p.indexer.IndexRecalls(ctx, newRecalls); err != nil {
			runLog.Warn("Recall search indexing failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if p.notifier != nil && inserted > 0 {
		p.notifier.NotifyNewRecalls(ctx, newRecalls)
	}

	result.Duration = time.Since(start)
	runLog.Info("Sync run finished", map[string]interface{}{
		"vehicles_upserted": result.VehiclesUpserted,
		"recalls_inserted":  result.RecallsInserted,
		"recalls_skipped":   result.RecallsSkipped,
		"failed_vins":       len(result.FailedVINs),
		"duration_ms":       result.Duration.Milliseconds(),
	})
	return result, nil
}

// processVIN fetches and maps one VIN. It returns the vehicle row, the
// recalls newer than the cursor, and how many recalls the cursor
// filtered out.
func (p *Pipeline) processVIN(ctx context.Context, v string, syncState *models.SyncState) (*models.VehicleRecord, []models.RecallRecord, int, error) {
	if err := vin.Validate(v); err != nil {
		return nil, nil, 0, err
	}
	if p.options.RequireBMW && !vin.IsBMW(v) {
		return nil, nil, 0, errors.NewInvalidVinFormatError(v, "not a BMW world manufacturer identifier")
	}

	info, err := p.fetcher.DecodeVIN(ctx, v)
	if err != nil {
		return nil, nil, 0, err
	}
	vehicle, err := mapper.ToVehicleRecord(info)
	if err != nil {
		return nil, nil, 0, err
	}

	recallInfos, err := p.fetcher.RecallsByVIN(ctx, v)
	if err != nil {
		return nil, nil, 0, err
	}
	records, mapErrs := mapper.ToRecallRecords(v, recallInfos)
	for _, mapErr := range mapErrs {
		p.logger.Warn("Dropping malformed recall entry", map[string]interface{}{
			"vin":   v,
			"error": mapErr.Error(),
		})
	}

	cursor := syncState.CursorFor(v)
	fresh := make([]models.RecallRecord, 0, len(records))
	skipped := 0
	for _, r := range records {
		// Undated recalls always pass; the primary key dedupes them.
		if r.HasDate && !r.RecallDate.After(cursor) {
			skipped++
			continue
		}
		fresh = append(fresh, r)
	}

	return vehicle, fresh, skipped, nil
}
