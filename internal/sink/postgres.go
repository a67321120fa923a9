package sink

import (
	"context"
	"database/sql"
	"fmt"

	"bmw-vin-connector/internal/common/errors"
	"bmw-vin-connector/internal/common/logger"
	"bmw-vin-connector/internal/models"
)

// PostgresSink writes records to the warehouse. Vehicles are upserted
// on the vin primary key; recalls rely on the (vin, campaign_number)
// primary key so replayed rows are silently skipped.
type PostgresSink struct {
	db            *sql.DB
	vehiclesTable string
	recallsTable  string
	logger        logger.Logger
}

func NewPostgresSink(db *sql.DB, vehiclesTable, recallsTable string, log logger.Logger) *PostgresSink {
	if vehiclesTable == "" {
		vehiclesTable = models.VehiclesTable
	}
	if recallsTable == "" {
		recallsTable = models.RecallsTable
	}
	return &PostgresSink{
		db:            db,
		vehiclesTable: vehiclesTable,
		recallsTable:  recallsTable,
		logger:        log,
	}
}

func (s *PostgresSink) UpsertVehicles(ctx context.Context, records []models.VehicleRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			vin, series, model_year, make, model_name, body_type,
			engine_type, transmission, drive_type, manufacturing_plant,
			production_date, decoded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (vin) DO UPDATE SET
			series = EXCLUDED.series,
			model_year = EXCLUDED.model_year,
			make = EXCLUDED.make,
			model_name = EXCLUDED.model_name,
			body_type = EXCLUDED.body_type,
			engine_type = EXCLUDED.engine_type,
			transmission = EXCLUDED.transmission,
			drive_type = EXCLUDED.drive_type,
			manufacturing_plant = EXCLUDED.manufacturing_plant,
			production_date = EXCLUDED.production_date,
			decoded_at = EXCLUDED.decoded_at`, s.vehiclesTable)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewWarehouseUpsertFailedError(s.vehiclesTable, err)
	}
	defer tx.Rollback()

	for _, r := range records {
		if _, err := tx.ExecContext(ctx, query,
			r.VIN, r.Series, r.ModelYear, r.Make, r.ModelName, r.BodyType,
			r.EngineType, r.Transmission, r.DriveType, r.ManufacturingPlant,
			r.ProductionDate, r.DecodedAt,
		); err != nil {
			return errors.NewWarehouseUpsertFailedError(s.vehiclesTable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewWarehouseUpsertFailedError(s.vehiclesTable, err)
	}

	s.logger.Debug("Upserted vehicle records", map[string]interface{}{
		"table": s.vehiclesTable,
		"count": len(records),
	})
	return nil
}

func (s *PostgresSink) InsertRecalls(ctx context.Context, records []models.RecallRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			vin, campaign_number, component, summary, consequence,
			remedy, recall_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (vin, campaign_number) DO NOTHING`, s.recallsTable)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewWarehouseUpsertFailedError(s.recallsTable, err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, r := range records {
		var recallDate sql.NullTime
		if r.HasDate {
			recallDate = sql.NullTime{Time: r.RecallDate, Valid: true}
		}

		result, err := tx.ExecContext(ctx, query,
			r.VIN, r.CampaignNumber, r.Component, r.Summary,
			r.Consequence, r.Remedy, recallDate,
		)
		if err != nil {
			return 0, errors.NewWarehouseUpsertFailedError(s.recallsTable, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return 0, errors.NewWarehouseUpsertFailedError(s.recallsTable, err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewWarehouseUpsertFailedError(s.recallsTable, err)
	}

	s.logger.Debug("Inserted recall records", map[string]interface{}{
		"table":    s.recallsTable,
		"inserted": inserted,
		"total":    len(records),
	})
	return inserted, nil
}

func (s *PostgresSink) Close() error {
	return s.db.Close()
}
