// Package mapper holds the pure transforms from NHTSA payloads to
// warehouse records. No I/O happens here.
package mapper

import (
	"strconv"
	"time"

	"bmw-vin-connector/internal/common/errors"
	"bmw-vin-connector/internal/common/nhtsa"
	"bmw-vin-connector/internal/common/vin"
	"bmw-vin-connector/internal/models"
)

// Unknown is the explicit marker for optional attributes absent from
// the source payload.
const Unknown = "Unknown"

// recallDateLayouts are the accepted ReportReceivedDate formats. vPIC
// publishes day-first dates; ISO forms show up in older campaigns.
var recallDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"02/01/2006",
}

// ToVehicleRecord builds the bmw_vehicles row from a decoded payload.
// A non-numeric model year fails the record with MALFORMED_FIELD.
func ToVehicleRecord(info *nhtsa.VehicleInfo) (*models.VehicleRecord, error) {
	yearStr := info.ModelYear
	if yearStr == "" {
		yearStr = "0"
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return nil, errors.NewMalformedFieldError("model_year", info.ModelYear)
	}

	modelName := orUnknown(info.Model)

	// The VIN plant-code table wins; the API's plant city fills the gap
	// for codes the table doesn't know.
	plant := vin.PlantName(info.VIN)
	if plant == Unknown && info.PlantCity != "" {
		plant = info.PlantCity
	}

	return &models.VehicleRecord{
		VIN:                info.VIN,
		Series:             string(vin.ClassifySeries(modelName)),
		ModelYear:          year,
		Make:               orUnknown(info.Make),
		ModelName:          modelName,
		BodyType:           orUnknown(info.BodyClass),
		EngineType:         orUnknown(info.EngineType),
		Transmission:       orUnknown(info.Transmission),
		DriveType:          orUnknown(info.DriveType),
		ManufacturingPlant: plant,
		ProductionDate:     info.ProductionDate,
		DecodedAt:          time.Now().UTC(),
	}, nil
}

// ToRecallRecords builds bmw_recalls rows. A malformed date fails only
// the entry carrying it; the remaining entries are still returned,
// together with the per-entry errors.
func ToRecallRecords(v string, infos []nhtsa.RecallInfo) ([]models.RecallRecord, []error) {
	records := make([]models.RecallRecord, 0, len(infos))
	var errs []error

	for _, info := range infos {
		record := models.RecallRecord{
			VIN:            v,
			CampaignNumber: orUnknown(info.CampaignNumber),
			Component:      orUnknown(info.Component),
			Summary:        info.Summary,
			Consequence:    info.Consequence,
			Remedy:         info.Remedy,
		}

		if info.ReportReceivedDate != "" {
			date, err := parseRecallDate(info.ReportReceivedDate)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			record.RecallDate = date
			record.HasDate = true
		}

		records = append(records, record)
	}

	return records, errs
}

func parseRecallDate(raw string) (time.Time, error) {
	for _, layout := range recallDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.NewMalformedFieldError("recall_date", raw)
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
