package models

import "time"

// Destination table names and natural keys. Schema ownership sits with
// the warehouse; the connector only honors the keys on conflict.
const (
	VehiclesTable = "bmw_vehicles"
	RecallsTable  = "bmw_recalls"
)

var (
	VehiclesPrimaryKey = []string{"vin"}
	RecallsPrimaryKey  = []string{"vin", "campaign_number"}
)

// VehicleRecord is one row of the bmw_vehicles table, keyed by VIN.
// Immutable after creation; replays overwrite by key (last write wins).
type VehicleRecord struct {
	VIN                string    `json:"vin"`
	Series             string    `json:"series"`
	ModelYear          int       `json:"model_year"`
	Make               string    `json:"make"`
	ModelName          string    `json:"model_name"`
	BodyType           string    `json:"body_type"`
	EngineType         string    `json:"engine_type"`
	Transmission       string    `json:"transmission"`
	DriveType          string    `json:"drive_type"`
	ManufacturingPlant string    `json:"manufacturing_plant"`
	ProductionDate     string    `json:"production_date,omitempty"`
	DecodedAt          time.Time `json:"decoded_at"`
}
