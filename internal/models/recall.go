package models

import "time"

// RecallRecord is one row of the bmw_recalls table, keyed by
// (vin, campaign_number). Rows are only ever inserted, never mutated.
type RecallRecord struct {
	VIN            string    `json:"vin"`
	CampaignNumber string    `json:"campaign_number"`
	Component      string    `json:"component"`
	Summary        string    `json:"summary"`
	Consequence    string    `json:"consequence"`
	Remedy         string    `json:"remedy"`
	RecallDate     time.Time `json:"recall_date"`
	HasDate        bool      `json:"-"`
}

// Key returns the natural key used for insert-if-new dedup.
func (r RecallRecord) Key() string {
	return r.VIN + "|" + r.CampaignNumber
}
