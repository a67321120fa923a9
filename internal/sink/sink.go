// Package sink delivers mapped records to their destinations: the
// Postgres warehouse, an in-memory sink for tests and the debug CLI,
// and an optional Elasticsearch recall index.
package sink

import (
	"context"
	"sort"
	"sync"

	"bmw-vin-connector/internal/models"
)

// Sink is the warehouse upsert contract. UpsertVehicles is
// last-write-wins by VIN; InsertRecalls is insert-if-new by
// (vin, campaign_number) and returns how many rows were actually new,
// so replays are observably idempotent.
type Sink interface {
	UpsertVehicles(ctx context.Context, records []models.VehicleRecord) error
	InsertRecalls(ctx context.Context, records []models.RecallRecord) (int, error)
	Close() error
}

// MemorySink keeps records in maps keyed like the warehouse tables.
type MemorySink struct {
	mu       sync.Mutex
	vehicles map[string]models.VehicleRecord
	recalls  map[string]models.RecallRecord
}

func NewMemorySink() *MemorySink {
	return &MemorySink{
		vehicles: make(map[string]models.VehicleRecord),
		recalls:  make(map[string]models.RecallRecord),
	}
}

func (s *MemorySink) UpsertVehicles(_ context.Context, records []models.VehicleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.vehicles[r.VIN] = r
	}
	return nil
}

func (s *MemorySink) InsertRecalls(_ context.Context, records []models.RecallRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := 0
	for _, r := range records {
		if _, exists := s.recalls[r.Key()]; exists {
			continue
		}
		s.recalls[r.Key()] = r
		inserted++
	}
	return inserted, nil
}

func (s *MemorySink) Close() error { return nil }

// Vehicles returns the stored vehicle rows sorted by VIN.
func (s *MemorySink) Vehicles() []models.VehicleRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.VehicleRecord, 0, len(s.vehicles))
	for _, r := range s.vehicles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VIN < out[j].VIN })
	return out
}

// Recalls returns the stored recall rows sorted by key.
func (s *MemorySink) Recalls() []models.RecallRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.RecallRecord, 0, len(s.recalls))
	for _, r := range s.recalls {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
