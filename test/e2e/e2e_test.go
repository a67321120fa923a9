// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmw-vin-connector/internal/common/logger"
	"bmw-vin-connector/internal/common/nhtsa"
	"bmw-vin-connector/internal/pipeline"
	"bmw-vin-connector/internal/sink"
	"bmw-vin-connector/internal/state"
)

const testVIN = "WBA3B5C50DF123456"

// fakeVPIC emulates the vehicle API with mutable recall payloads, so a
// test can add a campaign between sync runs.
type fakeVPIC struct {
	mu      sync.Mutex
	recalls []map[string]string
	server  *httptest.Server
}

func newFakeVPIC(t *testing.T) *fakeVPIC {
	f := &fakeVPIC{}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeVPIC) addRecall(campaign, component, date string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recalls = append(f.recalls, map[string]string{
		"CampaignNumber":     campaign,
		"Component":          component,
		"Summary":            "Test campaign " + campaign,
		"ReportReceivedDate": date,
	})
}

func (f *fakeVPIC) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.Contains(r.URL.Path, "/decodevin/"):
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Count": 6,
			"Results": []map[string]string{
				{"Variable": "Make", "Value": "BMW"},
				{"Variable": "Model", "Value": "3 Series"},
				{"Variable": "Model Year", "Value": "2013"},
				{"Variable": "Body Class", "Value": "Sedan"},
				{"Variable": "Engine Configuration", "Value": "2.0L"},
				{"Variable": "Plant City", "Value": "Munich"},
			},
		})

	case strings.Contains(r.URL.Path, "/recalls/vin/"):
		f.mu.Lock()
		recalls := make([]map[string]string, len(f.recalls))
		copy(recalls, f.recalls)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Count":   len(recalls),
			"Results": recalls,
		})

	default:
		http.NotFound(w, r)
	}
}

func newPipeline(f *fakeVPIC) (*pipeline.Pipeline, *sink.MemorySink, *state.MemoryStore) {
	fetcher := nhtsa.NewClient(f.server.URL, 5*time.Second)
	s := sink.NewMemorySink()
	store := state.NewMemoryStore()
	p := pipeline.New(fetcher, s, store, pipeline.Options{RequireBMW: true}, logger.NewNoOpLogger())
	return p, s, store
}

func TestEndToEnd_DecodeMapAndEmit(t *testing.T) {
	vpic := newFakeVPIC(t)
	vpic.addRecall("21V123000", "FUEL SYSTEM", "2021-05-25")

	p, s, _ := newPipeline(vpic)

	result, err := p.Run(context.Background(), []string{testVIN})
	require.NoError(t, err)

	assert.Equal(t, 1, result.VehiclesUpserted)
	assert.Equal(t, 1, result.RecallsInserted)

	vehicles := s.Vehicles()
	require.Len(t, vehicles, 1)
	assert.Equal(t, testVIN, vehicles[0].VIN)
	assert.Equal(t, "BMW", vehicles[0].Make)
	assert.Equal(t, "3 Series", vehicles[0].ModelName)
	assert.Equal(t, 2013, vehicles[0].ModelYear)
	assert.Equal(t, "2.0L", vehicles[0].EngineType)
	assert.Equal(t, "3", vehicles[0].Series)
	assert.Equal(t, "Munich", vehicles[0].ManufacturingPlant)

	recalls := s.Recalls()
	require.Len(t, recalls, 1)
	assert.Equal(t, "21V123000", recalls[0].CampaignNumber)
}

func TestEndToEnd_IncrementalAcrossRuns(t *testing.T) {
	vpic := newFakeVPIC(t)
	vpic.addRecall("21V123000", "FUEL SYSTEM", "2021-05-25")

	p, s, store := newPipeline(vpic)
	ctx := context.Background()

	first, err := p.Run(ctx, []string{testVIN})
	require.NoError(t, err)
	assert.Equal(t, 1, first.RecallsInserted)

	// Nothing changed upstream: the rerun emits nothing new.
	second, err := p.Run(ctx, []string{testVIN})
	require.NoError(t, err)
	assert.Zero(t, second.RecallsInserted)
	assert.Equal(t, 1, second.RecallsSkipped)

	// A new campaign lands, only it is emitted.
	vpic.addRecall("22V456000", "AIR BAGS", "2022-03-01")
	third, err := p.Run(ctx, []string{testVIN})
	require.NoError(t, err)
	assert.Equal(t, 1, third.RecallsInserted)
	assert.Len(t, s.Recalls(), 2)

	saved, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC), saved.CursorFor(testVIN))
}

func TestEndToEnd_FleetWithOneBadVin(t *testing.T) {
	vpic := newFakeVPIC(t)
	p, s, _ := newPipeline(vpic)

	result, err := p.Run(context.Background(), []string{testVIN, "NOT-A-VIN"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.VehiclesUpserted)
	assert.Equal(t, []string{"NOT-A-VIN"}, result.FailedVINs)
	assert.Len(t, s.Vehicles(), 1)
}

func TestEndToEnd_UpstreamOutageFailsVinNotRun(t *testing.T) {
	vpic := newFakeVPIC(t)
	p, _, store := newPipeline(vpic)
	ctx := context.Background()

	vpic.addRecall("21V123000", "FUEL SYSTEM", "2021-05-25")
	_, err := p.Run(ctx, []string{testVIN})
	require.NoError(t, err)

	// Replace the recall handler with a 502 responder.
	vpic.server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/recalls/") {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		vpic.handle(w, r)
	})

	result, err := p.Run(ctx, []string{testVIN})
	require.NoError(t, err)
	assert.Equal(t, []string{testVIN}, result.FailedVINs)

	// Cursor still points at the last successful sync.
	saved, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 5, 25, 0, 0, 0, 0, time.UTC), saved.CursorFor(testVIN))
}

func TestEndToEnd_RunIDsAreUnique(t *testing.T) {
	vpic := newFakeVPIC(t)
	p, _, _ := newPipeline(vpic)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		result, err := p.Run(ctx, []string{testVIN})
		require.NoError(t, err, fmt.Sprintf("run %d", i))
		assert.False(t, seen[result.RunID])
		seen[result.RunID] = true
	}
}
