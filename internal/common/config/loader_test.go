package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	cfg := &Config{}
	cfg.Camunda.BrokerAddress = "localhost:26500"
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Postgres.Database = "warehouse"
	cfg.Database.Postgres.User = "connector"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Connector.VINs = []string{"WBA3B5C50DF123456"}
	applyDefaults(cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validTestConfig()

	assert.Equal(t, "https://vpic.nhtsa.dot.gov/api/vehicles", cfg.NHTSA.BaseURL)
	assert.Equal(t, 30000, cfg.NHTSA.Timeout)
	assert.Equal(t, "bmw_vehicles", cfg.Connector.VehiclesTable)
	assert.Equal(t, "bmw_recalls", cfg.Connector.RecallsTable)
	assert.Equal(t, "connector:sync_state", cfg.Connector.StateKey)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
}

func TestValidateConfig_Valid(t *testing.T) {
	cfg := validTestConfig()
	require.NoError(t, validateConfig(cfg))
}

func TestValidateConfig_MissingBroker(t *testing.T) {
	cfg := validTestConfig()
	cfg.Camunda.BrokerAddress = ""
	err := validateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker_address")
}

func TestValidateConnectorSection_BadVin(t *testing.T) {
	cfg := validTestConfig()
	cfg.Connector.VINs = []string{"WBA3B5C50DF12345O"} // letter O is not in the VIN alphabet
	err := validateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connector config invalid")
}

func TestValidateConnectorSection_ShortVin(t *testing.T) {
	cfg := validTestConfig()
	cfg.Connector.VINs = []string{"WBA123"}
	require.Error(t, validateConfig(cfg))
}

func TestValidateConnectorSection_EmptyVinListAllowed(t *testing.T) {
	// An empty list is a valid configuration; the run itself aborts
	// with NO_VINS_CONFIGURED when no override arrives either.
	cfg := validTestConfig()
	cfg.Connector.VINs = nil
	require.NoError(t, validateConfig(cfg))

	cfg.Connector.VINs = []string{}
	require.NoError(t, validateConfig(cfg))
}

func TestPostgresGetDSN(t *testing.T) {
	cfg := validTestConfig()
	cfg.Database.Postgres.Port = 5432
	cfg.Database.Postgres.Password = "secret"
	dsn := cfg.Database.Postgres.GetDSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=warehouse")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := validTestConfig()
	wc := GetWorkerConfig(cfg, "vin-sync")
	assert.True(t, wc.Enabled)
	assert.Equal(t, 5, wc.MaxJobsActive)
	assert.Equal(t, 3, wc.MaxRetries)
}
