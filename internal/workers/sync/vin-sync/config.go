package vinsync

import (
	"fmt"
	"time"

	"bmw-vin-connector/internal/common/config"
)

// Config holds the worker's runtime settings.
type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
}

// DefaultConfig returns the settings used when the application config
// has no vin-sync section.
func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 1,
		Timeout:       5 * time.Minute,
	}
}

func (c *Config) Validate() error {
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive, got %d", c.MaxJobsActive)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers["vin-sync"]; exists {
			cfg.Enabled = workerCfg.Enabled
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = time.Duration(workerCfg.Timeout) * time.Millisecond
			}
		}
	}

	return cfg
}
