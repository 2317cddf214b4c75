package config

import (
	"github.com/pkg/errors"

	"github.com/photon-storage/idea-market/database/mysql"
)

// RelayConfig defines the config for event relay service.
type RelayConfig struct {
	MySQL           mysql.Config `yaml:"mysql"`
	SQLitePath      string       `yaml:"sqlite_path"`
	RedisURL        string       `yaml:"redis_url"`
	Stream          string       `yaml:"stream"`
	RefreshInterval uint64       `yaml:"refresh_interval"`
	BatchSize       int          `yaml:"batch_size"`
}

// Validate checks the relay config and fills defaults.
func (c *RelayConfig) Validate() error {
	if c.RedisURL == "" {
		return errors.New("redis_url is required")
	}
	if c.Stream == "" {
		c.Stream = "idea-market:events"
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = 1
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	return validateDatabase(c.MySQL, c.SQLitePath)
}
