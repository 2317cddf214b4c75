package config

import (
	"github.com/pkg/errors"

	"github.com/photon-storage/idea-market/database/mysql"
)

const minSecretSize = 16

// APIConfig defines the config for api service and the admin tool.
type APIConfig struct {
	Port          int          `yaml:"port"`
	MySQL         mysql.Config `yaml:"mysql"`
	SQLitePath    string       `yaml:"sqlite_path"`
	JWTSecret     string       `yaml:"jwt_secret"`
	CORSOrigins   []string     `yaml:"cors_origins"`
	AssetDecimals uint8        `yaml:"asset_decimals"`
}

// Validate checks the api config.
func (c *APIConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if len(c.JWTSecret) < minSecretSize {
		return errors.Errorf("jwt_secret must be at least %d bytes", minSecretSize)
	}
	return validateDatabase(c.MySQL, c.SQLitePath)
}

func validateDatabase(cfg mysql.Config, sqlitePath string) error {
	if sqlitePath == "" && cfg.Master.Host == "" {
		return errors.New("either mysql master or sqlite_path is required")
	}
	return nil
}
