package database

import (
	"gorm.io/gorm"

	"github.com/photon-storage/idea-market/database/mysql"
	"github.com/photon-storage/idea-market/database/sqlite"
)

// Open returns the sqlite database at sqlitePath when set, and the mysql
// cluster described by cfg otherwise. A sqlite database is migrated on
// open, mysql schemas are migrated by the admin tool.
func Open(cfg mysql.Config, sqlitePath string) (*gorm.DB, error) {
	if sqlitePath != "" {
		return sqlite.NewSQLiteDB(sqlitePath, cfg.LogLevel)
	}

	return mysql.NewMySQLDB(cfg)
}
