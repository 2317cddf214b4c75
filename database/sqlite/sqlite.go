package sqlite

import (
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/photon-storage/idea-market/database/orm"
)

// NewSQLiteDB opens a single-file database and migrates every marketplace
// table. Use ":memory:" for a throwaway instance.
func NewSQLiteDB(path string, logLevel int) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.LogLevel(logLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	// sqlite serializes writers; one connection keeps an in-memory
	// database alive for the whole process.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "sqlite handle")
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(orm.Tables()...); err != nil {
		return nil, errors.Wrap(err, "auto migrate")
	}

	if err := db.Where(orm.RelayStatus{ID: 1}).
		FirstOrCreate(&orm.RelayStatus{ID: 1}).
		Error; err != nil {
		return nil, errors.Wrap(err, "init relay status")
	}

	return db, nil
}
