package mysql

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/photon-storage/idea-market/database/orm"
)

const dsnTemplate = "%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local"

// NewMySQLDB create the mysql master/slaves cluster
func NewMySQLDB(cfg Config) (*gorm.DB, error) {
	masterDSN := cfg.Master.dsn()
	var slaveDSNs []gorm.Dialector
	for _, slave := range cfg.Slaves {
		slaveDSNs = append(slaveDSNs, mysql.Open(slave.dsn()))
	}

	db, err := gorm.Open(mysql.Open(masterDSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.LogLevel(cfg.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open master mysql")
	}

	dbResolverCfg := dbresolver.Config{
		Sources:  []gorm.Dialector{mysql.Open(masterDSN)},
		Replicas: slaveDSNs,
		Policy:   dbresolver.RandomPolicy{}}
	if err := db.Use(dbresolver.Register(dbResolverCfg).
		SetConnMaxIdleTime(time.Hour).
		SetConnMaxLifetime(24 * time.Hour).
		SetMaxIdleConns(cfg.ConnCfg.MaxIdleConns).
		SetMaxOpenConns(cfg.ConnCfg.MaxOpenConns),
	); err != nil {
		return nil, errors.Wrap(err, "register db resolver")
	}

	return db, nil
}

// Migrate creates or alters every marketplace table on the source database.
func Migrate(db *gorm.DB) error {
	if err := db.Clauses(dbresolver.Write).
		AutoMigrate(orm.Tables()...); err != nil {
		return errors.Wrap(err, "auto migrate")
	}

	return db.Clauses(dbresolver.Write).
		Where(orm.RelayStatus{ID: 1}).
		FirstOrCreate(&orm.RelayStatus{ID: 1}).
		Error
}

func (c connection) dsn() string {
	return fmt.Sprintf(dsnTemplate,
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.DBName,
	)
}
