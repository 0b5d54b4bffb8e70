package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fystack/appprefs/pkg/common/constant"
	"github.com/fystack/appprefs/pkg/common/logger"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

// NewDBConnection opens a gorm connection for driver ("postgres" or "sqlite").
// For sqlite the dsn is a file path; its parent directory must exist.
func NewDBConnection(driver, dsn, environment string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DBDriverPostgres:
		dialector = postgres.Open(dsn)
	case DBDriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, err
			}
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}
	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, err
	}

	logger.Info("Database connection established!", "driver", driver, "database", db.Name())

	if environment == constant.EnvDevelopment {
		db = db.Debug()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if driver == DBDriverSQLite {
		// sqlite allows a single writer; serialise at the pool
		db.Exec("PRAGMA journal_mode=WAL;")
		db.Exec("PRAGMA busy_timeout=5000;")
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
