package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"lifehub-backend/pkg/config"
)

// NewPostgresConnection opens the shared gorm handle. Schema migration is
// done by the caller so that the worker process can connect without racing
// the API server on DDL.
func NewPostgresConnection(cfg *config.Config) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.Environment == "development" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}
