// Package migration manages the database schema. Production runs
// versioned goose scripts against MySQL; sqlite development setups use
// GORM AutoMigrate instead, driven straight from the models.
package migration

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/mishbel44/ortp-botik/internal/shared/logger"
)

//go:embed scripts/*.sql
var scripts embed.FS

const scriptsDir = "scripts"

func prepare(db *gorm.DB) (*sql.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	goose.SetBaseFS(scripts)
	if err := goose.SetDialect("mysql"); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return sqlDB, nil
}

// Up applies all pending migrations.
func Up(db *gorm.DB, log logger.Interface) error {
	sqlDB, err := prepare(db)
	if err != nil {
		return err
	}

	if err := goose.Up(sqlDB, scriptsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	log.Infow("migrations applied", "version", version)
	return nil
}

// Down rolls back the most recent migration.
func Down(db *gorm.DB, log logger.Interface) error {
	sqlDB, err := prepare(db)
	if err != nil {
		return err
	}

	if err := goose.Down(sqlDB, scriptsDir); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	version, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	log.Infow("migration rolled back", "version", version)
	return nil
}

// Status prints the applied/pending state of each migration.
func Status(db *gorm.DB) error {
	sqlDB, err := prepare(db)
	if err != nil {
		return err
	}
	return goose.Status(sqlDB, scriptsDir)
}
