package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pneumoscan/pneumoscan/internal/config"
	"github.com/pneumoscan/pneumoscan/internal/domain/audit"
	"github.com/pneumoscan/pneumoscan/internal/domain/record"
	"github.com/pneumoscan/pneumoscan/internal/tenant"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: false,
		DisableAutomaticPing:                     false,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	schemas := []string{"clinical", "audit"} // logical namespace
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&tenant.Registration{},
		&record.ScanRecord{},
		&audit.Log{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// History queries always scope by owner and sort by creation time
		`CREATE INDEX IF NOT EXISTS idx_scan_records_owner_created ON clinical.scan_records (owner, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_records_owner_prediction ON clinical.scan_records (owner, prediction)`,
	}

	// Name search wants a trigram index over the concatenated full name, but
	// managed databases may not allow extension creation.
	if db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error == nil {
		indexes = append(indexes,
			`CREATE INDEX IF NOT EXISTS idx_scan_records_name_trgm ON clinical.scan_records USING gin ((name || ' ' || surname) gin_trgm_ops)`,
		)
	}

	for _, query := range indexes {
		if err := db.Exec(query).Error; err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}

	return nil
}
