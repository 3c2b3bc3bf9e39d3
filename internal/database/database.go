package database

import (
	"fmt"
	"time"

	"vibe-domain-service/internal/config"
	"vibe-domain-service/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection opens the store configured for the service. Postgres is the
// production store; sqlite is for local development.
func NewConnection(cfg *config.DatabaseConfig, release bool) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Info)
	if release {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	gormCfg := &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Info().Str("driver", cfg.Driver).Str("database", cfg.DBName).Msg("Connected to database")

	return db, nil
}

// AutoMigrate runs database migrations
func AutoMigrate(db *gorm.DB) error {
	log.Info().Msg("Running database migrations")

	modelsToMigrate := []interface{}{
		&models.PublishedSite{},
		&models.VibeProject{},
		&models.Tenant{},
		&models.TenantDomain{},
		&models.DomainMapping{},
	}

	for _, model := range modelsToMigrate {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Info().Msg("Database migrations completed successfully")
	return nil
}

// createIndexes creates indexes GORM tags cannot express
func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// A subdomain can be claimed by one published record at a time
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_published_sites_active_subdomain
		 ON published_sites (subdomain) WHERE status = 'published'`,

		`CREATE INDEX IF NOT EXISTS idx_published_sites_project_status
		 ON published_sites (project_id, status)`,
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}

// HealthCheck verifies database connectivity
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
