package database

import (
	"fmt"
	"log"
	"time"

	"warcalendar/backend/internal/config"
	"warcalendar/backend/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Now is the clock used for timestamps written by the database layer.
// Values are UTC at microsecond precision so SQLite and Postgres agree.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Open connects to the configured database and creates the schema if absent.
func Open(driver, dsn string, zl zerolog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	// Configure GORM logger
	gormLogger := logger.New(
		log.New(zl.With().Str("component", "gorm").Logger(), "", 0),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		NowFunc:        Now,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == config.DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite allows one writer at a time; in-memory databases
		// also vanish when their only connection closes.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the events, tags and event_tag tables idempotently.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Event{}, "Tags", &models.EventTag{}); err != nil {
		return fmt.Errorf("failed to set up event_tag join table: %w", err)
	}
	if err := db.AutoMigrate(&models.Tag{}, &models.Event{}, &models.EventTag{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Connect opens the database described by cfg into the shared DB handle.
func Connect(cfg *config.Config, zl zerolog.Logger) error {
	db, err := Open(cfg.DatabaseDriver, cfg.DatabaseURL, zl)
	if err != nil {
		return err
	}
	DB = db
	zl.Info().Str("driver", cfg.DatabaseDriver).Msg("database connection established and migrated")
	return nil
}

// Close releases the shared DB handle.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
